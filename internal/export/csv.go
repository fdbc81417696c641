package export

import (
	"io"
	"strings"
)

// Filename and ContentType are what the browser receives on download.
const (
	Filename    = "emotions_log.csv"
	ContentType = "text/csv"
)

// Row is one committed log entry as it appears in the CSV.
type Row struct {
	Time    string // HH:MM:SS, local clock at commit time
	Emotion string
	Speech  string
}

// WriteCSV serializes rows as
//
//	Time,Emotion,Speech
//	08:00:01,happy,
//	08:00:02,sad,hi there
//
// Rows are comma-delimited with no quoting and no trailing newline.
// Commas inside free-text speech are written as-is; consumers of this
// format accept that. encoding/csv is deliberately not used here: it
// quotes embedded commas and always terminates records with a newline,
// both of which change the wire format.
func WriteCSV(w io.Writer, rows []Row) error {
	var b strings.Builder
	b.WriteString("Time,Emotion,Speech")
	for _, r := range rows {
		b.WriteByte('\n')
		b.WriteString(r.Time)
		b.WriteByte(',')
		b.WriteString(r.Emotion)
		b.WriteByte(',')
		b.WriteString(r.Speech)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
