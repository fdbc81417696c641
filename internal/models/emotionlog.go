package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// EmotionLogEntry is one committed entry of a session's emotion log.
// Seq materializes commit order; "last entry" means max seq within the
// session. Time and Emotion are fixed at commit; Speech is the only
// field ever amended afterwards.
type EmotionLogEntry struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	SessionID string `gorm:"column:session_id;type:uuid;index" json:"session_id"`
	Seq       int64  `gorm:"column:seq;type:bigserial;autoIncrement;uniqueIndex" json:"seq"`

	Time       string  `gorm:"column:time;type:text" json:"time"` // HH:MM:SS, local clock at commit
	Emotion    string  `gorm:"column:emotion;type:text" json:"emotion"`
	Confidence float64 `gorm:"column:confidence;type:double precision" json:"confidence"`
	Speech     string  `gorm:"column:speech;type:text" json:"speech"`

	// Raw expression scores of the winning tick (label -> confidence)
	// and the same scores as a fixed-order vector for similarity search.
	Scores    datatypes.JSON  `gorm:"column:scores;type:jsonb" json:"scores,omitempty"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(7)" json:"-"`

	Timestamp time.Time `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
}

func (EmotionLogEntry) TableName() string { return "emotion_log_entries" }

// ExpressionLabels is the fixed label order used when packing an
// expression map into EmotionLogEntry.Embedding.
var ExpressionLabels = []string{
	"angry", "disgusted", "fearful", "happy", "neutral", "sad", "surprised",
}

// ExpressionVector packs scores into ExpressionLabels order; absent
// labels contribute zero.
func ExpressionVector(scores map[string]float64) []float32 {
	v := make([]float32, len(ExpressionLabels))
	for i, l := range ExpressionLabels {
		v[i] = float32(scores[l])
	}
	return v
}
