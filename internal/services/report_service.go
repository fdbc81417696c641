package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/export"
	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/llm"
	mongorepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/mongo"
	pgrepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/postgres"
	"github.com/Anoopkumargithub/gla-zoom/internal/storage"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type ReportService interface {
	// Build aggregates the session's emotion log into a SessionReport,
	// optionally archiving the CSV and generating an LLM mood summary.
	Build(ctx context.Context, sess *models.Session) (*models.SessionReport, error)
	Get(ctx context.Context, sessionID string) (*models.SessionReport, error)
}

type reportService struct {
	entries  pgrepo.EmotionLogRepo
	reports  pgrepo.ReportRepo
	sessions mongorepo.SessionRepository

	// both optional; nil disables the feature
	summarizer llm.Provider
	archive    storage.Uploader

	log *logrus.Logger
}

func NewReportService(entries pgrepo.EmotionLogRepo, reports pgrepo.ReportRepo, sessions mongorepo.SessionRepository, summarizer llm.Provider, archive storage.Uploader, log *logrus.Logger) ReportService {
	if log == nil {
		log = logrus.New()
	}
	return &reportService{
		entries:    entries,
		reports:    reports,
		sessions:   sessions,
		summarizer: summarizer,
		archive:    archive,
		log:        log,
	}
}

func (s *reportService) Build(ctx context.Context, sess *models.Session) (*models.SessionReport, error) {
	const op = "ReportService.Build"

	if sess == nil || sess.SessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session is required", nil)
	}

	rows, err := s.entries.ListBySession(ctx, sess.SessionID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list log entries", err)
	}

	report := &models.SessionReport{
		SessionID:  sess.SessionID,
		UserID:     sess.UserID,
		EntryCount: int64(len(rows)),
		CreatedAt:  time.Now().UTC(),
	}

	counts := map[string]int64{}
	mean := make([]float32, len(models.ExpressionLabels))
	embedded := 0
	for _, r := range rows {
		counts[r.Emotion]++
		vec := r.Embedding.Slice()
		if len(vec) == 0 {
			continue
		}
		embedded++
		for i, v := range vec {
			if i < len(mean) {
				mean[i] += v
			}
		}
	}
	for label := range counts {
		report.Emotions = append(report.Emotions, label)
	}
	// entries committed without scores carry no vector and must not
	// drag the mean toward zero
	if embedded > 0 {
		for i := range mean {
			mean[i] /= float32(embedded)
		}
	}
	report.MeanEmbedding = pgvector.NewVector(mean)
	if raw, err := json.Marshal(counts); err == nil {
		report.Breakdown = datatypes.JSON(raw)
	}

	if s.archive != nil && len(rows) > 0 {
		report.CSVUrl = s.archiveCSV(ctx, sess.SessionID, rows)
	}
	if s.summarizer != nil && len(rows) > 0 {
		report.Summary = s.summarize(ctx, sess, rows)
		if report.Summary != "" {
			if err := s.sessions.SetSummary(ctx, sess.SessionID, report.Summary); err != nil {
				s.log.WithError(err).WithField("session_id", sess.SessionID).Warn("failed to store session summary")
			}
		}
	}

	if err := s.reports.Upsert(ctx, report); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to store report", err)
	}
	return report, nil
}

func (s *reportService) Get(ctx context.Context, sessionID string) (*models.SessionReport, error) {
	const op = "ReportService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	row, err := s.reports.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "report not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get report", err)
	}
	return row, nil
}

func (s *reportService) archiveCSV(ctx context.Context, sessionID string, rows []models.EmotionLogEntry) string {
	out := make([]export.Row, len(rows))
	for i, r := range rows {
		out[i] = export.Row{Time: r.Time, Emotion: r.Emotion, Speech: r.Speech}
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, out); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("csv archive: serialize failed")
		return ""
	}

	object := "exports/" + sessionID + "/" + export.Filename
	url, err := s.archive.Upload(ctx, object, export.ContentType, &buf)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("csv archive: upload failed")
		return ""
	}
	return url
}

func (s *reportService) summarize(ctx context.Context, sess *models.Session, rows []models.EmotionLogEntry) string {
	var sb strings.Builder
	sb.WriteString("Summarize this meeting participant's mood in 2-3 sentences, plain language.\n")
	sb.WriteString("Timeline (time, detected emotion, speech if any):\n")
	for _, r := range rows {
		sb.WriteString(r.Time)
		sb.WriteString(" ")
		sb.WriteString(r.Emotion)
		if r.Speech != "" {
			sb.WriteString(" \"")
			sb.WriteString(r.Speech)
			sb.WriteString("\"")
		}
		sb.WriteString("\n")
	}

	chunks, errs := s.summarizer.StreamAnswer(ctx, sb.String())

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}
	select {
	case err := <-errs:
		if err != nil {
			s.log.WithError(err).WithField("session_id", sess.SessionID).Warn("summary generation failed")
			return ""
		}
	default:
	}
	return strings.TrimSpace(full.String())
}
