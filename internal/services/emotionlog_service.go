package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/export"
	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	pgrepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/postgres"
	"github.com/Anoopkumargithub/gla-zoom/internal/sampler"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// LogTimeLayout is the wall-clock format of a committed entry.
const LogTimeLayout = "15:04:05"

type EmotionLogService interface {
	// Commit appends one log entry for a flushed sample batch. The
	// entry's time is the local clock at commit; speech starts empty.
	Commit(ctx context.Context, userID, sessionID string, win sampler.Sample, scores map[string]float64) (*models.EmotionLogEntry, error)
	// AmendLastSpeech attaches a transcript to the newest entry. An
	// empty log is a no-op (the transcript is dropped) and reports
	// amended=false.
	AmendLastSpeech(ctx context.Context, sessionID, transcript string) (amended bool, err error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.EmotionLogEntry, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	// ExportCSV writes the session's full log as the downloadable CSV
	// document. Exporting an empty log is refused.
	ExportCSV(ctx context.Context, sessionID string, w io.Writer) error
	SimilarMoments(ctx context.Context, sessionID string, scores map[string]float64, limit int) ([]models.EmotionLogEntry, error)
}

type emotionLogService struct {
	entries pgrepo.EmotionLogRepo
	now     func() time.Time
}

func NewEmotionLogService(entries pgrepo.EmotionLogRepo) EmotionLogService {
	return &emotionLogService{entries: entries, now: time.Now}
}

func (s *emotionLogService) Commit(ctx context.Context, userID, sessionID string, win sampler.Sample, scores map[string]float64) (*models.EmotionLogEntry, error) {
	const op = "EmotionLogService.Commit"

	if userID == "" || sessionID == "" || win.Emotion == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id, session_id, and emotion are required", nil)
	}

	now := s.now()
	entry := &models.EmotionLogEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionID:  sessionID,
		Time:       now.Format(LogTimeLayout),
		Emotion:    win.Emotion,
		Confidence: win.Confidence,
		Speech:     "",
		Timestamp:  now.UTC(),
	}

	if len(scores) > 0 {
		raw, err := json.Marshal(scores)
		if err == nil {
			entry.Scores = datatypes.JSON(raw)
		}
		entry.Embedding = pgvector.NewVector(models.ExpressionVector(scores))
	}

	if err := s.entries.Append(ctx, entry); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to append log entry", err)
	}
	return entry, nil
}

func (s *emotionLogService) AmendLastSpeech(ctx context.Context, sessionID, transcript string) (bool, error) {
	const op = "EmotionLogService.AmendLastSpeech"

	if sessionID == "" {
		return false, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	amended, err := s.entries.AmendLastSpeech(ctx, sessionID, transcript)
	if err != nil {
		return false, utils.E(utils.CodeInternal, op, "failed to amend last entry", err)
	}
	return amended, nil
}

func (s *emotionLogService) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.EmotionLogEntry, error) {
	const op = "EmotionLogService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	rows, err := s.entries.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list log entries", err)
	}
	return rows, nil
}

func (s *emotionLogService) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	const op = "EmotionLogService.CountBySession"

	if sessionID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	n, err := s.entries.CountBySession(ctx, sessionID)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to count log entries", err)
	}
	return n, nil
}

func (s *emotionLogService) ExportCSV(ctx context.Context, sessionID string, w io.Writer) error {
	const op = "EmotionLogService.ExportCSV"

	rows, err := s.ListBySession(ctx, sessionID, 0)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return utils.E(utils.CodeNotFound, op, "emotion log is empty", nil)
	}

	out := make([]export.Row, len(rows))
	for i, r := range rows {
		out[i] = export.Row{Time: r.Time, Emotion: r.Emotion, Speech: r.Speech}
	}
	if err := export.WriteCSV(w, out); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to write csv", err)
	}
	return nil
}

func (s *emotionLogService) SimilarMoments(ctx context.Context, sessionID string, scores map[string]float64, limit int) ([]models.EmotionLogEntry, error) {
	const op = "EmotionLogService.SimilarMoments"

	if sessionID == "" || len(scores) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and scores are required", nil)
	}
	rows, err := s.entries.SimilarMoments(ctx, sessionID, models.ExpressionVector(scores), limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to query similar moments", err)
	}
	return rows, nil
}
