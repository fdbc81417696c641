package postgres

import (
	"context"
	"errors"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmotionLogRepo interface {
	Append(ctx context.Context, entry *models.EmotionLogEntry) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.EmotionLogEntry, error)
	Last(ctx context.Context, sessionID string) (*models.EmotionLogEntry, error)
	// AmendLastSpeech sets the speech field on the session's newest
	// entry. Returns false without error when the log is empty.
	AmendLastSpeech(ctx context.Context, sessionID, transcript string) (bool, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
	SimilarMoments(ctx context.Context, sessionID string, vec []float32, limit int) ([]models.EmotionLogEntry, error)
}

type emotionLogRepo struct {
	db *gorm.DB
}

func NewEmotionLogRepo(db *gorm.DB) EmotionLogRepo {
	return &emotionLogRepo{db: db}
}

func (r *emotionLogRepo) Append(ctx context.Context, entry *models.EmotionLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *emotionLogRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.EmotionLogEntry, error) {
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.EmotionLogEntry
	err := q.Find(&rows).Error
	return rows, err
}

func (r *emotionLogRepo) Last(ctx context.Context, sessionID string) (*models.EmotionLogEntry, error) {
	var row models.EmotionLogEntry
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *emotionLogRepo) AmendLastSpeech(ctx context.Context, sessionID, transcript string) (bool, error) {
	last, err := r.Last(ctx, sessionID)
	if errors.Is(err, utils.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Model(&models.EmotionLogEntry{}).
		Where("id = ?", last.ID).
		Update("speech", transcript)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *emotionLogRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.EmotionLogEntry{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

func (r *emotionLogRepo) SimilarMoments(ctx context.Context, sessionID string, vec []float32, limit int) ([]models.EmotionLogEntry, error) {
	var rows []models.EmotionLogEntry
	err := similarMomentsQuery(r.db.WithContext(ctx), sessionID, vec, limit).
		Find(&rows).Error
	return rows, err
}

// similarMomentsQuery orders by L2 distance to the given vector. Plain
// Order() drops expression arguments, so the ORDER BY goes in as a
// clause.
func similarMomentsQuery(db *gorm.DB, sessionID string, vec []float32, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 5
	}
	return db.
		Model(&models.EmotionLogEntry{}).
		Where("session_id = ?", sessionID).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "embedding <-> ?",
			Vars:               []interface{}{pgvector.NewVector(vec)},
			WithoutParentheses: true,
		}}).
		Limit(limit)
}
