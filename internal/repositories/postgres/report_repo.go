package postgres

import (
	"context"
	"errors"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepo interface {
	Upsert(ctx context.Context, report *models.SessionReport) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionReport, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepo {
	return &reportRepo{db: db}
}

func (r *reportRepo) Upsert(ctx context.Context, report *models.SessionReport) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(report).Error
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionReport, error) {
	var row models.SessionReport
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
