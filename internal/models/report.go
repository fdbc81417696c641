package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// SessionReport aggregates one ended session's emotion log.
type SessionReport struct {
	SessionID string `gorm:"column:session_id;type:uuid;primaryKey" json:"session_id"`
	UserID    string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	EntryCount int64          `gorm:"column:entry_count;type:bigint" json:"entry_count"`
	Emotions   pq.StringArray `gorm:"column:emotions;type:text[]" json:"emotions"`

	// JSONB: emotion label -> number of committed entries
	Breakdown datatypes.JSON `gorm:"column:breakdown;type:jsonb" json:"breakdown"`

	// Mean of the per-entry expression vectors
	MeanEmbedding pgvector.Vector `gorm:"column:mean_embedding;type:vector(7)" json:"-"`

	Summary string `gorm:"column:summary;type:text" json:"summary,omitempty"`
	CSVUrl  string `gorm:"column:csv_url;type:text" json:"csv_url,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (SessionReport) TableName() string { return "session_reports" }
