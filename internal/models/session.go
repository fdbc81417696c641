package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session modes. Full mode ticks once per second and commits emotion
// batches to the log; overlay mode ticks fast (~100ms), returns
// detections for drawing only and never touches the log.
const (
	ModeFull    = "full"
	ModeOverlay = "overlay"
)

type Session struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`       // uuid from platform auth

	Mode     string          `bson:"mode" json:"mode"`         // full|overlay
	Language string          `bson:"language" json:"language"` // BCP-47, for speech capture
	Status   string          `bson:"status" json:"status"`     // active|paused|ended
	Metadata SessionMetadata `bson:"metadata,omitempty" json:"metadata,omitempty"`

	// Speech capture is disabled for the whole session when the STT
	// provider is not configured in this deployment.
	SpeechEnabled bool `bson:"speech_enabled" json:"speech_enabled"`

	// bcrypt hash of the one-time share code for report/export access;
	// the plain code is returned once at session start.
	ShareCodeHash string `bson:"share_code_hash,omitempty" json:"-"`

	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}

type SessionMetadata struct {
	MeetingID   string `bson:"meeting_id,omitempty" json:"meeting_id,omitempty"`
	DisplayName string `bson:"display_name,omitempty" json:"display_name,omitempty"`
}
