package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FrameObservation is one tick's frame as it moves through detection.
// Observations are transient working data, not the session record; a
// TTL index expires them.
type FrameObservation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	TickIndex int64              `bson:"tick_index" json:"tick_index"`

	FrameURL    *string `bson:"frame_url,omitempty" json:"frame_url,omitempty"`
	FrameBase64 *string `bson:"frame_base64,omitempty" json:"frame_base64,omitempty"`

	DetectStatus  string  `bson:"detect_status" json:"detect_status"` // pending|processing|done|skipped|failed
	FacesDetected int     `bson:"faces_detected" json:"faces_detected"`
	TopEmotion    string  `bson:"top_emotion,omitempty" json:"top_emotion,omitempty"`
	TopConfidence float64 `bson:"top_confidence,omitempty" json:"top_confidence,omitempty"`

	ProcessingTimeMS int64     `bson:"processing_time_ms,omitempty" json:"processing_time_ms,omitempty"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
