package stt

import "context"

// Provider transcribes one complete utterance. The capture side records
// a single utterance, ships it here, then pauses before listening again;
// there is no streaming session to keep open.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}
