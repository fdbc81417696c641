package services

import (
	"context"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	mongorepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/mongo"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
)

type ObservationService interface {
	InsertFrame(ctx context.Context, sessionID string, tickIndex int64, frameURL, frameBase64 *string) (*models.FrameObservation, error)
	MarkDetection(ctx context.Context, sessionID string, tickIndex int64, status string, faces int, topEmotion string, topConfidence float64, processingMS int64) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.FrameObservation, error)
}

type observationService struct {
	observations mongorepo.ObservationRepository
	ttl          time.Duration
}

func NewObservationService(observations mongorepo.ObservationRepository, ttl time.Duration) ObservationService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &observationService{observations: observations, ttl: ttl}
}

func (s *observationService) InsertFrame(ctx context.Context, sessionID string, tickIndex int64, frameURL, frameBase64 *string) (*models.FrameObservation, error) {
	const op = "ObservationService.InsertFrame"

	if sessionID == "" || tickIndex <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required and tick_index must be > 0", nil)
	}
	if frameURL == nil && frameBase64 == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "frame_url or frame_base64 required", nil)
	}

	now := time.Now().UTC()
	doc := &models.FrameObservation{
		SessionID:   sessionID,
		TickIndex:   tickIndex,
		FrameURL:    frameURL,
		FrameBase64: frameBase64,

		DetectStatus: "pending",

		Timestamp: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.observations.Insert(ctx, doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert frame observation", err)
	}
	return doc, nil
}

func (s *observationService) MarkDetection(ctx context.Context, sessionID string, tickIndex int64, status string, faces int, topEmotion string, topConfidence float64, processingMS int64) error {
	const op = "ObservationService.MarkDetection"

	if sessionID == "" || tickIndex <= 0 || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id, tick_index (>0), and status are required", nil)
	}
	if err := s.observations.MarkDetection(ctx, sessionID, tickIndex, status, faces, topEmotion, topConfidence, processingMS); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update detection fields", err)
	}
	return nil
}

func (s *observationService) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.FrameObservation, error) {
	const op = "ObservationService.ListBySession"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	out, err := s.observations.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list frame observations", err)
	}
	return out, nil
}
