package services

import (
	"context"
	"errors"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	mongorepo "github.com/Anoopkumargithub/gla-zoom/internal/repositories/mongo"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"

	"github.com/google/uuid"
)

type SessionService interface {
	// Start creates a capture session and returns it together with the
	// plain share code (shown exactly once).
	Start(ctx context.Context, userID, mode, language string, md models.SessionMetadata) (*models.Session, string, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	End(ctx context.Context, sessionID string) (*models.Session, error)
	SetStatus(ctx context.Context, sessionID, status string) error
	// VerifyShareCode reports whether code grants read access to the
	// session's report and export.
	VerifyShareCode(ctx context.Context, sessionID, code string) error
}

type sessionService struct {
	sessions mongorepo.SessionRepository
	// false when the deployment has no STT provider configured; new
	// sessions then start with speech disabled and the UI shows the
	// unsupported notice.
	speechAvailable bool
}

func NewSessionService(sessions mongorepo.SessionRepository, speechAvailable bool) SessionService {
	return &sessionService{sessions: sessions, speechAvailable: speechAvailable}
}

func (s *sessionService) Start(ctx context.Context, userID, mode, language string, md models.SessionMetadata) (*models.Session, string, error) {
	const op = "SessionService.Start"

	if userID == "" {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if mode != models.ModeFull && mode != models.ModeOverlay {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "mode must be full or overlay", nil)
	}
	if language == "" {
		language = "en-US"
	}

	shareCode := uuid.NewString()
	hash, err := utils.HashShareCode(shareCode)
	if err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to hash share code", err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:       uuid.NewString(),
		UserID:          userID,
		Mode:            mode,
		Language:        language,
		Status:          "active",
		Metadata:        md,
		SpeechEnabled:   s.speechAvailable && mode == models.ModeFull,
		ShareCodeHash:   hash,
		CreatedAt:       now,
		DurationSeconds: 0,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", utils.E(utils.CodeInternal, op, "failed to create session", err)
	}
	return session, shareCode, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *sessionService) End(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.End"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dur := int64(now.Sub(ss.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.sessions.End(ctx, sessionID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end session", err)
	}

	ss.Status = "ended"
	ss.EndedAt = &now
	ss.DurationSeconds = dur
	return ss, nil
}

func (s *sessionService) SetStatus(ctx context.Context, sessionID, status string) error {
	const op = "SessionService.SetStatus"

	if sessionID == "" || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id and status are required", nil)
	}
	if err := s.sessions.SetStatus(ctx, sessionID, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to set status", err)
	}
	return nil
}

func (s *sessionService) VerifyShareCode(ctx context.Context, sessionID, code string) error {
	const op = "SessionService.VerifyShareCode"

	if code == "" {
		return utils.E(utils.CodeUnauthorized, op, "share code required", nil)
	}
	ss, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if ss.ShareCodeHash == "" {
		return utils.E(utils.CodeForbidden, op, "session has no share code", nil)
	}
	if err := utils.CheckShareCode(ss.ShareCodeHash, code); err != nil {
		return utils.E(utils.CodeForbidden, op, "invalid share code", nil)
	}
	return nil
}
