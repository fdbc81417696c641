package services

import (
	"context"
	"testing"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionRepo struct {
	docs map[string]*models.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{docs: map[string]*models.Session{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	f.docs[s.SessionID] = s
	return nil
}

func (f *fakeSessionRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Session, error) {
	if s, ok := f.docs[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeSessionRepo) End(_ context.Context, sessionID string, endedAt time.Time, dur int64) error {
	s := f.docs[sessionID]
	s.Status = "ended"
	s.EndedAt = &endedAt
	s.DurationSeconds = dur
	return nil
}

func (f *fakeSessionRepo) SetStatus(_ context.Context, sessionID, status string) error {
	f.docs[sessionID].Status = status
	return nil
}

func (f *fakeSessionRepo) SetSummary(_ context.Context, sessionID, summary string) error {
	f.docs[sessionID].Summary = summary
	return nil
}

func TestSessionStart(t *testing.T) {
	t.Run("rejects unknown mode", func(t *testing.T) {
		svc := NewSessionService(newFakeSessionRepo(), true)
		_, _, err := svc.Start(context.Background(), testUser, "turbo", "en-US", models.SessionMetadata{})
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})

	t.Run("full mode with stt available enables speech", func(t *testing.T) {
		svc := NewSessionService(newFakeSessionRepo(), true)
		sess, code, err := svc.Start(context.Background(), testUser, models.ModeFull, "en-US", models.SessionMetadata{})
		require.NoError(t, err)
		assert.True(t, sess.SpeechEnabled)
		assert.NotEmpty(t, code)
		assert.Equal(t, "active", sess.Status)
	})

	t.Run("speech disabled when provider unavailable", func(t *testing.T) {
		svc := NewSessionService(newFakeSessionRepo(), false)
		sess, _, err := svc.Start(context.Background(), testUser, models.ModeFull, "en-US", models.SessionMetadata{})
		require.NoError(t, err)
		assert.False(t, sess.SpeechEnabled, "no STT provider means no speech capture")
	})

	t.Run("overlay mode never captures speech", func(t *testing.T) {
		svc := NewSessionService(newFakeSessionRepo(), true)
		sess, _, err := svc.Start(context.Background(), testUser, models.ModeOverlay, "en-US", models.SessionMetadata{})
		require.NoError(t, err)
		assert.False(t, sess.SpeechEnabled)
	})
}

func TestSessionShareCode(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, true)

	sess, code, err := svc.Start(context.Background(), testUser, models.ModeFull, "en-US", models.SessionMetadata{})
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyShareCode(context.Background(), sess.SessionID, code))

	err = svc.VerifyShareCode(context.Background(), sess.SessionID, "wrong-code")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	err = svc.VerifyShareCode(context.Background(), sess.SessionID, "")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestSessionEnd(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, true)

	sess, _, err := svc.Start(context.Background(), testUser, models.ModeFull, "en-US", models.SessionMetadata{})
	require.NoError(t, err)

	ended, err := svc.End(context.Background(), sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ended", ended.Status)
	require.NotNil(t, ended.EndedAt)

	_, err = svc.Get(context.Background(), "missing-session")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
