package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/detect"
	"github.com/Anoopkumargithub/gla-zoom/internal/sampler"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObservations struct {
	marks []string
}

func (s *stubObservations) InsertFrame(_ context.Context, _ string, _ int64, _, _ *string) (*models.FrameObservation, error) {
	return nil, nil
}

func (s *stubObservations) MarkDetection(_ context.Context, _ string, _ int64, status string, _ int, _ string, _ float64, _ int64) error {
	s.marks = append(s.marks, status)
	return nil
}

func (s *stubObservations) ListBySession(_ context.Context, _ string, _ int64) ([]models.FrameObservation, error) {
	return nil, nil
}

type stubEmotionLog struct {
	commits int
}

func (s *stubEmotionLog) Commit(_ context.Context, _, _ string, win sampler.Sample, _ map[string]float64) (*models.EmotionLogEntry, error) {
	s.commits++
	return &models.EmotionLogEntry{Emotion: win.Emotion}, nil
}

func (s *stubEmotionLog) AmendLastSpeech(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

func (s *stubEmotionLog) ListBySession(_ context.Context, _ string, _ int) ([]models.EmotionLogEntry, error) {
	return nil, nil
}

func (s *stubEmotionLog) CountBySession(_ context.Context, _ string) (int64, error) { return 0, nil }

func (s *stubEmotionLog) ExportCSV(_ context.Context, _ string, _ io.Writer) error { return nil }

func (s *stubEmotionLog) SimilarMoments(_ context.Context, _ string, _ map[string]float64, _ int) ([]models.EmotionLogEntry, error) {
	return nil, nil
}

type stubDetector struct {
	faces []detect.Face
	err   error
}

func (s *stubDetector) LoadModels(context.Context) error { return nil }

func (s *stubDetector) DetectFaces(context.Context, []byte) ([]detect.Face, error) {
	return s.faces, s.err
}

func (s *stubDetector) Close() error { return nil }

func newTestPool(d detect.Detector) (*DetectionWorkerPool, *stubObservations, *stubEmotionLog) {
	obs := &stubObservations{}
	elog := &stubEmotionLog{}
	return &DetectionWorkerPool{
		Observations: obs,
		EmotionLog:   elog,
		Samplers:     sampler.NewRegistry(sampler.DefaultBatchSize),
		Detector:     d,
		Logger:       logrus.New(),
	}, obs, elog
}

func frameMsg(sessionID string, tick int64) redis.XMessage {
	return redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"session_id":   sessionID,
			"user_id":      "u1",
			"mode":         models.ModeFull,
			"tick_index":   strconv.FormatInt(tick, 10),
			"frame_base64": base64.StdEncoding.EncodeToString([]byte("frame")),
		},
	}
}

func samplerPending(p *DetectionWorkerPool, sessionID string) int {
	var pending int
	p.Samplers.WithSession(sessionID, func(s *sampler.Sampler) {
		pending = s.Pending()
	})
	return pending
}

func TestHandleMsgDetectorErrorSkipsTick(t *testing.T) {
	p, obs, elog := newTestPool(&stubDetector{err: errors.New("inference down")})

	p.handleMsg(context.Background(), frameMsg("sess-err", 1))

	require.Equal(t, []string{"skipped"}, obs.marks)
	assert.Equal(t, 0, elog.commits)
	assert.Equal(t, 0, samplerPending(p, "sess-err"))
}

func TestHandleMsgZeroFacesSkipsTick(t *testing.T) {
	p, obs, elog := newTestPool(&stubDetector{faces: nil})

	p.handleMsg(context.Background(), frameMsg("sess-empty", 1))

	require.Equal(t, []string{"skipped"}, obs.marks)
	assert.Equal(t, 0, elog.commits)
	assert.Equal(t, 0, samplerPending(p, "sess-empty"))
}

func TestHandleMsgFaceFeedsSampler(t *testing.T) {
	p, obs, elog := newTestPool(&stubDetector{faces: []detect.Face{
		{Expressions: map[string]float64{"happy": 0.8, "neutral": 0.2}},
	}})

	p.handleMsg(context.Background(), frameMsg("sess-ok", 1))

	require.Equal(t, []string{"done"}, obs.marks)
	assert.Equal(t, 0, elog.commits) // one tick is below the batch size
	assert.Equal(t, 1, samplerPending(p, "sess-ok"))
}

func TestFetchFrameBase64(t *testing.T) {
	p := &DetectionWorkerPool{}
	want := []byte{0xff, 0xd8, 0xff, 0xe0} // jpeg magic
	enc := base64.StdEncoding.EncodeToString(want)

	got, ok := p.fetchFrame(context.Background(), enc, "")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFetchFrameStripsDataURLPrefix(t *testing.T) {
	p := &DetectionWorkerPool{}
	want := []byte("frame-bytes")
	enc := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(want)

	got, ok := p.fetchFrame(context.Background(), enc, "")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFetchFrameRejectsGarbage(t *testing.T) {
	p := &DetectionWorkerPool{}

	_, ok := p.fetchFrame(context.Background(), "not base64!!!", "")
	assert.False(t, ok)

	_, ok = p.fetchFrame(context.Background(), "", "")
	assert.False(t, ok)
}
