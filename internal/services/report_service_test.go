package services

import (
	"context"
	"testing"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReportRepo struct {
	saved map[string]*models.SessionReport
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{saved: map[string]*models.SessionReport{}}
}

func (f *fakeReportRepo) Upsert(_ context.Context, report *models.SessionReport) error {
	f.saved[report.SessionID] = report
	return nil
}

func (f *fakeReportRepo) GetBySessionID(_ context.Context, sessionID string) (*models.SessionReport, error) {
	if r, ok := f.saved[sessionID]; ok {
		return r, nil
	}
	return nil, utils.ErrNotFound
}

func TestReportMeanEmbeddingSkipsEntriesWithoutVectors(t *testing.T) {
	dim := len(models.ExpressionLabels)
	withVec := func(first float32) pgvector.Vector {
		v := make([]float32, dim)
		v[0] = first
		return pgvector.NewVector(v)
	}

	logRepo := &fakeLogRepo{rows: []models.EmotionLogEntry{
		{SessionID: "sess-1", Emotion: "happy", Embedding: withVec(0.4)},
		{SessionID: "sess-1", Emotion: "sad"}, // committed without scores
		{SessionID: "sess-1", Emotion: "happy", Embedding: withVec(0.8)},
	}}
	reports := newFakeReportRepo()
	svc := NewReportService(logRepo, reports, newFakeSessionRepo(), nil, nil, nil)

	report, err := svc.Build(context.Background(), &models.Session{SessionID: "sess-1", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, int64(3), report.EntryCount)

	// two entries contributed vectors; the vectorless one must not
	// dilute the mean
	got := report.MeanEmbedding.Slice()
	require.Len(t, got, dim)
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.ElementsMatch(t, []string{"happy", "sad"}, report.Emotions)
}
