package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopExpression(t *testing.T) {
	t.Run("empty map yields no sample", func(t *testing.T) {
		_, ok := TopExpression(nil)
		assert.False(t, ok)
		_, ok = TopExpression(map[string]float64{})
		assert.False(t, ok)
	})

	t.Run("picks maximum confidence", func(t *testing.T) {
		s, ok := TopExpression(map[string]float64{
			"neutral":   0.10,
			"happy":     0.82,
			"sad":       0.03,
			"angry":     0.01,
			"fearful":   0.01,
			"disgusted": 0.01,
			"surprised": 0.02,
		})
		require.True(t, ok)
		assert.Equal(t, "happy", s.Emotion)
		assert.InDelta(t, 0.82, s.Confidence, 1e-9)
	})

	t.Run("equal confidences resolve deterministically", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			s, ok := TopExpression(map[string]float64{
				"surprised": 0.5,
				"angry":     0.5,
				"happy":     0.5,
			})
			require.True(t, ok)
			assert.Equal(t, "angry", s.Emotion)
		}
	})
}

func TestSamplerNoCommitBelowBatch(t *testing.T) {
	s := New(DefaultBatchSize)
	for i := 0; i < DefaultBatchSize-1; i++ {
		_, committed := s.Observe(Sample{Emotion: "happy", Confidence: 0.9})
		assert.False(t, committed)
	}
	assert.Equal(t, DefaultBatchSize-1, s.Pending())
}

func TestSamplerCommitTieBreak(t *testing.T) {
	// first occurrence wins on equal max confidence
	s := New(5)
	confs := []float64{0.2, 0.9, 0.9, 0.1, 0.3}
	emotions := []string{"a", "b", "c", "d", "e"}

	var win Sample
	var committed bool
	for i := range confs {
		win, committed = s.Observe(Sample{Emotion: emotions[i], Confidence: confs[i]})
		if i < 4 {
			require.False(t, committed)
		}
	}
	require.True(t, committed)
	assert.Equal(t, "b", win.Emotion)
	assert.InDelta(t, 0.9, win.Confidence, 1e-9)
}

func TestSamplerFlushEmptiesBuffer(t *testing.T) {
	s := New(5)
	for i := 0; i < 5; i++ {
		s.Observe(Sample{Emotion: "neutral", Confidence: 0.4})
	}
	assert.Equal(t, 0, s.Pending(), "commit must leave an empty buffer")

	// no partial carry-over into the next batch
	_, committed := s.Observe(Sample{Emotion: "sad", Confidence: 1.0})
	assert.False(t, committed)
	assert.Equal(t, 1, s.Pending())
}

func TestSamplerPendingBounds(t *testing.T) {
	s := New(5)
	for i := 0; i < 137; i++ {
		_, committed := s.Observe(Sample{Emotion: "neutral", Confidence: float64(i%10) / 10})
		if committed {
			assert.Equal(t, 0, s.Pending())
		} else {
			assert.Greater(t, s.Pending(), 0)
			assert.Less(t, s.Pending(), 5)
		}
	}
}

func TestSamplerReset(t *testing.T) {
	s := New(5)
	s.Observe(Sample{Emotion: "happy", Confidence: 0.7})
	s.Observe(Sample{Emotion: "sad", Confidence: 0.6})
	s.Reset()
	assert.Equal(t, 0, s.Pending())
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(5)

	r.WithSession("s1", func(s *Sampler) {
		s.Observe(Sample{Emotion: "happy", Confidence: 0.8})
	})
	r.WithSession("s1", func(s *Sampler) {
		assert.Equal(t, 1, s.Pending(), "same session reuses its sampler")
	})
	r.WithSession("s2", func(s *Sampler) {
		assert.Equal(t, 0, s.Pending(), "sessions do not share buffers")
	})
	assert.Equal(t, 2, r.Active())

	r.EndSession("s1")
	r.WithSession("s1", func(s *Sampler) {
		assert.Equal(t, 0, s.Pending(), "ending a session drops buffered samples")
	})

	r.Shutdown()
	assert.Equal(t, 0, r.Active())
}
