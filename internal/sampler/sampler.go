package sampler

import (
	"sort"
)

// DefaultBatchSize is how many per-tick samples accumulate before one
// log entry is committed.
const DefaultBatchSize = 5

// Sample is the strongest expression observed on a single tick. Scores
// keeps the tick's full expression map so a committed winner can carry
// its raw distribution along.
type Sample struct {
	Emotion    string             `json:"emotion"`
	Confidence float64            `json:"confidence"` // [0,1]
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// TopExpression reduces one face's expression map to a Sample.
// Labels are sorted before comparison so equal confidences resolve the
// same way on every run; a strictly greater score is required to displace
// the current best.
func TopExpression(expressions map[string]float64) (Sample, bool) {
	if len(expressions) == 0 {
		return Sample{}, false
	}

	labels := make([]string, 0, len(expressions))
	for l := range expressions {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	best := Sample{Emotion: labels[0], Confidence: expressions[labels[0]], Scores: expressions}
	for _, l := range labels[1:] {
		if expressions[l] > best.Confidence {
			best = Sample{Emotion: l, Confidence: expressions[l], Scores: expressions}
		}
	}
	return best, true
}

// Sampler buffers per-tick samples for one session and collapses every
// full batch into a single committed emotion. The buffer never carries
// samples across a flush.
//
// A Sampler is not safe for concurrent use; the registry serializes
// access per session.
type Sampler struct {
	buf   []Sample
	batch int
}

func New(batchSize int) *Sampler {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Sampler{
		buf:   make([]Sample, 0, batchSize),
		batch: batchSize,
	}
}

// Pending reports how many samples are buffered but not yet committed.
func (s *Sampler) Pending() int { return len(s.buf) }

// Observe appends one tick's sample. When the buffer reaches the batch
// size it is reduced to the sample with the maximum confidence (the
// earliest sample wins ties, since only a strictly greater confidence
// displaces the running winner), the buffer is emptied, and the winning
// sample is returned with ok=true.
func (s *Sampler) Observe(sample Sample) (Sample, bool) {
	s.buf = append(s.buf, sample)
	if len(s.buf) < s.batch {
		return Sample{}, false
	}

	win := s.buf[0]
	for _, c := range s.buf[1:] {
		if c.Confidence > win.Confidence {
			win = c
		}
	}
	s.buf = s.buf[:0]
	return win, true
}

// Reset drops any buffered samples without committing them.
func (s *Sampler) Reset() { s.buf = s.buf[:0] }
