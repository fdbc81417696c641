package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/cache"
	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/providers/detect"
	"github.com/Anoopkumargithub/gla-zoom/internal/sampler"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DetectionWorkerPool consumes frame ticks from a Redis stream, runs
// face/expression inference, and feeds the per-session samplers. A tick
// whose inference call fails is treated exactly like a tick with zero
// faces: skipped, loop untouched.
type DetectionWorkerPool struct {
	Redis        *redis.Client
	Observations services.ObservationService
	EmotionLog   services.EmotionLogService
	Samplers     *sampler.Registry
	Detector     detect.Detector
	Cache        cache.Cache
	NumWorkers   int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *DetectionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Observations == nil || p.EmotionLog == nil || p.Samplers == nil || p.Detector == nil {
		return errors.New("DetectionWorkerPool missing dependency: Redis/Observations/EmotionLog/Samplers/Detector must be set")
	}
	if p.Stream == "" {
		p.Stream = "frames:stream"
	}
	if p.Group == "" {
		p.Group = "detection-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "d"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *DetectionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *DetectionWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	userID := getStr("user_id")
	mode := getStr("mode")
	tickIndexStr := getStr("tick_index")
	if sessionID == "" || tickIndexStr == "" {
		return
	}
	tickIndex, _ := strconv.ParseInt(tickIndexStr, 10, 64)

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
		"tick_index": tickIndex,
	})

	respCh := "session:" + sessionID + ":response"

	frame, ok := p.fetchFrame(ctx, getStr("frame_base64"), getStr("frame_url"))
	if !ok {
		log.Warn("tick dropped: no usable frame")
		_ = p.Observations.MarkDetection(ctx, sessionID, tickIndex, "failed", 0, "", 0, 0)
		return
	}

	start := time.Now()
	faces, err := p.Detector.DetectFaces(ctx, frame)
	if err != nil {
		// best effort: a failing inference call is a zero-face tick
		log.WithError(err).Debug("detection failed, skipping tick")
		faces = nil
	}
	procMS := time.Since(start).Milliseconds()

	if len(faces) == 0 {
		_ = p.Observations.MarkDetection(ctx, sessionID, tickIndex, "skipped", 0, "", 0, procMS)
		return
	}

	// overlay mode renders every tick and never logs
	if mode == models.ModeOverlay {
		_ = p.Observations.MarkDetection(ctx, sessionID, tickIndex, "done", len(faces), "", 0, procMS)
		payload, _ := json.Marshal(map[string]any{
			"type":       "detections",
			"tick_index": tickIndex,
			"faces":      faces,
		})
		_ = p.Redis.Publish(ctx, respCh, string(payload)).Err()
		return
	}

	// first detected face drives the sample
	sample, ok := sampler.TopExpression(faces[0].Expressions)
	if !ok {
		_ = p.Observations.MarkDetection(ctx, sessionID, tickIndex, "skipped", len(faces), "", 0, procMS)
		return
	}

	_ = p.Observations.MarkDetection(ctx, sessionID, tickIndex, "done", len(faces), sample.Emotion, sample.Confidence, procMS)

	var win sampler.Sample
	var committed bool
	p.Samplers.WithSession(sessionID, func(s *sampler.Sampler) {
		win, committed = s.Observe(sample)
	})
	if !committed {
		return
	}

	entry, err := p.EmotionLog.Commit(ctx, userID, sessionID, win, win.Scores)
	if err != nil {
		log.WithError(err).Error("failed to commit emotion log entry")
		return
	}

	if p.Cache != nil {
		_ = p.Cache.SetJSON(ctx, cache.CurrentEmotionKey(sessionID), map[string]any{
			"emotion":    entry.Emotion,
			"confidence": entry.Confidence,
			"time":       entry.Time,
		}, time.Hour)
	}

	payload, _ := json.Marshal(map[string]any{
		"type":       "emotion_update",
		"emotion":    entry.Emotion,
		"confidence": entry.Confidence,
		"time":       entry.Time,
		"seq":        entry.Seq,
	})
	_ = p.Redis.Publish(ctx, respCh, string(payload)).Err()
}

// fetchFrame resolves a tick's frame bytes from either an inline base64
// payload (data-URL prefix tolerated) or a fetchable URL.
func (p *DetectionWorkerPool) fetchFrame(ctx context.Context, b64, url string) ([]byte, bool) {
	if b64 != "" {
		raw := b64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:image/...;base64,
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, false
		}
		return decoded, true
	}
	if url != "" {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, false
		}
		defer resp.Body.Close()

		const maxBytes = 10 << 20
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if len(body) == 0 {
			return nil, false
		}
		return body, true
	}
	return nil, false
}
