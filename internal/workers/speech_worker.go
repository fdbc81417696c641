package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/providers/stt"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultRestartDelay is the pause between a finished utterance and the
// next listening window.
const DefaultRestartDelay = 5 * time.Second

// SpeechWorkerPool consumes finished utterances from a Redis stream,
// transcribes them, and amends the session's newest log entry with the
// transcript. After each utterance it drives the listen -> pause ->
// listen cycle by publishing a "listening" status once the restart
// delay elapses.
type SpeechWorkerPool struct {
	Redis      *redis.Client
	EmotionLog services.EmotionLogService
	STT        stt.Provider
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	RestartDelay   time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func (p *SpeechWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.EmotionLog == nil || p.STT == nil {
		return errors.New("SpeechWorkerPool missing dependency: Redis/EmotionLog/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = "speech:stream"
	}
	if p.Group == "" {
		p.Group = "speech-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "s"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.RestartDelay <= 0 {
		p.RestartDelay = DefaultRestartDelay
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	p.timers = make(map[string]*time.Timer)

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}

	go func() {
		<-ctx.Done()
		p.Shutdown()
	}()
	return nil
}

// StopSession cancels the session's pending restart timer, if any.
func (p *SpeechWorkerPool) StopSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[sessionID]; ok {
		t.Stop()
		delete(p.timers, sessionID)
	}
}

// Shutdown cancels every pending restart timer so no callback outlives
// the pool.
func (p *SpeechWorkerPool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
}

func (p *SpeechWorkerPool) runConsumer(ctx context.Context, consumer string) {
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

func normalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch v {
	case "en", "en-US":
		return "en-US"
	case "hi", "hi-IN":
		return "hi-IN"
	default:
		if v == "" {
			return "en-US"
		}
		return v
	}
}

func (p *SpeechWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	utteranceStr := getStr("utterance_index")
	if sessionID == "" || utteranceStr == "" {
		return
	}
	utteranceIndex, _ := strconv.ParseInt(utteranceStr, 10, 64)

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":        msg.ID,
		"session_id":      sessionID,
		"utterance_index": utteranceIndex,
	})

	respCh := "session:" + sessionID + ":response"
	statusCh := "session:" + sessionID + ":status"

	language := normalizeLanguage(getStr("language"))

	b64 := getStr("audio_base64")
	if b64 == "" {
		return
	}
	raw := b64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"speech_status","status":"failed","message":"invalid audio_base64"}`).Err()
		p.scheduleRestart(ctx, sessionID, statusCh)
		return
	}

	text, conf, err := p.STT.Transcribe(ctx, audio, language)
	if err != nil {
		log.WithError(err).Error("stt failed")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"speech_status","status":"failed","message":"stt failed"}`).Err()
		p.scheduleRestart(ctx, sessionID, statusCh)
		return
	}

	amended := false
	if text != "" {
		amended, err = p.EmotionLog.AmendLastSpeech(ctx, sessionID, text)
		if err != nil {
			log.WithError(err).Error("failed to amend log entry")
		} else if !amended {
			// nothing committed yet; the transcript is dropped
			log.Debug("transcript arrived before any log entry, dropped")
		}
	}

	payload, _ := json.Marshal(map[string]any{
		"type":            "speech_result",
		"utterance_index": utteranceIndex,
		"text":            text,
		"confidence":      conf,
		"amended":         amended,
	})
	_ = p.Redis.Publish(ctx, respCh, string(payload)).Err()

	p.scheduleRestart(ctx, sessionID, statusCh)
}

// scheduleRestart publishes the cooldown status now and the listening
// status after the restart delay. A newer utterance resets the timer.
func (p *SpeechWorkerPool) scheduleRestart(ctx context.Context, sessionID, statusCh string) {
	delayMS := strconv.FormatInt(p.RestartDelay.Milliseconds(), 10)
	_ = p.Redis.Publish(ctx, statusCh, `{"type":"speech_status","status":"cooldown","resume_after_ms":`+delayMS+`}`).Err()

	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.timers[sessionID]; ok {
		t.Stop()
	}
	p.timers[sessionID] = time.AfterFunc(p.RestartDelay, func() {
		p.mu.Lock()
		delete(p.timers, sessionID)
		p.mu.Unlock()
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"speech_status","status":"listening"}`).Err()
	})
}
