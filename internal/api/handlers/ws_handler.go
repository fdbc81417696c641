package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Anoopkumargithub/gla-zoom/internal/models"
	"github.com/Anoopkumargithub/gla-zoom/internal/services"
	"github.com/Anoopkumargithub/gla-zoom/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type WSHandler struct {
	sessions     services.SessionService
	observations services.ObservationService
	redis        *redis.Client
	upgrader     websocket.Upgrader

	FrameStream  string
	SpeechStream string
}

func NewWSHandler(sessions services.SessionService, observations services.ObservationService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions:     sessions,
		observations: observations,
		redis:        rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
		FrameStream:  "frames:stream",
		SpeechStream: "speech:stream",
	}
}

type wsClientMsg struct {
	Type string `json:"type"`

	// frame
	TickIndex   int64  `json:"tick_index"`
	ImageBase64 string `json:"image_base64"`
	ImageURL    string `json:"image_url"`

	// utterance
	UtteranceIndex int64  `json:"utterance_index"`
	AudioBase64    string `json:"audio_base64"`

	// pause/resume/end_session -> no fields
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// SessionWS bridges one capture session: frame and utterance messages
// flow into the Redis streams the worker pools consume, and detection,
// commit, and speech results flow back over the session's pub/sub
// channels.
func (h *WSHandler) SessionWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.SessionWS", "missing session_id", nil))
		return
	}

	// authorize session ownership
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.SessionWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe Redis -> WS
	respCh := "session:" + sessionID + ":response"
	statusCh := "session:" + sessionID + ":status"

	pubsub := h.redis.Subscribe(ctx, respCh, statusCh)
	defer pubsub.Close()

	if !sess.SpeechEnabled && sess.Mode == models.ModeFull {
		// visible once per connection; emotion logging continues without speech
		_ = wc.writeText([]byte(`{"type":"speech_status","status":"unsupported","message":"speech recognition is not available"}`))
	}

	// reader: WS -> Redis streams (+ Mongo observation insert)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "frame":
				h.handleFrame(ctx, wc, sess, msg)

			case "utterance":
				h.handleUtterance(ctx, wc, sess, msg)

			case "pause":
				_ = h.redis.Publish(ctx, statusCh, `{"type":"status","status":"paused","message":"paused"}`).Err()

			case "resume":
				_ = h.redis.Publish(ctx, statusCh, `{"type":"status","status":"ready","message":"resumed"}`).Err()

			case "end_session":
				_, _ = h.sessions.End(ctx, sessionID)
				_ = h.redis.Publish(ctx, statusCh, `{"type":"status","status":"ended","message":"session ended"}`).Err()
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	forwardMessages(ctx, pubsub.Channel(), readDone, wc.writeText)
}

// forwardMessages relays pub/sub payloads until the reader goroutine,
// the context, or the subscription itself goes away. A blocked receive
// must not outlive a disconnected client.
func forwardMessages(ctx context.Context, ch <-chan *redis.Message, readDone <-chan struct{}, write func([]byte) error) {
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			// forward as-is (payload expected JSON string)
			if err := write([]byte(m.Payload)); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleFrame(ctx context.Context, wc *wsConn, sess *models.Session, msg wsClientMsg) {
	if msg.TickIndex <= 0 {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"tick_index must be > 0"}`))
		return
	}

	var b64Ptr, urlPtr *string
	if msg.ImageBase64 != "" {
		b64Ptr = &msg.ImageBase64
	}
	if msg.ImageURL != "" {
		urlPtr = &msg.ImageURL
	}
	if b64Ptr == nil && urlPtr == nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"image_base64 or image_url required"}`))
		return
	}

	if _, err := h.observations.InsertFrame(ctx, sess.SessionID, msg.TickIndex, urlPtr, b64Ptr); err != nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"INTERNAL","message":"failed to insert observation"}`))
		return
	}

	fields := map[string]any{
		"session_id": sess.SessionID,
		"user_id":    sess.UserID,
		"mode":       sess.Mode,
		"tick_index": strconv.FormatInt(msg.TickIndex, 10),
		"ts_unix":    strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}
	if b64Ptr != nil {
		fields["frame_base64"] = *b64Ptr
	}
	if urlPtr != nil {
		fields["frame_url"] = *urlPtr
	}

	if err := h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: h.FrameStream,
		Values: fields,
	}).Err(); err != nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"failed to enqueue frame"}`))
	}
}

func (h *WSHandler) handleUtterance(ctx context.Context, wc *wsConn, sess *models.Session, msg wsClientMsg) {
	if !sess.SpeechEnabled {
		_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"speech recognition is not available for this session"}`))
		return
	}
	if msg.UtteranceIndex <= 0 || msg.AudioBase64 == "" {
		_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"utterance_index (>0) and audio_base64 required"}`))
		return
	}

	if err := h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: h.SpeechStream,
		Values: map[string]any{
			"session_id":      sess.SessionID,
			"utterance_index": strconv.FormatInt(msg.UtteranceIndex, 10),
			"language":        sess.Language,
			"audio_base64":    msg.AudioBase64,
			"ts_unix":         strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err(); err != nil {
		_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"failed to enqueue utterance"}`))
	}
}
