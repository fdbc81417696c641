package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CurrentEmotionKey is where a session's UI-facing "current emotion"
// observable lives.
func CurrentEmotionKey(sessionID string) string {
	return "session:" + sessionID + ":emotion"
}
