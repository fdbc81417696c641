package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestForwardMessagesRelaysPayloads(t *testing.T) {
	ch := make(chan *redis.Message, 2)
	readDone := make(chan struct{})

	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardMessages(context.Background(), ch, readDone, func(b []byte) error {
			got = append(got, string(b))
			return nil
		})
	}()

	ch <- &redis.Message{Payload: `{"type":"emotion_update"}`}
	ch <- &redis.Message{Payload: `{"type":"speech_result"}`}
	close(ch)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward loop did not stop on channel close")
	}
	assert.Equal(t, []string{`{"type":"emotion_update"}`, `{"type":"speech_result"}`}, got)
}

func TestForwardMessagesStopsWhenReaderExits(t *testing.T) {
	ch := make(chan *redis.Message) // never receives anything
	readDone := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardMessages(context.Background(), ch, readDone, func([]byte) error {
			t.Error("unexpected write")
			return nil
		})
	}()

	close(readDone)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward loop stayed blocked after the reader exited")
	}
}

func TestForwardMessagesStopsOnWriteError(t *testing.T) {
	ch := make(chan *redis.Message, 1)
	ch <- &redis.Message{Payload: "x"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		forwardMessages(context.Background(), ch, make(chan struct{}), func([]byte) error {
			return assert.AnError
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward loop survived a dead connection")
	}
}
