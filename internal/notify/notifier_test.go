package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures delivered messages.
type recordingSender struct {
	mu   sync.Mutex
	name string
	sent []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, title, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, title)
	return nil
}

func (s *recordingSender) Name() string { return s.name }

func (s *recordingSender) titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersDisallowedEvents(t *testing.T) {
	sender := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{sender}, []string{"opportunity"}, testLogger())

	n.Notify(context.Background(), "market_update", "filtered", "body")
	n.Notify(context.Background(), "opportunity", "allowed", "body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	titles := sender.titles()
	require.Len(t, titles, 1)
	assert.Equal(t, "allowed", titles[0])
}

func TestNotifyEmptyFilterAllowsAll(t *testing.T) {
	sender := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	n.Notify(context.Background(), "anything", "one", "body")
	n.Notify(context.Background(), "else", "two", "body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = n.Run(ctx)

	assert.Len(t, sender.titles(), 2)
}

func TestNotifyNeverBlocksWhenQueueFull(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			n.Notify(context.Background(), "opportunity", "t", "b")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}

func TestRunFlushesQueueOnShutdown(t *testing.T) {
	sender := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{sender}, nil, testLogger())

	for i := 0; i < 5; i++ {
		n.Notify(context.Background(), "opportunity", "queued", "body")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Len(t, sender.titles(), 5)
}

func TestDispatchContinuesPastFailingSender(t *testing.T) {
	failing := &recordingSender{name: "bad", err: errors.New("unreachable")}
	healthy := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{failing, healthy}, nil, testLogger())

	n.NotifyNow(context.Background(), "title", "body")

	assert.Empty(t, failing.titles())
	assert.Len(t, healthy.titles(), 1)
}

func TestNotifyNowBypassesFilter(t *testing.T) {
	sender := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{sender}, []string{"opportunity"}, testLogger())

	n.NotifyNow(context.Background(), "shutdown notice", "body")

	require.Len(t, sender.titles(), 1)
	assert.Equal(t, "shutdown notice", sender.titles()[0])
}
