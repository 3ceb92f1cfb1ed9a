// Package notify provides the multi-channel notification sink. Messages are
// queued and dispatched by a background worker so a slow or failing channel
// never blocks the evaluation path; on shutdown the worker drains whatever is
// queued within a short grace period.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// flushTimeout bounds the shutdown drain so exit cannot hang on a dead
// channel.
const flushTimeout = 5 * time.Second

// message is one queued notification.
type message struct {
	title string
	body  string
}

// Notifier dispatches notifications to one or more Senders through a bounded
// queue. Notify filters by event type, enqueues, and returns immediately;
// send failures are logged and swallowed, never retried.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types; empty allows all
	queue   chan message
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice are forwarded; an empty list
// allows every event type.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		queue:   make(chan message, 64),
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify enqueues a notification if the event type is allowed. It never
// blocks: when the queue is full the message is dropped and logged.
func (n *Notifier) Notify(ctx context.Context, event, title, body string) {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return
	}
	select {
	case n.queue <- message{title: title, body: body}:
	default:
		n.logger.WarnContext(ctx, "notification queue full, dropping message",
			slog.String("event", event),
			slog.String("title", title),
		)
	}
}

// NotifyNow delivers a notification synchronously, bypassing the queue and
// the event filter. Used for the final shutdown notice after the worker has
// stopped.
func (n *Notifier) NotifyNow(ctx context.Context, title, body string) {
	n.dispatch(ctx, message{title: title, body: body})
}

// Run dispatches queued messages until ctx is cancelled, then drains the
// remaining queue with a fresh flush-bounded context before returning.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-n.queue:
			n.dispatch(ctx, msg)
		case <-ctx.Done():
			n.flush()
			return ctx.Err()
		}
	}
}

// flush sends whatever is still queued, bounded by flushTimeout. Best effort:
// the parent context is already cancelled, so a detached one is used.
func (n *Notifier) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for {
		select {
		case msg := <-n.queue:
			n.dispatch(ctx, msg)
		default:
			return
		}
	}
}

// dispatch delivers one message to all senders. A failing sender does not
// prevent delivery to the remaining ones.
func (n *Notifier) dispatch(ctx context.Context, msg message) {
	for _, s := range n.senders {
		if err := s.Send(ctx, msg.title, msg.body); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", msg.title),
		)
	}
}
