package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"arbscan/internal/scanner"
)

// shutdownTimeout bounds the final synchronous notifications after the worker
// goroutines have stopped.
const shutdownTimeout = 5 * time.Second

// ScanMode runs the timer-driven polling loop only.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")
	return a.run(ctx, deps, false, true)
}

// WatchMode runs the venue event feeds and the reactive trigger only. No
// polling loop; evaluation happens when a venue reports a change.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")
	return a.run(ctx, deps, true, false)
}

// FullMode runs the polling loop plus the event feeds and reactive trigger.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	return a.run(ctx, deps, true, true)
}

// run starts the notifier worker and the selected subsystems, sends the
// startup notice, and blocks until a goroutine fails or ctx is cancelled. The
// shutdown notice (or the fatal error) is delivered synchronously afterwards
// so it survives the queue worker stopping.
func (a *App) run(ctx context.Context, deps *Dependencies, watch, scan bool) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Notifier.Run(gctx)
	})

	title, body := scanner.FormatStartup(deps.Pairs, deps.VenueNames)
	deps.Notifier.Notify(gctx, "lifecycle", title, body)

	if scan {
		g.Go(func() error {
			return deps.Scanner.Run(gctx)
		})
	}

	if watch {
		if len(deps.Feeds) == 0 {
			a.logger.WarnContext(ctx, "no venue has events enabled, trigger will idle")
		}
		for _, feed := range deps.Feeds {
			g.Go(func() error {
				return feed.Run(gctx)
			})
		}
		g.Go(func() error {
			return deps.Trigger.Run(gctx)
		})
	}

	err := g.Wait()

	notifyCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("mode exited with error", slog.String("error", err.Error()))
		title, body := scanner.FormatError(err)
		deps.Notifier.NotifyNow(notifyCtx, title, body)
		return err
	}

	title, body = scanner.FormatShutdown(time.Now())
	deps.Notifier.NotifyNow(notifyCtx, title, body)
	return err
}
