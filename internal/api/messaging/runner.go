package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Runner drives a pool of workers sharing one handler chain.
type Runner struct {
	workers []Worker
	handler MessageHandler
}

func NewRunner(workers []Worker, handler MessageHandler) *Runner {
	return &Runner{workers: workers, handler: handler}
}

// Start blocks until ctx is cancelled or a worker fails. A failing or
// panicking worker stops the others; every worker is closed on the way out.
func (r *Runner) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, w := range r.workers {
		g.Go(func() error {
			defer closeWorker(i, w)
			return runWorker(gctx, i, w, r.handler)
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, idx int, w Worker, handler MessageHandler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "Worker panic recovered",
				"worker_idx", idx,
				"panic", rec,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("worker %d panicked: %v", idx, rec)
		}
	}()
	return w.Start(ctx, handler)
}

func closeWorker(idx int, w Worker) {
	if err := w.Close(); err != nil {
		slog.Error("Failed to close worker", "worker_idx", idx, slog.Any("error", err))
	}
}
