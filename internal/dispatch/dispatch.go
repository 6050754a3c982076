package dispatch

import (
	"context"
	"sync"

	"velora-be/internal/logger"

	"go.uber.org/zap"
)

// Runner executes best-effort background tasks. Failures are logged and
// swallowed; callers never block on task completion.
type Runner struct {
	wg sync.WaitGroup
}

func NewRunner() *Runner {
	return &Runner{}
}

// Go runs fn on its own goroutine. The task keeps the request's context
// values (request id) but survives request cancellation.
func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		log := logger.FromCtx(taskCtx).With(zap.String("task", name))

		defer func() {
			if rec := recover(); rec != nil {
				log.Error("background task panicked", zap.Any("panic", rec))
			}
		}()

		if err := fn(taskCtx); err != nil {
			log.Error("background task failed", zap.Error(err))
			return
		}

		log.Debug("background task completed")
	}()
}

// Wait blocks until all in-flight tasks finish. Used on shutdown and in tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
