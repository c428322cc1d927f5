package assessoverduefines

import (
	"context"
	"time"

	"github.com/shelfwise/circulation/circulation/shared/shell"
	"github.com/shelfwise/circulation/eventstore"
)

// Runner runs the sweep periodically.
type Runner struct {
	handler  shell.CommandHandler[Command, Result]
	interval time.Duration
	logger   eventstore.ContextualLogger
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerClock replaces time.Now, for tests.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a Runner that calls handler every interval. An interval of 0 or less disables it.
func NewRunner(
	handler shell.CommandHandler[Command, Result],
	interval time.Duration,
	logger eventstore.ContextualLogger,
	opts ...RunnerOption,
) Runner {

	runner := Runner{
		handler:  handler,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&runner)
	}

	return runner
}

// Run blocks until ctx is done, running one sweep per tick.
func (r Runner) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r Runner) runOnce(ctx context.Context) {
	now := r.now()

	result, _, err := r.handler.Handle(ctx, BuildCommand(now, now))
	if err != nil {
		if ctx.Err() == nil && r.logger != nil {
			r.logger.ErrorContext(ctx, "overdue sweep failed", "error", err.Error())
		}

		return
	}

	if r.logger != nil {
		r.logger.InfoContext(
			ctx,
			"overdue sweep finished",
			"examined", result.Examined,
			"assessed", result.Assessed,
			"failed", result.Failed,
		)
	}
}
