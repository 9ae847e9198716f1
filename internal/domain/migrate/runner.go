package migrate

import (
	"context"
	"log/slog"
	"time"
)

// Submitter pushes one SQL batch to the schema side of the hosted database.
type Submitter interface {
	Submit(ctx context.Context, sql string) error
}

// Verifier reads back through the independent query layer.
type Verifier interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

// Runner applies migrations and confirms they became visible to the query
// layer. The schema API and the query API are separate processes with
// separate caches, so an accepted batch can take a while to show up on the
// read side.
type Runner struct {
	submitter Submitter
	verifier  Verifier
	logger    *slog.Logger
	attempts  int
	interval  time.Duration
	sleep     func(time.Duration)
}

// Option tweaks runner behavior.
type Option func(*Runner)

// WithAttempts sets the verification retry budget.
func WithAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithInterval sets the pause between verification attempts.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.interval = d
		}
	}
}

// WithSleep replaces the blocking sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Runner) {
		r.sleep = sleep
	}
}

// NewRunner wires up a migration runner.
func NewRunner(submitter Submitter, verifier Verifier, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		submitter: submitter,
		verifier:  verifier,
		logger:    logger.With("component", "migrate.runner"),
		attempts:  5,
		interval:  3 * time.Second,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome describes one applied migration.
type Outcome struct {
	Name     string
	Verified bool
	RowCount int64
}

// Report collects the outcomes of one run.
type Report struct {
	Applied []Outcome
}

// Apply renders and submits each migration in order, then polls the query
// layer for the new structure. Submission failure aborts the run. Verification
// that never converges is downgraded to a warning: the schema API already
// accepted the batch, and that acceptance is the source of truth.
func (r *Runner) Apply(ctx context.Context, migrations []Migration, params Params) (Report, error) {
	var report Report
	for _, m := range migrations {
		sql, err := m.Render(params)
		if err != nil {
			return report, err
		}

		r.logger.Info("submitting schema batch", "migration", m.Name)
		if err := r.submitter.Submit(ctx, sql); err != nil {
			return report, err
		}

		outcome := Outcome{Name: m.Name}
		outcome.Verified, outcome.RowCount = r.verify(ctx, m)
		report.Applied = append(report.Applied, outcome)
	}
	return report, nil
}

func (r *Runner) verify(ctx context.Context, m Migration) (bool, int64) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		count, err := r.verifier.CountRows(ctx, m.VerifyTable)
		if err == nil {
			r.logger.Info("migration visible to query layer",
				"migration", m.Name, "table", m.VerifyTable, "rows", count)
			return true, count
		}
		if attempt < r.attempts {
			r.logger.Info("waiting for query layer to catch up",
				"migration", m.Name, "attempt", attempt, "of", r.attempts)
			r.sleep(r.interval)
			continue
		}
		r.logger.Warn("created but not yet visible to the query layer; it should be ready shortly",
			"migration", m.Name, "table", m.VerifyTable, "error", err)
	}
	return false, 0
}
