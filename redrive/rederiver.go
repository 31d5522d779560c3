package redrive

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/resumatch/ai"
)

// Status classifies the outcome of a derivation run.
type Status int

const (
	// StatusRecovered means the derivation produced sections, possibly
	// after retries.
	StatusRecovered Status = iota

	// StatusFailed means the attempts were used up without success.
	StatusFailed

	// StatusExhausted means the run stopped early on a spent daily quota.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusRecovered:
		return "recovered"
	case StatusFailed:
		return "failed"
	case StatusExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Result is the outcome of a derivation run. Rate-limit failures are
// values, not errors: a batch caller inspects the status and decides
// whether to continue with the remaining documents.
type Result struct {
	Status   Status
	Sections *ai.DerivedSections
	Attempts int

	// LastErr is the final attempt's error for failed and exhausted runs.
	LastErr error
}

// DefaultMaxAttempts bounds one derivation run.
const DefaultMaxAttempts = 4

// Rederiver drives a SectionDeriver under the retry policy.
type Rederiver struct {
	deriver     ai.SectionDeriver
	maxAttempts int
	logger      *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Rederiver.
type Option func(*Rederiver)

// WithMaxAttempts bounds the attempts of one derivation run.
func WithMaxAttempts(n int) Option {
	return func(r *Rederiver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rederiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRederiver creates a Rederiver over a section deriver.
func NewRederiver(deriver ai.SectionDeriver, opts ...Option) *Rederiver {
	r := &Rederiver{
		deriver:     deriver,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Derive runs section derivation with rate-limit-aware retries. The
// outcome is always a Result value; the only hard error path is context
// cancellation, which surfaces as StatusFailed with the context error.
func (r *Rederiver) Derive(ctx context.Context, raw string) Result {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		sections, info, err := r.deriver.DeriveSections(ctx, raw)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("derivation recovered", "attempt", attempt+1)
			}
			return Result{Status: StatusRecovered, Sections: sections, Attempts: attempt + 1}
		}
		lastErr = err

		if ctx.Err() != nil {
			return Result{Status: StatusFailed, Attempts: attempt + 1, LastErr: ctx.Err()}
		}

		decision := Decide(attempt, info, len(raw))
		if decision.Stop {
			r.logger.Warn("derivation stopped", "reason", decision.Reason, "attempt", attempt+1)
			return Result{Status: StatusExhausted, Attempts: attempt + 1, LastErr: err}
		}
		if attempt == r.maxAttempts-1 {
			break
		}

		r.logger.Debug("derivation failed, backing off",
			"reason", decision.Reason, "wait", decision.Wait, "attempt", attempt+1, "error", err)
		if err := r.sleep(ctx, decision.Wait); err != nil {
			return Result{Status: StatusFailed, Attempts: attempt + 1, LastErr: err}
		}
	}

	return Result{Status: StatusFailed, Attempts: r.maxAttempts, LastErr: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
