package probe

import (
	"context"
	"time"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// Result is the outcome of a single check attempt.
//
// Fields:
//   - Outcome: exactly one classification per attempt.
//   - Duration: monotonic wall time from request start to classification.
//   - StatusCode: HTTP status code when a response arrived; 0 for transport errors.
//   - Cause/Err: the underlying failure for logging. The outcome stays coarse.
type Result struct {
	Outcome    domain.Outcome
	Duration   time.Duration
	StatusCode int
	Cause      string
	Err        error
}

// Task checks one resource. Implementations are immutable after construction
// and never retry internally.
type Task interface {
	Site() domain.Site
	Check(ctx context.Context) Result
}
