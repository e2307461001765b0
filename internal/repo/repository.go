package repo

import (
	"context"

	"go.uber.org/multierr"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// Ports (interfaces) for everything that consumes produced records.

// Sink accepts every record exactly once, synchronously with production.
// Implementations must be safe for concurrent use.
type Sink interface {
	Add(ctx context.Context, r domain.LogRecord) error
}

// RecordReader is the read side handed to presentation layers. Items must
// return a snapshot, never a live reference.
type RecordReader interface {
	Items() []domain.LogRecord
	Size() int
}

// Multi delivers to every sink, even after a failure, and combines the errors.
type Multi []Sink

func (m Multi) Add(ctx context.Context, r domain.LogRecord) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Add(ctx, r))
	}
	return err
}
