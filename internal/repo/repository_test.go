package repo_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"

	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/repo"
	"github.com/EugeneVC/web-monitor/internal/repo/file"
	"github.com/EugeneVC/web-monitor/internal/repo/memory"
	pg "github.com/EugeneVC/web-monitor/internal/repo/postgres"
	rds "github.com/EugeneVC/web-monitor/internal/repo/redis"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.Sink = memory.NewRecentBuffer(1)
	var _ repo.RecordReader = memory.NewRecentBuffer(1)
	var _ repo.Sink = (*file.Sink)(nil)
	var _ repo.Sink = (*pg.Store)(nil)
	var _ repo.Sink = (*rds.Sink)(nil)
}

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) Add(ctx context.Context, r domain.LogRecord) error {
	c.n++
	return c.err
}

func TestMulti_DeliversToAllAndCombinesErrors(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("db down")
	a := &countingSink{err: errA}
	ok := &countingSink{}
	b := &countingSink{err: errB}

	err := repo.Multi{a, nil, ok, b}.Add(context.Background(), domain.LogRecord{Name: "x"})
	if a.n != 1 || ok.n != 1 || b.n != 1 {
		t.Fatalf("every sink should get the record once, got %d/%d/%d", a.n, ok.n, b.n)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("want both errors combined, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("want 2 errors, got %d", n)
	}
}

func TestMulti_NoErrors(t *testing.T) {
	if err := (repo.Multi{&countingSink{}}).Add(context.Background(), domain.LogRecord{}); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}
