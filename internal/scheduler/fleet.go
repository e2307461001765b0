package scheduler

import (
	"context"
	"sync"
)

// Fleet runs one independent loop per task. Loops share nothing but their
// sinks, which serialize access themselves.
type Fleet struct {
	loops []*Loop
}

func NewFleet(loops ...*Loop) *Fleet {
	return &Fleet{loops: loops}
}

func (f *Fleet) Len() int { return len(f.loops) }

// Run starts every loop and blocks until all of them have returned, which
// only happens once ctx is cancelled.
func (f *Fleet) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, l := range f.loops {
		wg.Add(1)
		go func(l *Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(l)
	}
	wg.Wait()
}
