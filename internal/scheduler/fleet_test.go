package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/repo/memory"
)

func TestFleet_LoopsAreIndependent(t *testing.T) {
	slow := newTask("slow", time.Millisecond, 300*time.Millisecond, domain.OutcomeRequestTimeout)
	fast := newTask("fast", 2*time.Millisecond, 0, domain.OutcomeOK)
	buf := memory.NewRecentBuffer(100)

	f := NewFleet(
		NewLoop(zap.NewNop(), slow, buf, nil),
		NewLoop(zap.NewNop(), fast, buf, nil),
	)
	if f.Len() != 2 {
		t.Fatalf("want 2 loops, got %d", f.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()

	// The fast site keeps producing while the slow one is still inside its
	// first check.
	waitFor(t, 250*time.Millisecond, func() bool { return buf.Size() >= 5 })
	for _, r := range buf.Items() {
		if r.Name != "fast" {
			t.Fatalf("unexpected record from %s before its check finished", r.Name)
		}
	}
	if atomic.LoadInt32(&slow.calls) != 1 {
		t.Fatalf("slow loop should be in its first check")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("fleet did not stop after cancel")
	}
}
