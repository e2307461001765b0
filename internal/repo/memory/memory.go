package memory

import (
	"context"
	"sync"

	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/repo"
)

var _ repo.Sink = (*RecentBuffer)(nil)
var _ repo.RecordReader = (*RecentBuffer)(nil)

// RecentBuffer keeps the most recent records, newest first. At capacity the
// oldest inserted record is evicted. Order is arrival order at the lock, not
// check start time.
type RecentBuffer struct {
	mu   sync.RWMutex
	ring []domain.LogRecord
	next int // slot for the next insert
	size int
}

func NewRecentBuffer(capacity int) *RecentBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentBuffer{ring: make([]domain.LogRecord, capacity)}
}

// Add implements repo.Sink. It never fails.
func (b *RecentBuffer) Add(_ context.Context, r domain.LogRecord) error {
	b.Enqueue(r)
	return nil
}

func (b *RecentBuffer) Enqueue(r domain.LogRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ring[b.next] = r
	b.next = (b.next + 1) % len(b.ring)
	if b.size < len(b.ring) {
		b.size++
	}
}

// Items returns a copy of the contents, most recent first.
func (b *RecentBuffer) Items() []domain.LogRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.ring)
	out := make([]domain.LogRecord, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.ring[(b.next-1-i+n)%n]
	}
	return out
}

func (b *RecentBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *RecentBuffer) Cap() int { return len(b.ring) }
