package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// Sink appends one text line per record to a file. Writes from concurrent
// loops are serialized.
type Sink struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func Open(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record log: %w", err)
	}
	return &Sink{f: f, path: path}, nil
}

func (s *Sink) Path() string { return s.path }

func (s *Sink) Add(_ context.Context, r domain.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	if _, err := fmt.Fprintln(s.f, r.String()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
