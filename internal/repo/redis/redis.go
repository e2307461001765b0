package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EugeneVC/web-monitor/internal/domain"
)

// Sink pushes records onto a Redis list, newest first, trimmed to MaxLen so
// other processes can read the same recent window.
type Sink struct {
	client *redis.Client
	key    string
	maxLen int64
}

func New(ctx context.Context, addr, key string, maxLen int) (*Sink, error) {
	if maxLen < 1 {
		maxLen = 1
	}
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		DisableIdentity: true,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Sink{client: client, key: key, maxLen: int64(maxLen)}, nil
}

func (s *Sink) Close() error { return s.client.Close() }

func (s *Sink) Add(ctx context.Context, r domain.LogRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal the record: %w", err)
	}
	// MULTI/EXEC keeps push+trim atomic against other writers.
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, s.key, data)
		p.LTrim(ctx, s.key, 0, s.maxLen-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push: %w", err)
	}
	return nil
}

// Recent reads the stored window, newest first.
func (s *Sink) Recent(ctx context.Context) ([]domain.LogRecord, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range: %w", err)
	}
	out := make([]domain.LogRecord, 0, len(raw))
	for _, item := range raw {
		var r domain.LogRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
