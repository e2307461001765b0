package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/repo"
)

var _ repo.Sink = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS check_records (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL,
  start_time     TIMESTAMPTZ NOT NULL,
  outcome        TEXT NOT NULL,
  execution_ms   DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_check_records_name_time ON check_records (name, start_time DESC);
`

// DefaultWriteTimeout bounds a single insert so a stalled server turns into a
// delivery error instead of blocking the caller.
const DefaultWriteTimeout = 5 * time.Second

// db is the subset of *pgxpool.Pool the store uses.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is a durable record sink backed by Postgres.
type Store struct {
	pool         *pgxpool.Pool
	db           db
	log          *zap.Logger
	writeTimeout time.Duration
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool, db: pool, log: log, writeTimeout: DefaultWriteTimeout}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, r domain.LogRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	_, err := s.db.Exec(ctx,
		`INSERT INTO check_records
		   (id, name, start_time, outcome, execution_ms)
		 VALUES
		   ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID, r.Name, r.StartTime, r.Outcome.String(),
		float64(r.ExecutionTime)/float64(time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	s.log.Debug("pg_record_stored", zap.String("id", r.ID), zap.String("name", r.Name))
	return nil
}

// Get returns nil, nil if the record is unknown.
func (s *Store) Get(ctx context.Context, id string) (*domain.LogRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, start_time, outcome, execution_ms
		   FROM check_records
		  WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		r       domain.LogRecord
		outcome string
		ms      float64
	)
	if err := rows.Scan(&r.ID, &r.Name, &r.StartTime, &outcome, &ms); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if r.Outcome, err = domain.ParseOutcome(outcome); err != nil {
		return nil, err
	}
	r.ExecutionTime = time.Duration(ms * float64(time.Millisecond))
	return &r, nil
}
