package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink batches Records through pgx.CopyFrom against a
// grib_messages table, trading per-row INSERTs for a single binary
// copy per batch.
type PostgresSink struct {
	pool      *pgxpool.Pool
	table     string
	batchSize int

	mu  sync.Mutex
	buf []*Record
}

// NewPostgresSink opens a connection pool against dsn, ensures the
// destination table exists, and returns a Sink that batches writes of
// batchSize Records at a time.
func NewPostgresSink(ctx context.Context, dsn, table string, batchSize int) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	s := &PostgresSink{pool: pool, table: table, batchSize: batchSize}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id uuid NOT NULL,
		reference_time timestamp without time zone,
		forecast_time integer,
		parameter text,
		level_description text,
		grid_bounds json,
		grib_data double precision[],
		CONSTRAINT %s_pkey PRIMARY KEY (id)
	)`, s.table, s.table)
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("store: acquiring connection: %w", err)
	}
	defer conn.Release()
	_, err = conn.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("store: creating table %s: %w", s.table, err)
	}
	return nil
}

// WriteMessage buffers rec, flushing a batch through CopyFrom once
// batchSize records have accumulated.
func (s *PostgresSink) WriteMessage(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	s.buf = append(s.buf, rec)
	shouldFlush := len(s.buf) >= s.batchSize
	s.mu.Unlock()
	if shouldFlush {
		return s.Flush(ctx)
	}
	return nil
}

// Flush sends any buffered records immediately.
func (s *PostgresSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.buf
	s.buf = nil
	s.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("store: acquiring connection: %w", err)
	}
	defer conn.Release()

	columns := []string{"id", "reference_time", "forecast_time", "parameter", "level_description", "grid_bounds", "grib_data"}
	_, err = conn.CopyFrom(ctx, pgx.Identifier{s.table}, columns, &recordCopySource{records: pending})
	if err != nil {
		return fmt.Errorf("store: copy from failed: %w", err)
	}
	return nil
}

// Close flushes any remaining buffered records and releases the pool.
func (s *PostgresSink) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.pool.Close()
	return err
}

// recordCopySource adapts a slice of Records to pgx.CopyFromSource so
// Flush can stream a batch straight into CopyFrom without building an
// intermediate [][]interface{}.
type recordCopySource struct {
	records []*Record
	idx     int
}

func (s *recordCopySource) Next() bool {
	if s.idx >= len(s.records) {
		return false
	}
	s.idx++
	return true
}

func (s *recordCopySource) Values() ([]interface{}, error) {
	r := s.records[s.idx-1]
	return []interface{}{r.ID, r.ReferenceTime, r.ForecastTime, r.Parameter, r.LevelDescription, r.GridBoundsJSON, r.Data}, nil
}

func (s *recordCopySource) Err() error {
	return nil
}
