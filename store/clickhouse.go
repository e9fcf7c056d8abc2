package store

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// chunkSize bounds each ClickHouse array cell so a single grid's decoded
// field never grows an Array(Float64) column past a size that keeps
// inserts and compression efficient.
const chunkSize = 1600

// batchSize is the number of chunks accumulated before a batch is sent.
const batchSize = 50000

// ClickHouseSink batches Records through PrepareBatch/Append/Send against
// a grib_data table ordered by (id, chunk_index).
type ClickHouseSink struct {
	opts  *clickhouse.Options
	table string

	mu    sync.Mutex
	conn  driver.Conn
	batch driver.Batch
	count int
}

// NewClickHouseSink dials ClickHouse at addr, ensures the destination
// table exists, and returns a Sink batching Appends of up to batchSize
// chunks before each Send.
func NewClickHouseSink(ctx context.Context, host, port, database, user, pass, table string) (*ClickHouseSink, error) {
	opts := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: pass,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		Settings: clickhouse.Settings{
			"max_execution_time": 1200,
		},
		DialTimeout:     30 * time.Second,
		MaxOpenConns:    100,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}

	s := &ClickHouseSink{opts: opts, table: table}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	if err := s.ensureTable(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	batch, err := conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", s.table))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: preparing batch: %w", err)
	}
	s.batch = batch
	return s, nil
}

func (s *ClickHouseSink) dial(ctx context.Context) (driver.Conn, error) {
	conn, err := clickhouse.Open(s.opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening clickhouse connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: pinging clickhouse: %w", err)
	}
	return conn, nil
}

func (s *ClickHouseSink) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id UUID,
		grib_data Array(Float64),
		chunk_index Int32
	) ENGINE = MergeTree ORDER BY (id, chunk_index) SETTINGS index_granularity = 8192`, s.table)
	return s.conn.Exec(ctx, ddl)
}

// WriteMessage chunks rec.Data into fixed-size pieces and appends each to
// the current batch, sending once batchSize chunks have accumulated.
func (s *ClickHouseSink) WriteMessage(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(rec.Data); i += chunkSize {
		end := i + chunkSize
		if end > len(rec.Data) {
			end = len(rec.Data)
		}
		if err := s.batch.Append(rec.ID, rec.Data[i:end], int32(i/chunkSize)); err != nil {
			return fmt.Errorf("store: appending chunk: %w", err)
		}
		s.count++
	}
	if s.count >= batchSize {
		return s.flushLocked(ctx)
	}
	return nil
}

func (s *ClickHouseSink) flushLocked(ctx context.Context) error {
	if s.count == 0 {
		return nil
	}
	if err := s.batch.Send(); err != nil {
		return fmt.Errorf("store: sending batch: %w", err)
	}
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", s.table))
	if err != nil {
		return fmt.Errorf("store: re-preparing batch: %w", err)
	}
	s.batch = batch
	s.count = 0
	return nil
}

// Close flushes any pending batch and closes the connection.
func (s *ClickHouseSink) Close(ctx context.Context) error {
	s.mu.Lock()
	err := s.flushLocked(ctx)
	s.mu.Unlock()
	if cerr := s.conn.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
