package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nimbusgrib/grib2/config"
	"github.com/nimbusgrib/grib2/store"
)

// fakeSink records every message it receives, for assertions in tests
// that don't want a real Postgres/ClickHouse connection.
type fakeSink struct {
	messages []*store.Record
	closed   bool
}

func (f *fakeSink) WriteMessage(ctx context.Context, rec *store.Record) error {
	f.messages = append(f.messages, rec)
	return nil
}

func (f *fakeSink) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestRunNoFiles(t *testing.T) {
	dir := t.TempDir()
	sink := &fakeSink{}
	cfg := &config.Config{SourceDir: dir, WorkerCount: 1}
	if err := Run(context.Background(), cfg, sink); err != nil {
		t.Fatalf("Run with empty directory: got %v, want nil", err)
	}
	if len(sink.messages) != 0 {
		t.Errorf("Run with empty directory: got %d messages, want 0", len(sink.messages))
	}
}

func TestRunSkipsNonGribFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	sink := &fakeSink{}
	cfg := &config.Config{SourceDir: dir, WorkerCount: 1}
	if err := Run(context.Background(), cfg, sink); err != nil {
		t.Fatalf("Run: got %v, want nil", err)
	}
	if len(sink.messages) != 0 {
		t.Errorf("Run: got %d messages from a non-GRIB file, want 0", len(sink.messages))
	}
}

func TestRunSkipsMalformedGribFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.grib2"), []byte("not a grib file"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	sink := &fakeSink{}
	cfg := &config.Config{SourceDir: dir, WorkerCount: 1}
	if err := Run(context.Background(), cfg, sink); err != nil {
		t.Fatalf("Run with malformed file: got %v, want nil (malformed files are skipped, not fatal)", err)
	}
	if len(sink.messages) != 0 {
		t.Errorf("Run with malformed file: got %d messages, want 0", len(sink.messages))
	}
}

func TestRunMissingSourceDir(t *testing.T) {
	sink := &fakeSink{}
	cfg := &config.Config{SourceDir: filepath.Join(t.TempDir(), "does-not-exist"), WorkerCount: 1}
	if err := Run(context.Background(), cfg, sink); err == nil {
		t.Error("Run with missing source directory: expected error")
	}
}

func TestRunMovesFileAfterIngest(t *testing.T) {
	dir := t.TempDir()
	moveDir := t.TempDir()
	src := filepath.Join(dir, "broken.grib2")
	if err := os.WriteFile(src, []byte("not a grib file"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	sink := &fakeSink{}
	cfg := &config.Config{SourceDir: dir, MoveDir: moveDir, WorkerCount: 1}
	if err := Run(context.Background(), cfg, sink); err != nil {
		t.Fatalf("Run: got %v, want nil", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should have been moved out of the source directory")
	}
	if _, err := os.Stat(filepath.Join(moveDir, "broken.grib2")); err != nil {
		t.Errorf("moved file not found in move directory: %v", err)
	}
}
