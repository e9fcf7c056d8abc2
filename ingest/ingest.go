// Package ingest walks a directory of GRIB2 files and writes every
// decoded message to a store.Sink using a bounded worker pool.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nimbusgrib/grib2/config"
	"github.com/nimbusgrib/grib2/grib2"
	"github.com/nimbusgrib/grib2/store"
)

// Run lists cfg.SourceDir, reads each *.grib2/*.grb2 file fully into
// memory, parses it, and writes every decoded message to sink. Files are
// processed concurrently by a bounded worker pool; malformed files are
// logged and skipped rather than aborting the run.
func Run(ctx context.Context, cfg *config.Config, sink store.Sink) error {
	entries, err := os.ReadDir(cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("ingest: reading source dir %s: %w", cfg.SourceDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".grib2") || strings.HasSuffix(name, ".grb2") {
			files = append(files, filepath.Join(cfg.SourceDir, e.Name()))
		}
	}
	if len(files) == 0 {
		config.Logger.Info("ingest: no grib files found")
		return nil
	}

	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for _, path := range files {
		path := path
		eg.Go(func() error {
			if err := ingestFile(egCtx, path, sink); err != nil {
				config.Logger.WithField("file", path).WithError(err).Warn("ingest: skipping file")
			}
			if cfg.MoveDir != "" {
				moveFile(path, cfg.MoveDir)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("ingest: worker pool failed: %w", err)
	}
	return nil
}

// ingestFile reads one file fully into memory (the core parser takes an
// immutable buffer) and writes every decoded message to sink.
func ingestFile(ctx context.Context, path string, sink store.Sink) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	reader := grib2.NewReader(buf)
	entries, err := reader.GetInventory()
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}

	for _, entry := range entries {
		rec := recordFromEntry(entry)
		if err := sink.WriteMessage(ctx, rec); err != nil {
			return fmt.Errorf("writing message: %w", err)
		}
	}
	return nil
}

// recordFromEntry flattens a decoded message's inventory entry into the
// shape every Sink writes.
func recordFromEntry(entry grib2.InventoryEntry) *store.Record {
	msg := entry.Message
	t := msg.Section1.ReferenceTime
	refTime := time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)

	data := make([]float64, len(msg.Section7.Data))
	for i, v := range msg.Section7.Data {
		data[i] = float64(v)
	}

	return &store.Record{
		ID:               msg.ID,
		ReferenceTime:    refTime,
		ForecastTime:     entry.ForecastTime,
		Parameter:        entry.ShortName,
		LevelDescription: entry.LevelDescription,
		GridBoundsJSON:   gridBoundsJSON(msg),
		Data:             data,
	}
}

// gridBoundsJSON serialises the message's lat/lng bounding box, or "{}"
// when the grid template is unsupported.
func gridBoundsJSON(msg *grib2.Message) string {
	g := msg.Section3.Grid
	if g == nil {
		return "{}"
	}
	bounds := map[string]float64{
		"lat_min": math.Min(g.LatFirst, g.LatLast()),
		"lat_max": math.Max(g.LatFirst, g.LatLast()),
		"lng_min": math.Min(g.LonFirst, g.LonLast()),
		"lng_max": math.Max(g.LonFirst, g.LonLast()),
	}
	b, err := json.Marshal(bounds)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func moveFile(path, moveDir string) {
	if err := os.MkdirAll(moveDir, 0755); err != nil {
		config.Logger.WithError(err).Error("ingest: creating move directory")
		return
	}
	dest := filepath.Join(moveDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		config.Logger.WithError(err).Error("ingest: moving file")
	}
}
