package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONSink writes one .json file per message under a date/forecast-hour
// directory tree, for deployments that want inspectable files on disk
// instead of a database.
type JSONSink struct {
	baseDir string
}

// NewJSONSink returns a Sink that writes under baseDir.
func NewJSONSink(baseDir string) *JSONSink {
	return &JSONSink{baseDir: baseDir}
}

// WriteMessage marshals rec and writes it to
// {baseDir}/{YYYY-MM-DD}/{forecast_time}/{parameter}_{level}.json.
func (s *JSONSink) WriteMessage(ctx context.Context, rec *Record) error {
	dir := filepath.Join(s.baseDir, rec.ReferenceTime.Format("2006-01-02"), fmt.Sprint(rec.ForecastTime))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("store: creating directory %s: %w", dir, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshalling record: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", rec.Parameter, rec.LevelDescription)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("store: writing file %s: %w", path, err)
	}
	return nil
}

// Close is a no-op; JSONSink holds no resources between writes.
func (s *JSONSink) Close(ctx context.Context) error {
	return nil
}
