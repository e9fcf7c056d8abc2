// Package store persists decoded GRIB2 messages to a destination chosen
// at ingest time: PostgreSQL, ClickHouse, or a tree of JSON files.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one decoded message flattened into the shape every Sink
// writes, independent of the destination's storage model.
type Record struct {
	ID               uuid.UUID
	ReferenceTime    time.Time
	ForecastTime     uint32
	Parameter        string
	LevelDescription string
	GridBoundsJSON   string
	Data             []float64
}

// Sink is the destination ingest.Run writes decoded messages to.
type Sink interface {
	WriteMessage(ctx context.Context, rec *Record) error
	Close(ctx context.Context) error
}
