// Command gribstore reads GRIB2 files from a source directory and
// persists their decoded messages to PostgreSQL, ClickHouse, or JSON,
// depending on config.Config.SaveAs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nimbusgrib/grib2/config"
	"github.com/nimbusgrib/grib2/ingest"
	"github.com/nimbusgrib/grib2/store"
)

func main() {
	if err := run(); err != nil {
		config.Logger.WithError(err).Error("gribstore failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sink, err := buildSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer sink.Close(ctx)

	start := time.Now()
	config.Logger.Info("gribstore: starting ingest")
	if err := ingest.Run(ctx, cfg, sink); err != nil {
		return err
	}
	config.Logger.WithField("duration", time.Since(start)).Info("gribstore: ingest complete")
	return nil
}

func buildSink(ctx context.Context, cfg *config.Config) (store.Sink, error) {
	switch cfg.SaveAs {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s pool_max_conns=100",
			cfg.PGHost, cfg.PGPort, cfg.PGUser, cfg.PGPass, cfg.PGBase)
		return store.NewPostgresSink(ctx, dsn, "grib_messages", 1000)
	case "clickhouse":
		return store.NewClickHouseSink(ctx, cfg.CHHost, cfg.CHPort, cfg.CHBase, cfg.CHUser, cfg.CHPass, "grib_data")
	case "json":
		return store.NewJSONSink(cfg.SaveDir), nil
	default:
		return nil, fmt.Errorf("gribstore: unknown SaveAs %q", cfg.SaveAs)
	}
}
