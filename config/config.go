// Package config loads runtime settings from the environment and sets up
// the shared logger.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the datastore connection settings and ingest directories
// read from the environment. WorkerCount is not read by Load; it stays
// zero unless the caller sets it, and ingest.Run then derives the worker
// count from the CPU count.
type Config struct {
	PGHost string
	PGPort string
	PGUser string
	PGPass string
	PGBase string

	CHHost string
	CHPort string
	CHUser string
	CHPass string
	CHBase string

	SourceDir string
	SaveDir   string
	MoveDir   string
	SaveAs    string // "postgres" | "clickhouse" | "json"

	WorkerCount int
}

// Logger is the shared structured logger used across the ingest pipeline.
var Logger = logrus.New()

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

// Load reads a .env file (if present) and populates Config from the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		Logger.WithError(err).Warn("no .env file found, relying on process environment")
	}

	cfg := &Config{
		PGHost:    getEnv("PG_HOST", ""),
		PGPort:    getEnv("PG_PORT", ""),
		PGUser:    getEnv("PG_USER", ""),
		PGPass:    getEnv("PG_PASS", ""),
		PGBase:    getEnv("PG_BASE", ""),
		CHHost:    getEnv("CH_HOST", ""),
		CHPort:    getEnv("CH_PORT", ""),
		CHUser:    getEnv("CH_USER", ""),
		CHPass:    getEnv("CH_PASS", ""),
		CHBase:    getEnv("CH_BASE", ""),
		SourceDir: getEnv("SOURCE_DIR", "."),
		SaveDir:   getEnv("GRIB_SAVE_DIR", ""),
		MoveDir:   getEnv("MOVE_DIR", ""),
		SaveAs:    getEnv("SAVE_AS", "json"),
	}

	switch cfg.SaveAs {
	case "postgres", "clickhouse", "json":
	default:
		return nil, fmt.Errorf("config: unknown SAVE_AS %q", cfg.SaveAs)
	}

	return cfg, nil
}

func init() {
	Logger.SetFormatter(&logrus.TextFormatter{})
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetOutput(os.Stdout)
}
