// Package config loads ambient SimDB settings from the environment,
// optionally seeded from a .env file. It mirrors the teacher's test-time
// multi-path .env discovery
// (internal/infrastructure/persistence/init_test.go) and its cmd/*
// env-driven configuration, generalized into a reusable loader instead of
// an init() tied to one package's tests.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first that loads successfully wins.
// Mirrors init_test.go's "../../../../.env" style relative search so the
// same binary behaves whether it's run from the repo root or a nested
// package's test directory.
var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// LoadDotEnv attempts to load a .env file from envPaths, logging which
// path (if any) succeeded. It is not an error for no .env file to exist;
// real deployments configure entirely through process environment
// variables.
func LoadDotEnv() {
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("📁 config: loaded .env from %s", p)
			return
		}
	}
}

// Config holds the ambient settings every SimDB entry point needs:
// where database files live, how often the shared TimerThread drains, and
// the process-wide worker-thread cap.
type Config struct {
	DataDir       string
	DrainInterval time.Duration
	MaxThreads    int
}

// FromEnv reads Config fields from the process environment, applying the
// documented defaults for anything unset.
func FromEnv() Config {
	return Config{
		DataDir:       getEnv("SIMDB_DATA_DIR", "."),
		DrainInterval: getDurationMillis("SIMDB_DRAIN_INTERVAL_MS", 100),
		MaxThreads:    getEnvInt("SIMDB_MAX_THREADS", 2),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ config: invalid int for %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDurationMillis(key string, fallbackMillis int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMillis)) * time.Millisecond
}
