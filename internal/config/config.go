package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	Storage     string
	DatabaseURL string
	// Provider
	Provider       string
	AVBaseURL      string
	RequestTimeout time.Duration
	Pace           time.Duration
	// Worker
	WorkerType      string
	WorkerPoll      time.Duration
	WorkerBatchSize int
	// Redis (idempotency, snapshot cache)
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	IdempotencyBackend string
	RedisTTL           time.Duration
	SnapshotCache      string
	SnapshotCacheTTL   time.Duration
	// Tracing
	TracingEnabled bool
	// Entry file with api key, symbols and display options
	EntryFile string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func msDef(key string, def int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(def)), def)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		Storage:            getEnv("STORAGE", "memory"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Provider:           getEnv("PROVIDER", "alphavantage"),
		AVBaseURL:          getEnv("AV_BASE_URL", "https://www.alphavantage.co/query"),
		RequestTimeout:     msDef("REQUEST_TIMEOUT_MS", 10000),
		Pace:               msDef("PACE_MS", 2000),
		WorkerType:         getEnv("WORKER_TYPE", "inproc"),
		WorkerPoll:         msDef("WORKER_POLL_MS", 1000),
		WorkerBatchSize:    atoiDef(getEnv("WORKER_BATCH_LIMIT", "10"), 10),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		IdempotencyBackend: getEnv("IDEMPOTENCY_BACKEND", "none"),
		RedisTTL:           msDef("IDEMPOTENCY_TTL_MS", 86400000),
		SnapshotCache:      getEnv("SNAPSHOT_CACHE", "none"),
		SnapshotCacheTTL:   msDef("SNAPSHOT_CACHE_TTL_MS", 7200000),
		TracingEnabled:     getEnv("TRACING_ENABLED", "false") == "true",
		EntryFile:          getEnv("ENTRY_FILE", ""),
	}
}
