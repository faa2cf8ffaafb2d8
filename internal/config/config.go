package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the library engine.
type Config struct {
	// DBPath is the catalog database file.
	DBPath string
	// StoragePath is the library-owned directory managed imports copy into.
	StoragePath string
	// WatchPaths are directories auto-ingested when files appear in them.
	WatchPaths []string
	// ScanWorkers bounds the fingerprinting pool. 0 means one per core.
	ScanWorkers int
	// SimilarityThreshold is the Hamming distance (out of 64 bits) at or
	// below which two perceptual hashes are considered similar.
	SimilarityThreshold int
	// HashTimeout bounds fingerprinting of a single file, so unresponsive
	// removable media fails the file instead of hanging the scan.
	HashTimeout time.Duration
	// FlushInterval is the similarity index persistence cycle.
	FlushInterval time.Duration
	APIPort       string
	LogLevel      slog.Level
	LogFormat     string
}

// Load reads configuration from environment variables, applying defaults
// and validating. A .env file in the current directory or any parent up to
// the project root is loaded first; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:      getEnv("LUMINA_DB_PATH", "./data/lumina.db"),
		StoragePath: getEnv("LUMINA_STORAGE_PATH", "./data/originals"),
		APIPort:     getEnv("LUMINA_API_PORT", "9800"),
		LogFormat:   getEnv("LUMINA_LOG_FORMAT", "text"),
	}

	if watch := getEnv("LUMINA_WATCH_PATHS", ""); watch != "" {
		for _, p := range strings.Split(watch, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.WatchPaths = append(cfg.WatchPaths, p)
			}
		}
	}

	var err error
	if cfg.ScanWorkers, err = getEnvInt("LUMINA_SCAN_WORKERS", 0); err != nil {
		return nil, err
	}
	if cfg.ScanWorkers < 0 {
		return nil, fmt.Errorf("LUMINA_SCAN_WORKERS must not be negative")
	}

	if cfg.SimilarityThreshold, err = getEnvInt("LUMINA_SIMILARITY_THRESHOLD", 10); err != nil {
		return nil, err
	}
	if cfg.SimilarityThreshold < 1 || cfg.SimilarityThreshold > 15 {
		return nil, fmt.Errorf("LUMINA_SIMILARITY_THRESHOLD must be between 1 and 15")
	}

	hashTimeoutSec, err := getEnvInt("LUMINA_HASH_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if hashTimeoutSec <= 0 {
		return nil, fmt.Errorf("LUMINA_HASH_TIMEOUT_SECONDS must be greater than 0")
	}
	cfg.HashTimeout = time.Duration(hashTimeoutSec) * time.Second

	flushSec, err := getEnvInt("LUMINA_FLUSH_INTERVAL_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	if flushSec <= 0 {
		return nil, fmt.Errorf("LUMINA_FLUSH_INTERVAL_SECONDS must be greater than 0")
	}
	cfg.FlushInterval = time.Duration(flushSec) * time.Second

	switch strings.ToLower(getEnv("LUMINA_LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "info":
		cfg.LogLevel = slog.LevelInfo
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("LUMINA_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LUMINA_LOG_FORMAT must be text or json")
	}

	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.StoragePath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}
