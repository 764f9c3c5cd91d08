// Package config loads runtime settings from the environment, with a
// .env file honored when present. Every knob has a safe default; only
// the enrichment provider requires explicit configuration (an API key),
// and its absence simply disables the enhancement stage.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all pageaudit settings.
type Config struct {
	// Detection stage.
	DetectorTimeout        time.Duration
	PipelineTimeout        time.Duration
	MaxConcurrentDetectors int

	// Scoring.
	AcceptableScore float64

	// Cache.
	CacheBucket   time.Duration
	CacheCapacity int

	// Enhancement.
	ConfidenceThreshold float64
	EnhanceTimeout      time.Duration
	GeminiAPIKey        string
	GeminiModel         string

	// History.
	DataDir string
}

// Load reads configuration from the environment.
func Load() *Config {
	// Load .env if present; real env vars win.
	godotenv.Load()

	home, _ := os.UserHomeDir()

	return &Config{
		DetectorTimeout:        time.Duration(envInt("PAGEAUDIT_DETECTOR_TIMEOUT_MS", 2000)) * time.Millisecond,
		PipelineTimeout:        time.Duration(envInt("PAGEAUDIT_PIPELINE_TIMEOUT_MS", 15000)) * time.Millisecond,
		MaxConcurrentDetectors: envInt("PAGEAUDIT_MAX_CONCURRENT_DETECTORS", 8),
		AcceptableScore:        envFloat("PAGEAUDIT_ACCEPTABLE_SCORE", 70),
		CacheBucket:            time.Duration(envInt("PAGEAUDIT_CACHE_BUCKET_MINUTES", 5)) * time.Minute,
		CacheCapacity:          envInt("PAGEAUDIT_CACHE_CAPACITY", 0), // 0 = unbounded
		ConfidenceThreshold:    envFloat("PAGEAUDIT_CONFIDENCE_THRESHOLD", 0.7),
		EnhanceTimeout:         time.Duration(envInt("PAGEAUDIT_ENHANCE_TIMEOUT_MS", 10000)) * time.Millisecond,
		GeminiAPIKey:           os.Getenv("PAGEAUDIT_GEMINI_API_KEY"),
		GeminiModel:            envOrDefault("PAGEAUDIT_GEMINI_MODEL", "gemini-2.0-flash"),
		DataDir:                envOrDefault("PAGEAUDIT_DATA_DIR", filepath.Join(home, ".pageaudit")),
	}
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
