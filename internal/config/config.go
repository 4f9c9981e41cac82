package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// coverageRanges maps a rough coverage distance to the RSSI threshold that
// approximates it.
var coverageRanges = map[string]int{
	"1m":  -60,
	"5m":  -70,
	"10m": -80,
	"20m": -90,
	"50m": -100,
}

// Config holds all application configuration.
type Config struct {
	WindowSec       int
	TickIntervalSec int
	RSSIThreshold   int
	MinSamples      int
	Debug           bool
	MockMode        bool
	DBPath          string
	Addr            string
	ManufacturerDB  string
	DurationSec     int
	ExportPDFPath   string
}

// Window returns the presence window as a duration.
func (c *Config) Window() time.Duration { return time.Duration(c.WindowSec) * time.Second }

// TickInterval returns the reporting cadence as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSec) * time.Second
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.WindowSec = getEnvInt("BLEMAP_WINDOW", 10)
	cfg.TickIntervalSec = getEnvInt("BLEMAP_INTERVAL", 2)
	cfg.RSSIThreshold = getEnvInt("BLEMAP_RSSI", -40)
	cfg.MinSamples = getEnvInt("BLEMAP_MIN_SAMPLES", 1)
	cfg.Debug = getEnvBool("BLEMAP_DEBUG", false)
	cfg.MockMode = getEnvBool("BLEMAP_MOCK", false)
	cfg.DBPath = getEnv("BLEMAP_DB", getDefaultDBPath())
	cfg.Addr = getEnv("BLEMAP_ADDR", ":8080")
	coverage := getEnv("BLEMAP_COVERAGE", "")

	// Command Line Flags (Override Env)
	flag.IntVar(&cfg.WindowSec, "window", cfg.WindowSec, "Presence window in seconds")
	flag.IntVar(&cfg.TickIntervalSec, "interval", cfg.TickIntervalSec, "Reporting tick interval in seconds")
	flag.IntVar(&cfg.RSSIThreshold, "rssi", cfg.RSSIThreshold, "Drop sightings below this RSSI (dBm)")
	flag.IntVar(&cfg.MinSamples, "min-samples", cfg.MinSamples, "Minimum sightings in the window to count an identity")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Show every raw identity separately instead of merging")
	flag.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run against the simulated advertisement source")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&coverage, "coverage", coverage, "Coverage preset overriding the RSSI threshold (1m, 5m, 10m, 20m, 50m)")
	flag.StringVar(&cfg.ManufacturerDB, "manufacturer-db", "", "Optional manufacturer table overlay file")
	flag.IntVar(&cfg.DurationSec, "duration", 0, "Run duration in seconds (0 = until interrupted)")
	flag.StringVar(&cfg.ExportPDFPath, "export-pdf", "", "Write a session summary PDF here on shutdown")

	flag.Parse()

	if coverage != "" {
		threshold, ok := coverageRanges[coverage]
		if !ok {
			return nil, fmt.Errorf("config: unknown coverage preset %q", coverage)
		}
		cfg.RSSIThreshold = threshold
	}

	if cfg.WindowSec <= 0 {
		return nil, fmt.Errorf("config: window must be positive, got %d", cfg.WindowSec)
	}
	if cfg.TickIntervalSec <= 0 {
		return nil, fmt.Errorf("config: interval must be positive, got %d", cfg.TickIntervalSec)
	}
	if cfg.MinSamples < 1 {
		return nil, fmt.Errorf("config: min-samples must be >= 1, got %d", cfg.MinSamples)
	}

	return cfg, nil
}

// CoverageThreshold resolves a coverage preset to its RSSI threshold.
func CoverageThreshold(preset string) (int, bool) {
	threshold, ok := coverageRanges[preset]
	return threshold, ok
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "blemap.db"
	}

	blemapDir := filepath.Join(home, ".blemap")
	if err := os.MkdirAll(blemapDir, 0755); err != nil {
		log.Printf("Warning: Could not create .blemap directory, using current dir: %v", err)
		return "blemap.db"
	}

	return filepath.Join(blemapDir, "blemap.db")
}
