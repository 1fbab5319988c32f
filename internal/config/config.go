package config

import (
	"os"
	"strconv"
	"time"

	"cyclewise/domain/hypothesis"
	"cyclewise/internal/errors"
)

// Config represents the complete engine configuration. Every tunable
// threshold lives here and is passed into constructors explicitly; there
// are no process-wide singletons holding tunables.
type Config struct {
	Database   DatabaseConfig
	Detector   DetectorConfig
	Confidence ConfidenceConfig
	Lifecycle  LifecycleConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	Driver  string
	SSLMode string
}

// DetectorConfig holds pattern detection thresholds
type DetectorConfig struct {
	MinOccurrences      int           // distinct contiguous occurrences per category
	MinObsPerOccurrence int           // observations per occurrence
	Alpha               float64       // significance level before correction
	PracticalFoldFloor  float64       // observed/baseline floor for practical significance
	ThemeBaseline       float64       // similarity under random category/text pairing
	MinTrendSlope       float64       // minimum |slope| per year for a trend
	MaxConfidence       float64       // cap on 1-p confidence
	TimeBudget          time.Duration // wall-clock budget; zero means unbounded
}

// ConfidenceConfig holds calculator tunables
type ConfidenceConfig struct {
	Prior           float64 // base confidence with zero evidence
	EvidenceScale   float64 // multiplier on the weighted evidence sum
	HalfLifeDays    float64 // recency decay half-life
	RecencyFloor    float64 // minimum recency factor for old evidence
	DiminishingRate float64 // per-index saturation rate
}

// LifecycleConfig holds state machine tunables
type LifecycleConfig struct {
	Bands          hypothesis.Bands
	StaleWindowDays int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:   loadDatabaseConfig(),
		Detector:   loadDetectorConfig(),
		Confidence: loadConfidenceConfig(),
		Lifecycle:  loadLifecycleConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Default returns the built-in configuration without consulting the
// environment. Used by tests and the CLI's dry-run mode.
func Default() *Config {
	return &Config{
		Database:   DatabaseConfig{Driver: "postgres", SSLMode: "disable"},
		Detector:   defaultDetectorConfig(),
		Confidence: defaultConfidenceConfig(),
		Lifecycle:  defaultLifecycleConfig(),
	}
}

func defaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MinOccurrences:      3,
		MinObsPerOccurrence: 5,
		Alpha:               0.05,
		PracticalFoldFloor:  1.5,
		ThemeBaseline:       0.30,
		MinTrendSlope:       0.1,
		MaxConfidence:       0.99,
	}
}

func defaultConfidenceConfig() ConfidenceConfig {
	return ConfidenceConfig{
		Prior:           0.20,
		EvidenceScale:   0.15,
		HalfLifeDays:    30,
		RecencyFloor:    0.1,
		DiminishingRate: 0.1,
	}
}

func defaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		Bands:           hypothesis.DefaultBands(),
		StaleWindowDays: 60,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		Driver:  getEnvOrDefault("DB_DRIVER", "postgres"),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadDetectorConfig() DetectorConfig {
	d := defaultDetectorConfig()
	d.MinOccurrences = getEnvIntOrDefault("DETECT_MIN_OCCURRENCES", d.MinOccurrences)
	d.MinObsPerOccurrence = getEnvIntOrDefault("DETECT_MIN_OBS_PER_OCCURRENCE", d.MinObsPerOccurrence)
	d.Alpha = getEnvFloatOrDefault("DETECT_ALPHA", d.Alpha)
	d.PracticalFoldFloor = getEnvFloatOrDefault("DETECT_FOLD_FLOOR", d.PracticalFoldFloor)
	d.ThemeBaseline = getEnvFloatOrDefault("DETECT_THEME_BASELINE", d.ThemeBaseline)
	d.MinTrendSlope = getEnvFloatOrDefault("DETECT_MIN_TREND_SLOPE", d.MinTrendSlope)
	d.TimeBudget = getEnvDurationOrDefault("DETECT_TIME_BUDGET", d.TimeBudget)
	return d
}

func loadConfidenceConfig() ConfidenceConfig {
	c := defaultConfidenceConfig()
	c.HalfLifeDays = getEnvFloatOrDefault("CONFIDENCE_HALF_LIFE_DAYS", c.HalfLifeDays)
	return c
}

func loadLifecycleConfig() LifecycleConfig {
	l := defaultLifecycleConfig()
	l.StaleWindowDays = getEnvIntOrDefault("STALE_WINDOW_DAYS", l.StaleWindowDays)
	l.Bands.RejectionFloor = getEnvFloatOrDefault("REJECTION_FLOOR", l.Bands.RejectionFloor)
	return l
}

// Validate checks threshold sanity
func (c *Config) Validate() error {
	if c.Detector.MinOccurrences < 1 {
		return errors.ConfigInvalid("minimum occurrences must be at least 1")
	}
	if c.Detector.MinObsPerOccurrence < 1 {
		return errors.ConfigInvalid("minimum observations per occurrence must be at least 1")
	}
	if c.Detector.Alpha <= 0 || c.Detector.Alpha >= 1 {
		return errors.ConfigInvalid("alpha must be in (0, 1)")
	}
	if c.Detector.PracticalFoldFloor < 1 {
		return errors.ConfigInvalid("practical fold floor must be at least 1")
	}
	if c.Confidence.HalfLifeDays <= 0 {
		return errors.ConfigInvalid("half life must be positive")
	}
	if c.Lifecycle.StaleWindowDays < 1 {
		return errors.ConfigInvalid("stale window must be at least 1 day")
	}
	if err := c.Lifecycle.Bands.Validate(); err != nil {
		return errors.Wrap(err, "invalid lifecycle bands")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
