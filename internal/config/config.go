package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	AuditWorkerCount int
	AuditQueueSize   int

	// Scheduler tuning. AbilityBaseline is the population-average ability;
	// AbilityWeight controls how strongly the ability gap scales intervals.
	AbilityBaseline  float64
	AbilityWeight    float64
	AbilityScaleMin  float64
	AbilityScaleMax  float64
	EasyBonus        float64
	HardPenalty      float64

	// Retention tuning.
	MinObservations  int
	TargetRetention  float64
	UrgencyTolerance float64
	CurveStaleHours  int
	CurveRefreshCron string

	// Trigger detector tuning. Accuracy values are fractions in [0,1].
	WindowSize        int
	MildAccuracy      float64
	ModerateAccuracy  float64
	SevereStreak      int
	TrendDelta        float64

	// Plan adjustment limits.
	MaxAdjustmentsPerDay int
	CooldownMinutes      int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:     envOr("ADDR", ":8080"),
		DBPath:   envOr("DB_PATH", "file:reviewloop.db"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		AuditWorkerCount: envIntOr("AUDIT_WORKER_COUNT", 2),
		AuditQueueSize:   envIntOr("AUDIT_QUEUE_SIZE", 64),

		AbilityBaseline: envFloatOr("ABILITY_BASELINE", 0.0),
		AbilityWeight:   envFloatOr("ABILITY_WEIGHT", 0.1),
		AbilityScaleMin: envFloatOr("ABILITY_SCALE_MIN", 0.7),
		AbilityScaleMax: envFloatOr("ABILITY_SCALE_MAX", 1.5),
		EasyBonus:       envFloatOr("EASY_BONUS", 1.3),
		HardPenalty:     envFloatOr("HARD_PENALTY", 0.8),

		MinObservations:  envIntOr("MIN_OBSERVATIONS", 5),
		TargetRetention:  envFloatOr("TARGET_RETENTION", 0.85),
		UrgencyTolerance: envFloatOr("URGENCY_TOLERANCE", 0.15),
		CurveStaleHours:  envIntOr("CURVE_STALE_HOURS", 24),
		CurveRefreshCron: envOr("CURVE_REFRESH_CRON", "0 3 * * *"),

		WindowSize:       envIntOr("WINDOW_SIZE", 5),
		MildAccuracy:     envFloatOr("MILD_ACCURACY", 0.6),
		ModerateAccuracy: envFloatOr("MODERATE_ACCURACY", 0.4),
		SevereStreak:     envIntOr("SEVERE_STREAK", 5),
		TrendDelta:       envFloatOr("TREND_DELTA", 0.2),

		MaxAdjustmentsPerDay: envIntOr("MAX_ADJUSTMENTS_PER_DAY", 3),
		CooldownMinutes:      envIntOr("COOLDOWN_MINUTES", 60),
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.AuditWorkerCount < 1 {
		return fmt.Errorf("AUDIT_WORKER_COUNT must be at least 1, got %d", c.AuditWorkerCount)
	}
	if c.AuditQueueSize < 1 {
		return fmt.Errorf("AUDIT_QUEUE_SIZE must be at least 1, got %d", c.AuditQueueSize)
	}
	if c.AbilityScaleMin <= 0 || c.AbilityScaleMin > c.AbilityScaleMax {
		return fmt.Errorf("ABILITY_SCALE_MIN must be positive and at most ABILITY_SCALE_MAX")
	}
	if c.MinObservations < 1 {
		return fmt.Errorf("MIN_OBSERVATIONS must be at least 1, got %d", c.MinObservations)
	}
	if c.TargetRetention <= 0 || c.TargetRetention >= 1 {
		return fmt.Errorf("TARGET_RETENTION must be between 0 and 1 exclusive, got %g", c.TargetRetention)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("WINDOW_SIZE must be at least 1, got %d", c.WindowSize)
	}
	if c.ModerateAccuracy > c.MildAccuracy {
		return fmt.Errorf("MODERATE_ACCURACY (%g) cannot exceed MILD_ACCURACY (%g)", c.ModerateAccuracy, c.MildAccuracy)
	}
	if c.SevereStreak < 1 {
		return fmt.Errorf("SEVERE_STREAK must be at least 1, got %d", c.SevereStreak)
	}
	if c.MaxAdjustmentsPerDay < 1 {
		return fmt.Errorf("MAX_ADJUSTMENTS_PER_DAY must be at least 1, got %d", c.MaxAdjustmentsPerDay)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}
