package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"freight/internal/adapters/out/carriers"
	"freight/internal/adapters/out/carriers/gss"
	"freight/internal/adapters/out/carriers/nzpost"
	"freight/internal/core/application/usecases/commands"
	"freight/internal/core/domain/services"
	"freight/internal/jobs"
	"freight/internal/pkg/resilience"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	LogLevel   slog.Level

	NZPostBaseURL          string
	GSSBaseURL             string
	CarrierTimeout         time.Duration
	CarrierRetries         int
	CarrierCredentialsFile string

	DefaultUnitWeightG        int
	DefaultContainerCapacityG int
	Allocator                 services.AllocatorOptions

	Jobs jobs.Config
}

// LookupFunc reads one setting; ok is false when it is not set at all.
type LookupFunc func(key string) (value string, ok bool)

// LoadConfig reads the settings through lookup and fills in defaults for
// anything unset. A job schedule that is set but empty disables the job.
func LoadConfig(lookup LookupFunc) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		HTTPPort:               r.str("HTTP_PORT", "8080"),
		DBHost:                 r.str("DB_HOST", "localhost"),
		DBPort:                 r.str("DB_PORT", "5432"),
		DBUser:                 r.str("DB_USER", "postgres"),
		DBPassword:             r.str("DB_PASSWORD", ""),
		DBName:                 r.str("DB_NAME", "freight"),
		DBSslMode:              r.str("DB_SSLMODE", "disable"),
		LogLevel:               r.level("LOG_LEVEL", slog.LevelInfo),
		NZPostBaseURL:          r.str("NZPOST_BASE_URL", nzpost.DefaultBaseURL),
		GSSBaseURL:             r.str("GSS_BASE_URL", gss.DefaultBaseURL),
		CarrierTimeout:         r.duration("CARRIER_TIMEOUT", carriers.DefaultTimeout),
		CarrierRetries:         r.integer("CARRIER_RETRIES", resilience.DefaultRetries),
		CarrierCredentialsFile: r.str("CARRIER_CREDENTIALS_FILE", ""),

		DefaultUnitWeightG:        r.integer("DEFAULT_UNIT_WEIGHT_G", services.DefaultUnitWeightG),
		DefaultContainerCapacityG: r.integer("DEFAULT_CONTAINER_CAPACITY_G", commands.DefaultSyncedCapacityG),
	}

	defaults := services.DefaultAllocatorOptions()
	cfg.Allocator = defaults
	cfg.Allocator.MaxItemsPerBox = r.integer("ALLOCATOR_MAX_ITEMS_PER_BOX", defaults.MaxItemsPerBox)
	cfg.Allocator.FragileSeparation = r.boolean("ALLOCATOR_FRAGILE_SEPARATION", defaults.FragileSeparation)
	cfg.Allocator.Consolidate = r.boolean("ALLOCATOR_CONSOLIDATE", defaults.Consolidate)

	jobDefaults := jobs.DefaultConfig()
	cfg.Jobs = jobs.Config{
		ProductSyncSchedule:      r.schedule("PRODUCT_SYNC_SCHEDULE", jobDefaults.ProductSyncSchedule),
		IdempotencyPurgeSchedule: r.schedule("IDEMPOTENCY_PURGE_SCHEDULE", jobDefaults.IdempotencyPurgeSchedule),
		IdempotencyRetention:     r.duration("IDEMPOTENCY_RETENTION", jobDefaults.IdempotencyRetention),
		RunTimeout:               r.duration("JOB_TIMEOUT", jobDefaults.RunTimeout),
	}

	if r.err != nil {
		return Config{}, r.err
	}
	if cfg.CarrierRetries < 0 {
		return Config{}, fmt.Errorf("CARRIER_RETRIES must not be negative, got %d", cfg.CarrierRetries)
	}
	if cfg.DefaultUnitWeightG <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_UNIT_WEIGHT_G must be positive, got %d", cfg.DefaultUnitWeightG)
	}
	return cfg, nil
}

// DSN is the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// Retry is the carrier retry policy with the configured retry count.
func (c Config) Retry() resilience.RetryConfig {
	retry := resilience.DefaultRetryConfig()
	retry.Retries = c.CarrierRetries
	return retry
}

type reader struct {
	lookup LookupFunc
	err    error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *reader) str(key, def string) string {
	v, ok := r.raw(key)
	if !ok || v == "" {
		return def
	}
	return v
}

func (r *reader) schedule(key, def string) string {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	return v
}

func (r *reader) integer(key string, def int) int {
	v, ok := r.raw(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v, ok := r.raw(key)
	if !ok || v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, err)
		return def
	}
	return l
}

func (r *reader) fail(key string, err error) {
	r.err = errors.Join(r.err, fmt.Errorf("invalid %s: %w", key, err))
}
