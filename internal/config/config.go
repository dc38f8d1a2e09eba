// Package config loads worker configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "LOCALWIRE_CONFIG"

// Config holds all worker settings.
type Config struct {
	Collection     CollectionConfig     `yaml:"collection"`
	Classification ClassificationConfig `yaml:"classification"`
	Matcher        MatcherConfig        `yaml:"matcher"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

// CollectionConfig controls the collection pass.
type CollectionConfig struct {
	// Schedule is a cron expression for collection runs.
	Schedule string `yaml:"schedule"`
	// PoolSize bounds concurrent source collections.
	PoolSize int `yaml:"poolSize"`
	// HTTPTimeout bounds each outbound fetch.
	HTTPTimeout Duration `yaml:"httpTimeout"`
	// RenderScript is the headless renderer binary; empty uses PATH.
	RenderScript string `yaml:"renderScript"`
	// RenderTimeout is the hard limit for one render.
	RenderTimeout Duration `yaml:"renderTimeout"`
}

// ClassificationConfig controls the classification pass.
type ClassificationConfig struct {
	// Schedule is a cron expression for classification runs.
	Schedule string `yaml:"schedule"`
	// PoolSize bounds concurrent AI calls.
	PoolSize int `yaml:"poolSize"`
	// BatchSize bounds items drained per run.
	BatchSize int `yaml:"batchSize"`
	// RequestsPerMinute rate-limits AI calls. Zero disables limiting.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// MatcherConfig controls business matching.
type MatcherConfig struct {
	// CandidateCacheTTL bounds staleness of the cached candidate sets.
	CandidateCacheTTL Duration `yaml:"candidateCacheTTL"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func defaultConfig() Config {
	return Config{
		Collection: CollectionConfig{
			Schedule:      "*/15 * * * *",
			PoolSize:      5,
			HTTPTimeout:   Duration(30 * time.Second),
			RenderTimeout: Duration(90 * time.Second),
		},
		Classification: ClassificationConfig{
			Schedule:          "*/5 * * * *",
			PoolSize:          3,
			BatchSize:         50,
			RequestsPerMinute: 30,
		},
		Matcher: MatcherConfig{
			CandidateCacheTTL: Duration(time.Hour),
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads YAML configuration from LOCALWIRE_CONFIG (if set) and applies
// environment overrides. Unreadable or malformed files fall back to
// defaults with a warning.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			slog.Warn("cannot read config file, using defaults",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			cfg = defaultConfig()
			slog.Warn("cannot parse config file, using defaults",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	cfg.applyEnvOverrides()
	cfg.clampDefaults()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.Collection.Schedule, "COLLECTION_SCHEDULE")
	overrideInt(&c.Collection.PoolSize, "COLLECTION_POOL_SIZE")
	overrideDuration(&c.Collection.HTTPTimeout, "COLLECTION_HTTP_TIMEOUT")
	overrideString(&c.Collection.RenderScript, "RENDER_SCRIPT")
	overrideDuration(&c.Collection.RenderTimeout, "RENDER_TIMEOUT")

	overrideString(&c.Classification.Schedule, "CLASSIFICATION_SCHEDULE")
	overrideInt(&c.Classification.PoolSize, "CLASSIFICATION_POOL_SIZE")
	overrideInt(&c.Classification.BatchSize, "CLASSIFICATION_BATCH_SIZE")
	overrideInt(&c.Classification.RequestsPerMinute, "CLASSIFICATION_RPM")

	overrideDuration(&c.Matcher.CandidateCacheTTL, "MATCHER_CACHE_TTL")

	overrideString(&c.Metrics.Addr, "METRICS_ADDR")
}

// clampDefaults replaces zeroed-out values that would stall the pipeline.
func (c *Config) clampDefaults() {
	def := defaultConfig()
	if c.Collection.Schedule == "" {
		c.Collection.Schedule = def.Collection.Schedule
	}
	if c.Collection.PoolSize <= 0 {
		c.Collection.PoolSize = def.Collection.PoolSize
	}
	if c.Collection.HTTPTimeout <= 0 {
		c.Collection.HTTPTimeout = def.Collection.HTTPTimeout
	}
	if c.Classification.Schedule == "" {
		c.Classification.Schedule = def.Classification.Schedule
	}
	if c.Classification.PoolSize <= 0 {
		c.Classification.PoolSize = def.Classification.PoolSize
	}
	if c.Classification.BatchSize <= 0 {
		c.Classification.BatchSize = def.Classification.BatchSize
	}
	if c.Matcher.CandidateCacheTTL <= 0 {
		c.Matcher.CandidateCacheTTL = def.Matcher.CandidateCacheTTL
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = def.Metrics.Addr
	}
}

func overrideString(target *string, env string) {
	if v := os.Getenv(env); v != "" {
		*target = v
	}
}

func overrideInt(target *int, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env override ignored",
			slog.String("env", env), slog.String("value", v))
		return
	}
	*target = parsed
}

func overrideDuration(target *Duration, env string) {
	v := os.Getenv(env)
	if v == "" {
		return
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env override ignored",
			slog.String("env", env), slog.String("value", v))
		return
	}
	*target = Duration(parsed)
}
