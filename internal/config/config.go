// Package config loads service and CLI settings from defaults, an optional
// YAML file and PDFCHUNK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/dgallion1/pdfchunk/internal/cache"
	"github.com/dgallion1/pdfchunk/internal/errs"
	"github.com/dgallion1/pdfchunk/internal/jobs"
	"github.com/dgallion1/pdfchunk/internal/parser"
	"github.com/dgallion1/pdfchunk/internal/pipeline"
)

type Config struct {
	LogLevel string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

type PipelineConfig struct {
	OverlapFraction    float64 `mapstructure:"overlap_fraction" validate:"gte=0,lte=1"`
	ExtractTables      bool    `mapstructure:"extract_tables"`
	Workers            int     `mapstructure:"workers" validate:"gte=0"`
	LineBreakThreshold float64 `mapstructure:"line_break_threshold" validate:"gte=0"`
	RowMergeDistance   float64 `mapstructure:"row_merge_distance" validate:"gt=0"`
	MultiPageRatio     float64 `mapstructure:"multi_page_ratio" validate:"gt=0,lte=1"`
	RunBreakRatio      float64 `mapstructure:"run_break_ratio" validate:"gt=0"`
	RunSpaceRatio      float64 `mapstructure:"run_space_ratio" validate:"gt=0,ltefield=RunBreakRatio"`
	Preflight          bool    `mapstructure:"preflight"`
}

type CacheConfig struct {
	Backend         string        `mapstructure:"backend" validate:"oneof=none memory file redis pathstore"`
	Dir             string        `mapstructure:"dir" validate:"required_if=Backend file"`
	RedisURL        string        `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	RedisPrefix     string        `mapstructure:"redis_prefix"`
	PathstoreURL    string        `mapstructure:"pathstore_url" validate:"required_if=Backend pathstore"`
	PathstoreAPIKey string        `mapstructure:"pathstore_api_key"`
	PathstorePrefix string        `mapstructure:"pathstore_prefix"`
	TTL             time.Duration `mapstructure:"ttl" validate:"gte=0"`
	RetryAttempts   uint          `mapstructure:"retry_attempts" validate:"gte=1"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port" validate:"required,numeric"`
	APIKey         string        `mapstructure:"api_key"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
}

type JobsConfig struct {
	Workers   int           `mapstructure:"workers" validate:"gt=0"`
	QueueSize int           `mapstructure:"queue_size" validate:"gt=0"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

const EnvPrefix = "PDFCHUNK"

var defaults = map[string]any{
	"log_level": "info",

	"pipeline.overlap_fraction":     0.2,
	"pipeline.extract_tables":       true,
	"pipeline.workers":              0,
	"pipeline.line_break_threshold": 5.0,
	"pipeline.row_merge_distance":   20.0,
	"pipeline.multi_page_ratio":     0.9,
	"pipeline.run_break_ratio":      1.0,
	"pipeline.run_space_ratio":      0.3,
	"pipeline.preflight":            true,

	"cache.backend":           "none",
	"cache.dir":               "./cached_pdfs",
	"cache.redis_url":         "",
	"cache.redis_prefix":      "pdfchunk:chunks:",
	"cache.pathstore_url":     "",
	"cache.pathstore_api_key": "",
	"cache.pathstore_prefix":  "pdfchunk/chunks",
	"cache.ttl":               "0s",
	"cache.retry_attempts":    3,
	"cache.retry_delay":       "200ms",

	"server.port":             "8090",
	"server.api_key":          "",
	"server.max_upload_bytes": 52428800, // 50MB
	"server.request_timeout":  "2m",

	"jobs.workers":    4,
	"jobs.queue_size": 100,
	"jobs.ttl":        "1h",
}

// Load reads defaults, then cfgFile (if non-empty), then the environment,
// then overrides (typically CLI flags), and validates the result.
func Load(cfgFile string, overrides map[string]any) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &errs.ConfigurationError{Field: "config", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate reports the first violated constraint as a ConfigurationError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &errs.ConfigurationError{
			Field:  fe.Namespace(),
			Reason: fmt.Sprintf("failed %s (got %v)", reason, fe.Value()),
		}
	}
	return &errs.ConfigurationError{Field: "config", Reason: err.Error()}
}

// PipelineOptions maps the pipeline section onto chunker options.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		OverlapFraction:    c.Pipeline.OverlapFraction,
		Workers:            c.Pipeline.Workers,
		LineBreakThreshold: c.Pipeline.LineBreakThreshold,
		RowMergeDistance:   c.Pipeline.RowMergeDistance,
		MultiPageRatio:     c.Pipeline.MultiPageRatio,
	}
}

// RunOptions maps the glyph merging ratios onto decoder options.
func (c Config) RunOptions() parser.RunOptions {
	opts := parser.DefaultRunOptions()
	opts.BreakRatio = c.Pipeline.RunBreakRatio
	opts.SpaceRatio = c.Pipeline.RunSpaceRatio
	return opts
}

// CacheOptions picks the prefix that belongs to the selected backend.
func (c Config) CacheOptions() cache.Options {
	prefix := c.Cache.RedisPrefix
	if c.Cache.Backend == cache.BackendPathstore {
		prefix = c.Cache.PathstorePrefix
	}
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           c.Cache.Dir,
		RedisURL:      c.Cache.RedisURL,
		Prefix:        prefix,
		TTL:           c.Cache.TTL,
		PathstoreURL:  c.Cache.PathstoreURL,
		PathstoreKey:  c.Cache.PathstoreAPIKey,
		RetryAttempts: c.Cache.RetryAttempts,
		RetryDelay:    c.Cache.RetryDelay,
	}
}

func (c Config) JobOptions() jobs.Options {
	return jobs.Options{
		Workers:   c.Jobs.Workers,
		QueueSize: c.Jobs.QueueSize,
		JobTTL:    c.Jobs.TTL,
	}
}
