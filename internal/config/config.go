// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (WARDEN_*, runtime override)
//  2. Config file (~/.warden/config.yaml)
//  3. Default values
//
// Validation uses sentinel errors checked with errors.Is and runs once at
// startup: a misconfigured process refuses to start instead of failing per
// request.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidRateLimit indicates a non-positive rate limit budget.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidRateWindow indicates a non-positive rate limit window.
	ErrInvalidRateWindow = errors.New("invalid rate limit window")

	// ErrInvalidHashWorkers indicates a negative hash worker count.
	ErrInvalidHashWorkers = errors.New("invalid hash workers")

	// ErrInvalidTimeout indicates a non-positive validator timeout.
	ErrInvalidTimeout = errors.New("invalid validator timeout")

	// ErrInvalidOutputDir indicates an empty report output directory.
	ErrInvalidOutputDir = errors.New("invalid output directory")

	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidS3Config indicates a prefix configured without a bucket.
	ErrInvalidS3Config = errors.New("invalid S3 sink configuration")
)

// Defaults.
const (
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = time.Minute
	DefaultValidatorTimeout  = 30 * time.Second
	DefaultOutputDir         = "./security-reports"
)

// Gateway holds the request gateway settings.
type Gateway struct {
	RequireHTTPS      bool          `mapstructure:"require_https"`
	TrustProxy        bool          `mapstructure:"trust_proxy"`
	StrictMode        bool          `mapstructure:"strict_mode"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	CSRFHeader        string        `mapstructure:"csrf_header"`
	CSRFField         string        `mapstructure:"csrf_field"`
	CSRFQuery         string        `mapstructure:"csrf_query"`
}

// Vault holds the credential vault settings.
type Vault struct {
	// HashWorkers bounds concurrent scrypt derivations. 0 = GOMAXPROCS.
	HashWorkers int `mapstructure:"hash_workers"`
}

// Review holds the review engine settings.
type Review struct {
	OutputDir        string        `mapstructure:"output_dir"`
	ValidatorTimeout time.Duration `mapstructure:"validator_timeout"`

	// S3Bucket enables the S3 report sink in addition to local files.
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

// Config is the root application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`

	Gateway Gateway `mapstructure:"gateway"`
	Vault   Vault   `mapstructure:"vault"`
	Review  Review  `mapstructure:"review"`
}

// Load reads configuration from defaults, the optional config file, and
// WARDEN_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WARDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".warden"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; everything has a default.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)

	v.SetDefault("gateway.require_https", true)
	v.SetDefault("gateway.trust_proxy", false)
	v.SetDefault("gateway.strict_mode", true)
	v.SetDefault("gateway.rate_limit_requests", DefaultRateLimitRequests)
	v.SetDefault("gateway.rate_limit_window", DefaultRateLimitWindow)
	v.SetDefault("gateway.csrf_header", "X-CSRF-Token")
	v.SetDefault("gateway.csrf_field", "csrf_token")
	v.SetDefault("gateway.csrf_query", "csrf_token")

	v.SetDefault("vault.hash_workers", 0)

	v.SetDefault("review.output_dir", DefaultOutputDir)
	v.SetDefault("review.validator_timeout", DefaultValidatorTimeout)
	v.SetDefault("review.s3_bucket", "")
	v.SetDefault("review.s3_prefix", "")
}

// SlogLevel maps the configured level name to a slog.Level. Call Validate
// first; unknown names fall back to info here.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
