package config

import (
	"fmt"
	"slices"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks configuration values and returns sentinel errors usable
// with errors.Is. Called once at startup; failures are fatal.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidLogLevel, c.LogLevel, validLogLevels)
	}

	if c.Gateway.RateLimitRequests <= 0 {
		return fmt.Errorf("%w: rate_limit_requests must be positive, got %d",
			ErrInvalidRateLimit, c.Gateway.RateLimitRequests)
	}
	if c.Gateway.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: rate_limit_window must be positive, got %s",
			ErrInvalidRateWindow, c.Gateway.RateLimitWindow)
	}

	if c.Vault.HashWorkers < 0 {
		return fmt.Errorf("%w: hash_workers must not be negative, got %d",
			ErrInvalidHashWorkers, c.Vault.HashWorkers)
	}

	if c.Review.ValidatorTimeout <= 0 {
		return fmt.Errorf("%w: validator_timeout must be positive, got %s",
			ErrInvalidTimeout, c.Review.ValidatorTimeout)
	}
	if c.Review.OutputDir == "" {
		return fmt.Errorf("%w: output_dir cannot be empty", ErrInvalidOutputDir)
	}
	if c.Review.S3Prefix != "" && c.Review.S3Bucket == "" {
		return fmt.Errorf("%w: s3_prefix is set but s3_bucket is empty", ErrInvalidS3Config)
	}

	return nil
}
