package pool

import (
	"time"

	"github.com/onyx-go/dbkit/internal/errors"
)

// Config enumerates the pool's tunables per §4.E, each with the effect
// documented there.
type Config struct {
	MinConnections int
	MaxConnections int

	AcquireTimeout      time.Duration
	IdleTimeout         time.Duration // zero means disabled
	MaxLifetime         time.Duration // zero means disabled
	HealthCheckInterval time.Duration

	TestOnCheckout bool
	TestOnCheckin  bool

	ConnectionString string
	ApplicationName  string
}

// DefaultConfig returns sane defaults matching the teacher's
// database_config.go dialect-tuned pool defaults, generalized across
// dialects (callers override MaxConnections/ConnectionString per adapter).
func DefaultConfig() Config {
	return Config{
		MinConnections:      1,
		MaxConnections:      10,
		AcquireTimeout:      30 * time.Second,
		IdleTimeout:         10 * time.Minute,
		MaxLifetime:         time.Hour,
		HealthCheckInterval: time.Minute,
		TestOnCheckout:      true,
		TestOnCheckin:       false,
	}
}

// Validate enforces the ranges a Config must satisfy before a Pool can be
// constructed from it.
func (c Config) Validate() error {
	if c.MaxConnections <= 0 {
		return &errors.ConfigError{Kind: errors.ConfigInvalidRange, Field: "MaxConnections", Detail: "must be > 0"}
	}
	if c.MinConnections < 0 {
		return &errors.ConfigError{Kind: errors.ConfigInvalidRange, Field: "MinConnections", Detail: "must be >= 0"}
	}
	if c.MinConnections > c.MaxConnections {
		return &errors.ConfigError{Kind: errors.ConfigInvalidRange, Field: "MinConnections", Detail: "must be <= MaxConnections"}
	}
	if c.AcquireTimeout <= 0 {
		return &errors.ConfigError{Kind: errors.ConfigInvalidRange, Field: "AcquireTimeout", Detail: "must be > 0"}
	}
	if c.HealthCheckInterval <= 0 {
		return &errors.ConfigError{Kind: errors.ConfigInvalidRange, Field: "HealthCheckInterval", Detail: "must be > 0"}
	}
	return nil
}
