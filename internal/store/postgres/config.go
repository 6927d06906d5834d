package postgres

import (
	"fmt"
)

// Config holds configuration for the PostgreSQL stores.
type Config struct {
	Pool PoolConfig

	// AutoMigrate applies the embedded schema migrations on startup.
	AutoMigrate bool

	// QueryTimeoutSeconds bounds each statement in addition to the request context.
	// Default: 10 seconds
	// Set to a negative value to rely on context deadlines only
	QueryTimeoutSeconds int32
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("invalid pool config: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	c.Pool.ApplyDefaults()

	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = 10
	}
}
