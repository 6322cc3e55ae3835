// Package pagination provides page requests and results for list queries.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Config bounds the page sizes a caller may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// Env names the variables that override Config fields.
type Env struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies env overrides and defaults. A default larger than the
// maximum is clamped to it. Negative sizes are rejected.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}
	if c.DefaultPageSize < 0 || c.MaxPageSize < 0 {
		return fmt.Errorf("pagination: page sizes must not be negative (default %d, max %d)",
			c.DefaultPageSize, c.MaxPageSize)
	}
	*c = c.resolved()
	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

// resolved returns c with unset sizes defaulted and the default page size
// no larger than the maximum.
func (c Config) resolved() Config {
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = maxPageSize
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	c.DefaultPageSize = min(c.DefaultPageSize, c.MaxPageSize)
	return c
}

func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}
