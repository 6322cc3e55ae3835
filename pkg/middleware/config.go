package middleware

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
)

var (
	defaultMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Content-Type", "Authorization", "X-Account-ID", "X-User-ID"}
)

// CORSConfig is the cross-origin policy applied by CORS.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the variables that override CORSConfig fields.
// List variables are comma separated.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize fills defaults, applies env overrides, normalizes the lists
// and validates the result.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	if env != nil {
		c.applyEnv(env)
	}

	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = defaultMethods
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = defaultHeaders
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}

	c.AllowedMethods = normalize(c.AllowedMethods, strings.ToUpper)
	c.AllowedHeaders = normalize(c.AllowedHeaders, strings.TrimSpace)

	if !c.Enabled {
		return nil
	}
	if len(c.Origins) == 0 {
		return errors.New("cors: enabled without origins")
	}
	if c.AllowCredentials && slices.Contains(c.Origins, "*") {
		return errors.New("cors: wildcard origin cannot allow credentials")
	}
	return nil
}

// Merge takes the overlay's booleans unconditionally and its lists and
// max age when set.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.AllowedMethods != nil {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if overlay.AllowedHeaders != nil {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) applyEnv(env *CORSEnv) {
	if b, ok := lookupBool(env.Enabled); ok {
		c.Enabled = b
	}
	if b, ok := lookupBool(env.AllowCredentials); ok {
		c.AllowCredentials = b
	}
	if list := lookupList(env.Origins); list != nil {
		c.Origins = list
	}
	if list := lookupList(env.AllowedMethods); list != nil {
		c.AllowedMethods = list
	}
	if list := lookupList(env.AllowedHeaders); list != nil {
		c.AllowedHeaders = list
	}
	if v := lookup(env.MaxAge); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAge = n
		}
	}
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func lookupBool(name string) (bool, bool) {
	b, err := strconv.ParseBool(lookup(name))
	return b, err == nil
}

func lookupList(name string) []string {
	v := lookup(name)
	if v == "" {
		return nil
	}
	return normalize(strings.Split(v, ","), strings.TrimSpace)
}

// normalize maps, trims and deduplicates values, keeping first-seen order.
func normalize(values []string, fn func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = fn(strings.TrimSpace(v))
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
