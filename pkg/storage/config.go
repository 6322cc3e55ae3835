package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Backend names a blob storage implementation.
type Backend string

const (
	BackendAzure Backend = "azure"
	BackendS3    Backend = "s3"
)

// Config holds blob storage connection parameters for either backend.
type Config struct {
	Backend       Backend  `toml:"backend"`
	ContainerName string   `toml:"container_name"`
	PublicBaseURL string   `toml:"public_base_url"`
	Azure         AzureCfg `toml:"azure"`
	S3            S3Cfg    `toml:"s3"`
}

// AzureCfg holds Azure Blob Storage settings.
type AzureCfg struct {
	ConnectionString string `toml:"connection_string"`
}

// S3Cfg holds settings for AWS S3 or an S3-compatible endpoint.
type S3Cfg struct {
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend          string
	ContainerName    string
	PublicBaseURL    string
	ConnectionString string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3UsePathStyle   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.PublicBaseURL != "" {
		c.PublicBaseURL = overlay.PublicBaseURL
	}
	if overlay.Azure.ConnectionString != "" {
		c.Azure.ConnectionString = overlay.Azure.ConnectionString
	}
	if overlay.S3.Region != "" {
		c.S3.Region = overlay.S3.Region
	}
	if overlay.S3.Endpoint != "" {
		c.S3.Endpoint = overlay.S3.Endpoint
	}
	if overlay.S3.AccessKey != "" {
		c.S3.AccessKey = overlay.S3.AccessKey
	}
	if overlay.S3.SecretKey != "" {
		c.S3.SecretKey = overlay.S3.SecretKey
	}
	if overlay.S3.UsePathStyle {
		c.S3.UsePathStyle = true
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "scribe-media"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

func (c *Config) loadEnv(env *Env) {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	var backend string
	str(env.Backend, &backend)
	if backend != "" {
		c.Backend = Backend(backend)
	}
	str(env.ContainerName, &c.ContainerName)
	str(env.PublicBaseURL, &c.PublicBaseURL)
	str(env.ConnectionString, &c.Azure.ConnectionString)
	str(env.S3Region, &c.S3.Region)
	str(env.S3Endpoint, &c.S3.Endpoint)
	str(env.S3AccessKey, &c.S3.AccessKey)
	str(env.S3SecretKey, &c.S3.SecretKey)
	if env.S3UsePathStyle != "" {
		if v := os.Getenv(env.S3UsePathStyle); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.S3.UsePathStyle = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	switch c.Backend {
	case BackendAzure:
		if c.Azure.ConnectionString == "" {
			return fmt.Errorf("azure.connection_string required")
		}
	case BackendS3:
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			return fmt.Errorf("s3.access_key and s3.secret_key must be set together")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}
