// Package config loads docvault configuration from defaults, the project
// config file, and environment variables, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docvault/docvault/internal/errors"
)

// ConfigFileName is the project configuration file.
const ConfigFileName = ".docvault.yaml"

// Backend type names accepted by storage configuration.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
	BackendHybrid = "hybrid"
)

// Config is the complete docvault configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Retry   RetryConfig   `yaml:"retry" json:"retry"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	// Type is the backend: local, remote, or hybrid.
	Type string `yaml:"type" json:"type"`

	// Root is the local filesystem root. Required for local and hybrid.
	Root string `yaml:"root" json:"root"`

	// DataPrefix is the subdirectory holding raw snapshots.
	DataPrefix string `yaml:"data_prefix" json:"data_prefix"`

	// IndexPrefix is the subdirectory holding derived artifacts.
	IndexPrefix string `yaml:"index_prefix" json:"index_prefix"`

	Remote RemoteConfig `yaml:"remote" json:"remote"`
}

// RemoteConfig parameterizes the object store backend.
// Required for remote and hybrid.
type RemoteConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// RetryConfig tunes remote operation retries.
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	// File is the log file path; empty selects the default under
	// ~/.docvault/logs.
	File string `yaml:"file" json:"file"`
	// Stderr mirrors log output to stderr.
	Stderr bool `yaml:"stderr" json:"stderr"`
}

// NewConfig returns the configuration defaults.
func NewConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Type:        BackendLocal,
			Root:        "data",
			DataPrefix:  "raw",
			IndexPrefix: "indexes",
			Remote: RemoteConfig{
				UseSSL: true,
			},
		},
		Retry: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     8 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration for a project directory:
// defaults, then the project file, then DOCVAULT_* environment overrides,
// then validation.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile merges the project config file if present. A missing file
// is not an error; the defaults stand.
func (c *Config) loadFromFile(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Also accept the .yml spelling.
			alt := filepath.Join(dir, ".docvault.yml")
			if data, err = os.ReadFile(alt); err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return errors.Wrap(errors.ErrCodeConfigNotFound, err).WithDetail("path", alt)
			}
			path = alt
		} else {
			return errors.Wrap(errors.ErrCodeConfigNotFound, err).WithDetail("path", path)
		}
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, err).
			WithDetail("path", path).
			WithSuggestion("check the YAML syntax of " + ConfigFileName)
	}
	return nil
}

// applyEnvOverrides applies DOCVAULT_* environment variable overrides.
// Environment has the highest precedence, matching deployment practice
// where credentials never live in the project file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCVAULT_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("DOCVAULT_STORAGE_ROOT"); v != "" {
		c.Storage.Root = v
	}
	if v := os.Getenv("DOCVAULT_REMOTE_ENDPOINT"); v != "" {
		c.Storage.Remote.Endpoint = v
	}
	if v := os.Getenv("DOCVAULT_REMOTE_BUCKET"); v != "" {
		c.Storage.Remote.Bucket = v
	}
	if v := os.Getenv("DOCVAULT_REMOTE_PREFIX"); v != "" {
		c.Storage.Remote.Prefix = v
	}
	if v := os.Getenv("DOCVAULT_ACCESS_KEY"); v != "" {
		c.Storage.Remote.AccessKey = v
	}
	if v := os.Getenv("DOCVAULT_SECRET_KEY"); v != "" {
		c.Storage.Remote.SecretKey = v
	}
	if v := os.Getenv("DOCVAULT_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Storage.Remote.UseSSL = b
		}
	}
	if v := os.Getenv("DOCVAULT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCVAULT_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Retry.MaxRetries = n
		}
	}
}

// Validate checks the final configuration for consistency.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case BackendLocal, BackendRemote, BackendHybrid:
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"unknown storage type %q", c.Storage.Type).
			WithSuggestion(fmt.Sprintf("use one of: %s, %s, %s", BackendLocal, BackendRemote, BackendHybrid))
	}

	if c.Storage.Type != BackendRemote && c.Storage.Root == "" {
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"storage root is required for %s storage", c.Storage.Type)
	}

	if c.Storage.Type != BackendLocal {
		if c.Storage.Remote.Endpoint == "" {
			return errors.Newf(errors.ErrCodeConfigInvalid,
				"remote endpoint is required for %s storage", c.Storage.Type).
				WithSuggestion("set storage.remote.endpoint or DOCVAULT_REMOTE_ENDPOINT")
		}
		if c.Storage.Remote.Bucket == "" {
			return errors.Newf(errors.ErrCodeConfigInvalid,
				"remote bucket is required for %s storage", c.Storage.Type).
				WithSuggestion("set storage.remote.bucket or DOCVAULT_REMOTE_BUCKET")
		}
	}

	if c.Storage.DataPrefix == "" || c.Storage.IndexPrefix == "" {
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"data and index prefixes must not be empty")
	}
	if c.Storage.DataPrefix == c.Storage.IndexPrefix {
		return errors.Newf(errors.ErrCodeConfigInvalid,
			"data and index prefixes must differ").
			WithDetail("prefix", c.Storage.DataPrefix)
	}

	if c.Retry.MaxRetries < 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, "max_retries must be non-negative")
	}
	return nil
}

// Save writes the configuration to the project directory.
func (c *Config) Save(dir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, err).WithDetail("path", path)
	}
	return nil
}
