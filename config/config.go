package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"healthstore/model"
)

// Config holds all healthstore client configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	UI        UIConfig        `yaml:"ui"`
	Downloads DownloadsConfig `yaml:"downloads"`
	Logging   LoggingConfig   `yaml:"logging"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
}

// APIConfig configures the backend connection.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"` // 0 disables the client timeout
}

// StorageConfig configures where the session is persisted.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // file, sqlite, postgres, memory
	Path     string `yaml:"path"`   // file and sqlite
	DSN      string `yaml:"dsn"`    // postgres
	Watch    bool   `yaml:"watch"`  // file only: reload the session when another process changes it
	TokenKey string `yaml:"token_key"`
	UserKey  string `yaml:"user_key"`
}

type UIConfig struct {
	// Lifetime of notifications for embedders of the ui package. The CLI
	// ignores it and prints every notification when a command ends.
	ToastDuration string `yaml:"toast_duration"`
	DebounceDelay string `yaml:"debounce_delay"`
	PageSize      int    `yaml:"page_size"`
}

type DownloadsConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// SandboxConfig configures the local fake backend.
type SandboxConfig struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"secret"`
}

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := defaultDataDir()
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "0s",
		},
		Storage: StorageConfig{
			Driver:   DriverFile,
			Path:     filepath.Join(dir, "storage.json"),
			TokenKey: model.StorageKeyAuthToken,
			UserKey:  model.StorageKeyUserData,
		},
		UI: UIConfig{
			ToastDuration: model.ToastDuration.String(),
			DebounceDelay: model.DebounceDelay.String(),
			PageSize:      model.DefaultPageSize,
		},
		Downloads: DownloadsConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Sandbox: SandboxConfig{
			Addr:   ":8080",
			Secret: "sandbox-secret",
		},
	}
}

// DefaultPath returns $HEALTHSTORE_CONFIG or ~/.config/healthstore/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("HEALTHSTORE_CONFIG"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "healthstore", "config.yaml")
	}
	return "healthstore.yaml"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "healthstore")
	}
	return "."
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HEALTHSTORE_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("HEALTHSTORE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("HEALTHSTORE_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("HEALTHSTORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path required for driver %q", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn required for driver \"postgres\"")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.TokenKey == "" || c.Storage.UserKey == "" {
		return errors.New("storage.token_key and storage.user_key required")
	}
	return nil
}

// GetAPITimeout returns the HTTP client timeout; 0 means none.
func (c *Config) GetAPITimeout() time.Duration {
	return parseDuration(c.API.Timeout, 0)
}

// GetToastDuration returns the default notification lifetime.
func (c *Config) GetToastDuration() time.Duration {
	return parseDuration(c.UI.ToastDuration, model.ToastDuration)
}

func (c *Config) GetDebounceDelay() time.Duration {
	return parseDuration(c.UI.DebounceDelay, model.DebounceDelay)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
