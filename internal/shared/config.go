package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvAPIBaseURL   = "MAZEED_API_BASE_URL"
	EnvConnectURL   = "MAZEED_CONNECT_URL"
	EnvDatabasePath = "MAZEED_DATABASE_PATH"
	EnvLogLevel     = "MAZEED_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API       APIConfig       `toml:"api"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Polling   PollingConfig   `toml:"polling"`
	Downloads DownloadsConfig `toml:"downloads"`
	Logging   LoggingConfig   `toml:"logging"`
}

// APIConfig locates the mazeed backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	ConnectURL     string `toml:"connect_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig configures the local listener that receives connect callbacks.
type ServerConfig struct {
	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

// PollingConfig contains the job polling intervals in milliseconds.
type PollingConfig struct {
	PreviewIntervalMS    int     `toml:"preview_interval_ms"`
	PreviewMaxIntervalMS int     `toml:"preview_max_interval_ms"`
	PreviewBackoff       float64 `toml:"preview_backoff"`
	PreviewMaxAttempts   int     `toml:"preview_max_attempts"`
	QueueIntervalMS      int     `toml:"queue_interval_ms"`
	PageSize             int     `toml:"page_size"`
}

// DownloadsConfig controls where and how transformed media is saved.
type DownloadsConfig struct {
	OutputDir string   `toml:"output_dir"`
	Workers   int      `toml:"workers"`
	RateLimit float64  `toml:"rate_limit"`
	CDNHosts  []string `toml:"cdn_hosts"`
}

// LoggingConfig contains log level and optional log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the HTTP client timeout for backend calls.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConnectTimeout bounds how long a connect flow waits for its callback.
func (c ServerConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

func (c PollingConfig) PreviewInterval() time.Duration {
	return time.Duration(c.PreviewIntervalMS) * time.Millisecond
}

func (c PollingConfig) PreviewMaxInterval() time.Duration {
	return time.Duration(c.PreviewMaxIntervalMS) * time.Millisecond
}

func (c PollingConfig) QueueInterval() time.Duration {
	return time.Duration(c.QueueIntervalMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads .env files into the process environment.
//
// Missing files are ignored; variables already set are never overwritten.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with any MAZEED_* variables present in the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAPIBaseURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvConnectURL); ok && v != "" {
		c.API.ConnectURL = v
	}
	if v, ok := os.LookupEnv(EnvDatabasePath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

// Validate reports configuration values the client cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Polling.PreviewIntervalMS <= 0 || c.Polling.QueueIntervalMS <= 0 {
		return fmt.Errorf("%w: polling intervals must be positive", ErrInvalidConfig)
	}
	return nil
}
