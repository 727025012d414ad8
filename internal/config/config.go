// Package config provides application configuration with multi-source
// priority:
//
//  1. Environment variables (MARIS_*, runtime override)
//  2. Config file (~/.maris/config.yaml)
//  3. Defaults (usable out of the box against a local backend)
//
// Sensitive values (the database password) are never logged. Validation
// uses sentinel errors so callers can branch with errors.Is().
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidAgentURL indicates the agent WebSocket URL is malformed.
	ErrInvalidAgentURL = errors.New("invalid agent URL")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidLogLevel indicates an unrecognized log level string.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Defaults for a local development setup.
const (
	DefaultAgentURL     = "ws://127.0.0.1:7365/ws"
	DefaultPostgresHost = "localhost"
	DefaultPostgresPort = 5432
	DefaultPostgresDB   = "maris"
	DefaultPostgresUser = "maris"
	DefaultLogLevel     = "info"
)

// Agent is the backend transport configuration.
type Agent struct {
	URL string `mapstructure:"url"`
}

// Storage is the PostgreSQL session store configuration.
type Storage struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	// HistoryLimit caps how many messages a session load retrieves.
	// Zero means the store's default; the store clamps out-of-range
	// values.
	HistoryLimit int32 `mapstructure:"history_limit"`
}

// Log is the logging configuration.
type Log struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
}

// UI holds render-layer toggles.
type UI struct {
	Markdown bool `mapstructure:"markdown"`
}

// Config is the root application configuration.
type Config struct {
	Agent   Agent   `mapstructure:"agent"`
	Storage Storage `mapstructure:"storage"`
	Log     Log     `mapstructure:"log"`
	UI      UI      `mapstructure:"ui"`
}

// ConnectionURL builds the postgres:// URL for pgx and golang-migrate.
func (s Storage) ConnectionURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", s.Host, s.Port),
		Path:   "/" + s.DBName,
	}
	if s.User != "" {
		if s.Password != "" {
			u.User = url.UserPassword(s.User, s.Password)
		} else {
			u.User = url.User(s.User)
		}
	}
	q := url.Values{}
	if s.SSLMode != "" {
		q.Set("sslmode", s.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("agent.url", DefaultAgentURL)
	v.SetDefault("storage.host", DefaultPostgresHost)
	v.SetDefault("storage.port", DefaultPostgresPort)
	v.SetDefault("storage.user", DefaultPostgresUser)
	v.SetDefault("storage.dbname", DefaultPostgresDB)
	v.SetDefault("storage.sslmode", "disable")
	v.SetDefault("storage.history_limit", 0)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)
	v.SetDefault("ui.markdown", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".maris"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("MARIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	u, err := url.Parse(c.Agent.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAgentURL, c.Agent.URL)
	}

	if c.Storage.Host == "" {
		return ErrInvalidPostgresHost
	}
	if c.Storage.Port < 1 || c.Storage.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.Storage.Port)
	}
	if c.Storage.DBName == "" {
		return ErrInvalidPostgresDBName
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}

	return nil
}
