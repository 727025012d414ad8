package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Agent:   Agent{URL: DefaultAgentURL},
		Storage: Storage{Host: "localhost", Port: 5432, User: "maris", DBName: "maris", SSLMode: "disable"},
		Log:     Log{Level: "info"},
		UI:      UI{Markdown: true},
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Point HOME at an empty directory so no real config file interferes.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Agent.URL != DefaultAgentURL {
		t.Errorf("agent URL = %q, want default", cfg.Agent.URL)
	}
	if cfg.Storage.Host != DefaultPostgresHost || cfg.Storage.Port != DefaultPostgresPort {
		t.Errorf("storage = %+v, want defaults", cfg.Storage)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("log level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if !cfg.UI.Markdown {
		t.Error("markdown should default on")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MARIS_AGENT_URL", "ws://agent.internal:9000/ws")
	t.Setenv("MARIS_STORAGE_HOST", "db.internal")
	t.Setenv("MARIS_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Agent.URL != "ws://agent.internal:9000/ws" {
		t.Errorf("agent URL = %q, env override lost", cfg.Agent.URL)
	}
	if cfg.Storage.Host != "db.internal" {
		t.Errorf("storage host = %q, env override lost", cfg.Storage.Host)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, env override lost", cfg.Log.Level)
	}
}

func TestLoad_InvalidEnvRejected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MARIS_AGENT_URL", "http://not-websocket.example")

	if _, err := Load(); !errors.Is(err, ErrInvalidAgentURL) {
		t.Errorf("err = %v, want ErrInvalidAgentURL", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"wss allowed", func(c *Config) { c.Agent.URL = "wss://agent.example/ws" }, nil},
		{"http scheme", func(c *Config) { c.Agent.URL = "http://agent.example" }, ErrInvalidAgentURL},
		{"hostless", func(c *Config) { c.Agent.URL = "ws://" }, ErrInvalidAgentURL},
		{"empty host", func(c *Config) { c.Storage.Host = "" }, ErrInvalidPostgresHost},
		{"port zero", func(c *Config) { c.Storage.Port = 0 }, ErrInvalidPostgresPort},
		{"port too high", func(c *Config) { c.Storage.Port = 70000 }, ErrInvalidPostgresPort},
		{"empty dbname", func(c *Config) { c.Storage.DBName = "" }, ErrInvalidPostgresDBName},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("err = %v, want ErrConfigNil", err)
	}
}

func TestConnectionURL(t *testing.T) {
	tests := []struct {
		name    string
		storage Storage
		want    string
	}{
		{
			"full credentials",
			Storage{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "maris", SSLMode: "disable"},
			"postgres://u:p@db:5432/maris?sslmode=disable",
		},
		{
			"user without password",
			Storage{Host: "db", Port: 5432, User: "u", DBName: "maris"},
			"postgres://u@db:5432/maris",
		},
		{
			"no credentials",
			Storage{Host: "db", Port: 5433, DBName: "maris"},
			"postgres://db:5433/maris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.storage.ConnectionURL()
			if got != tt.want {
				t.Errorf("ConnectionURL() = %q, want %q", got, tt.want)
			}
			if !strings.HasPrefix(got, "postgres://") {
				t.Errorf("URL scheme must be postgres://, got %q", got)
			}
		})
	}
}
