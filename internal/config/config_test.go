package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-relay
  az: us-east-1a
auth:
  token_secret: supersecret
feed:
  base_url: https://feed.example.com
  api_key: key123
database:
  postgres:
    host: localhost
    port: 5432
    name: test_db
    user: testuser
    password: testpass
relay:
  stream_interval: 15s
  default_symbols: [BTCUSDT, ETHUSDT]
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-relay" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-relay")
	}
	if cfg.Feed.BaseURL != "https://feed.example.com" {
		t.Errorf("Feed.BaseURL = %q, want %q", cfg.Feed.BaseURL, "https://feed.example.com")
	}
	if cfg.Database.Postgres.Host != "localhost" {
		t.Errorf("Database.Postgres.Host = %q, want %q", cfg.Database.Postgres.Host, "localhost")
	}
	if cfg.Relay.StreamInterval != 15*time.Second {
		t.Errorf("Relay.StreamInterval = %v, want %v", cfg.Relay.StreamInterval, 15*time.Second)
	}
	if len(cfg.Relay.DefaultSymbols) != 2 || cfg.Relay.DefaultSymbols[0] != "BTCUSDT" {
		t.Errorf("Relay.DefaultSymbols = %v, want [BTCUSDT ETHUSDT]", cfg.Relay.DefaultSymbols)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_TOKEN_SECRET", "secret123")

	yaml := `
instance:
  id: test-relay
auth:
  token_secret: ${TEST_TOKEN_SECRET}
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: ${TEST_TOKEN_SECRET}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.TokenSecret != "secret123" {
		t.Errorf("Auth.TokenSecret = %q, want %q", cfg.Auth.TokenSecret, "secret123")
	}
	if cfg.Database.Postgres.Password != "secret123" {
		t.Errorf("Database.Postgres.Password = %q, want %q", cfg.Database.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-relay
auth:
  token_secret: supersecret
feed:
  base_url: https://feed.example.com
database:
  postgres:
    host: localhost
    name: test_db
    user: testuser
    password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want default %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.ReadLimit != DefaultReadLimit {
		t.Errorf("Server.ReadLimit = %d, want default %d", cfg.Server.ReadLimit, DefaultReadLimit)
	}
	if cfg.Feed.Timeout != DefaultFeedTimeout {
		t.Errorf("Feed.Timeout = %v, want default %v", cfg.Feed.Timeout, DefaultFeedTimeout)
	}
	if cfg.Database.Postgres.Port != DefaultDBPort {
		t.Errorf("Database.Postgres.Port = %d, want default %d", cfg.Database.Postgres.Port, DefaultDBPort)
	}
	if cfg.Database.Postgres.MaxConns != DefaultMaxConns {
		t.Errorf("Database.Postgres.MaxConns = %d, want default %d", cfg.Database.Postgres.MaxConns, DefaultMaxConns)
	}
	if cfg.Relay.StreamInterval != DefaultStreamInterval {
		t.Errorf("Relay.StreamInterval = %v, want default %v", cfg.Relay.StreamInterval, DefaultStreamInterval)
	}
	if cfg.Relay.LivenessTimeout != DefaultLivenessTimeout {
		t.Errorf("Relay.LivenessTimeout = %v, want default %v", cfg.Relay.LivenessTimeout, DefaultLivenessTimeout)
	}
	if len(cfg.Relay.DefaultSymbols) != len(DefaultSymbols) {
		t.Errorf("Relay.DefaultSymbols = %v, want default %v", cfg.Relay.DefaultSymbols, DefaultSymbols)
	}
}

func TestValidate(t *testing.T) {
	validDB := DatabaseConfig{
		Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
	}
	validRelay := RelayConfig{
		StreamInterval:  30 * time.Second,
		FetchTimeout:    10 * time.Second,
		ReapInterval:    30 * time.Second,
		LivenessTimeout: 60 * time.Second,
	}

	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{
			name:    "missing instance id",
			cfg:     ServiceConfig{},
			wantErr: "instance.id is required",
		},
		{
			name: "missing token secret",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
			},
			wantErr: "auth.token_secret is required",
		},
		{
			name: "missing feed base url",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Auth:     AuthConfig{TokenSecret: "s"},
			},
			wantErr: "feed.base_url is required",
		},
		{
			name: "missing postgres host",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Auth:     AuthConfig{TokenSecret: "s"},
				Feed:     FeedConfig{BaseURL: "https://feed.example.com"},
			},
			wantErr: "database.postgres.host is required",
		},
		{
			name: "min_conns exceeds max_conns",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Auth:     AuthConfig{TokenSecret: "s"},
				Feed:     FeedConfig{BaseURL: "https://feed.example.com"},
				Database: DatabaseConfig{
					Postgres: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10},
				},
			},
			wantErr: "database.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name: "liveness timeout shorter than reap interval",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Auth:     AuthConfig{TokenSecret: "s"},
				Feed:     FeedConfig{BaseURL: "https://feed.example.com"},
				Database: validDB,
				Server:   ServerConfig{ReadLimit: 1024},
				Relay: RelayConfig{
					StreamInterval:  30 * time.Second,
					ReapInterval:    60 * time.Second,
					LivenessTimeout: 30 * time.Second,
				},
			},
			wantErr: "relay.liveness_timeout (30s) should not be shorter than reap_interval (1m0s)",
		},
		{
			name: "valid config",
			cfg: ServiceConfig{
				Instance: InstanceConfig{ID: "test"},
				Auth:     AuthConfig{TokenSecret: "s"},
				Feed:     FeedConfig{BaseURL: "https://feed.example.com"},
				Database: validDB,
				Server:   ServerConfig{ReadLimit: 1024},
				Relay:    validRelay,
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
