package config

import "time"

// ServiceConfig is the root configuration for a relay instance.
type ServiceConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Feed     FeedConfig     `yaml:"feed"`
	Database DatabaseConfig `yaml:"database"`
	Relay    RelayConfig    `yaml:"relay"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
	AZ string `yaml:"az"`
}

// ServerConfig holds the WebSocket endpoint settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadLimit    int64         `yaml:"read_limit"`    // Max inbound frame size (bytes)
	WriteTimeout time.Duration `yaml:"write_timeout"` // Per-send deadline
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Read deadline, refreshed on traffic
}

// AuthConfig holds identity verification settings.
type AuthConfig struct {
	TokenSecret string `yaml:"token_secret"` // HMAC secret for API credentials
}

// FeedConfig holds feed provider API settings.
type FeedConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// DatabaseConfig holds the read-back history store connection.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RelayConfig holds the core relay cadences and limits.
type RelayConfig struct {
	StreamInterval  time.Duration `yaml:"stream_interval"`  // Per-session push cadence
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`    // Per-fetch/collaborator timeout
	ReapInterval    time.Duration `yaml:"reap_interval"`    // Reaper sweep cadence
	LivenessTimeout time.Duration `yaml:"liveness_timeout"` // Eviction threshold
	DefaultSymbols  []string      `yaml:"default_symbols"`  // Initial subscription set
}
