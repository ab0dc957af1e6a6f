package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr            = ":8090"
	DefaultReadLimit       = 64 * 1024
	DefaultWriteTimeout    = 10 * time.Second
	DefaultReadTimeout     = 90 * time.Second
	DefaultFeedTimeout     = 30 * time.Second
	DefaultMaxRetries      = 3
	DefaultCacheTTL        = 5 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultStreamInterval  = 30 * time.Second
	DefaultFetchTimeout    = 10 * time.Second
	DefaultReapInterval    = 30 * time.Second
	DefaultLivenessTimeout = 60 * time.Second
)

// DefaultSymbols is the initial subscription set for new sessions.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "DOGEUSDT"}

func (c *ServiceConfig) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadLimit == 0 {
		c.Server.ReadLimit = DefaultReadLimit
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}

	// Feed defaults
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if c.Feed.MaxRetries == 0 {
		c.Feed.MaxRetries = DefaultMaxRetries
	}
	if c.Feed.CacheTTL == 0 {
		c.Feed.CacheTTL = DefaultCacheTTL
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Relay defaults
	if c.Relay.StreamInterval == 0 {
		c.Relay.StreamInterval = DefaultStreamInterval
	}
	if c.Relay.FetchTimeout == 0 {
		c.Relay.FetchTimeout = DefaultFetchTimeout
	}
	if c.Relay.ReapInterval == 0 {
		c.Relay.ReapInterval = DefaultReapInterval
	}
	if c.Relay.LivenessTimeout == 0 {
		c.Relay.LivenessTimeout = DefaultLivenessTimeout
	}
	if len(c.Relay.DefaultSymbols) == 0 {
		c.Relay.DefaultSymbols = append([]string(nil), DefaultSymbols...)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
