package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServiceConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Auth.TokenSecret == "" {
		return errors.New("auth.token_secret is required")
	}

	if c.Feed.BaseURL == "" {
		return errors.New("feed.base_url is required")
	}

	if err := c.Database.Postgres.validate("database.postgres"); err != nil {
		return err
	}

	if c.Relay.StreamInterval <= 0 {
		return errors.New("relay.stream_interval must be > 0")
	}
	if c.Relay.ReapInterval <= 0 {
		return errors.New("relay.reap_interval must be > 0")
	}
	if c.Relay.LivenessTimeout <= 0 {
		return errors.New("relay.liveness_timeout must be > 0")
	}
	if c.Relay.LivenessTimeout < c.Relay.ReapInterval {
		return fmt.Errorf("relay.liveness_timeout (%s) should not be shorter than reap_interval (%s)",
			c.Relay.LivenessTimeout, c.Relay.ReapInterval)
	}

	if c.Server.ReadLimit < 1 {
		return errors.New("server.read_limit must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
