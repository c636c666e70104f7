package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *IngestorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.AccessToken == "" {
		return errors.New("api.access_token is required (set UPSTOX_ACCESS_TOKEN)")
	}

	if c.Feed.StrikeGap <= 0 {
		return errors.New("feed.strike_gap must be > 0")
	}
	if c.Feed.StrikeRange < 1 {
		return errors.New("feed.strike_range must be >= 1")
	}
	if c.Feed.DriftThreshold <= 0 {
		return errors.New("feed.drift_threshold must be > 0")
	}
	if c.Feed.HeartbeatInterval <= 0 {
		return errors.New("feed.heartbeat_interval must be > 0")
	}
	if c.Feed.DriftProbeInterval <= 0 {
		return errors.New("feed.drift_probe_interval must be > 0")
	}

	if !c.Sink.Postgres.Enabled && !c.Sink.SQLite.Enabled && !c.Sink.Redis.Enabled {
		return errors.New("at least one sink must be enabled")
	}
	if c.Sink.Postgres.Enabled {
		if err := c.Sink.Postgres.validate("sink.postgres"); err != nil {
			return err
		}
	}
	if c.Sink.Redis.Enabled && c.Sink.Redis.Addr == "" {
		return errors.New("sink.redis.addr is required when enabled")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *PostgresSinkConfig) validate(prefix string) error {
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
