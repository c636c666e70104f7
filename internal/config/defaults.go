package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL        = "https://api.upstox.com/v2"
	DefaultInstrumentsURL = "https://assets.upstox.com/market-quote/instruments/exchange/NSE.json.gz"
	DefaultAPITimeout     = 30 * time.Second
	DefaultMaxRetries     = 3

	DefaultUnderlying         = "NIFTY"
	DefaultSegment            = "NSE_FO"
	DefaultSpotKey            = "NSE_INDEX|Nifty 50"
	DefaultStrikeGap          = 50
	DefaultStrikeRange        = 5
	DefaultHeartbeatInterval  = 20 * time.Second
	DefaultDriftProbeInterval = 30 * time.Second
	DefaultRestartDelay       = 5 * time.Second

	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 4
	DefaultMinConns       = 1
	DefaultSQLitePath     = "data/ticks.db"
	DefaultRedisKeyPrefix = "niftydata"
	DefaultRedisTTL       = 24 * time.Hour

	DefaultHealthPort = 8080
)

func (c *IngestorConfig) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.InstrumentsURL == "" {
		c.API.InstrumentsURL = DefaultInstrumentsURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Feed defaults
	if c.Feed.Underlying == "" {
		c.Feed.Underlying = DefaultUnderlying
	}
	if c.Feed.Segment == "" {
		c.Feed.Segment = DefaultSegment
	}
	if c.Feed.SpotKey == "" {
		c.Feed.SpotKey = DefaultSpotKey
	}
	if c.Feed.StrikeGap == 0 {
		c.Feed.StrikeGap = DefaultStrikeGap
	}
	if c.Feed.StrikeRange == 0 {
		c.Feed.StrikeRange = DefaultStrikeRange
	}
	if c.Feed.DriftThreshold == 0 {
		// One full strike shift invalidates the window
		c.Feed.DriftThreshold = c.Feed.StrikeGap
	}
	if c.Feed.HeartbeatInterval == 0 {
		c.Feed.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Feed.DriftProbeInterval == 0 {
		c.Feed.DriftProbeInterval = DefaultDriftProbeInterval
	}
	if c.Feed.RestartDelay == 0 {
		c.Feed.RestartDelay = DefaultRestartDelay
	}

	// Sink defaults
	if c.Sink.Postgres.Enabled {
		applyPostgresDefaults(&c.Sink.Postgres)
	}
	if c.Sink.SQLite.Enabled && c.Sink.SQLite.Path == "" {
		c.Sink.SQLite.Path = DefaultSQLitePath
	}
	if c.Sink.Redis.Enabled {
		if c.Sink.Redis.KeyPrefix == "" {
			c.Sink.Redis.KeyPrefix = DefaultRedisKeyPrefix
		}
		if c.Sink.Redis.TTL == 0 {
			c.Sink.Redis.TTL = DefaultRedisTTL
		}
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}

func applyPostgresDefaults(db *PostgresSinkConfig) {
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
