package config

import "time"

// IngestorConfig is the root configuration for an ingestor instance.
type IngestorConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Feed     FeedConfig     `yaml:"feed"`
	Sink     SinkConfig     `yaml:"sink"`
	Health   HealthConfig   `yaml:"health"`
}

// InstanceConfig identifies this ingestor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds vendor REST API settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	AccessToken    string        `yaml:"access_token"` // Usually ${UPSTOX_ACCESS_TOKEN}
	InstrumentsURL string        `yaml:"instruments_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// FeedConfig holds the option-chain selection and session timing settings.
type FeedConfig struct {
	Underlying         string        `yaml:"underlying"`           // e.g. "NIFTY"
	Segment            string        `yaml:"segment"`              // e.g. "NSE_FO"
	SpotKey            string        `yaml:"spot_key"`             // e.g. "NSE_INDEX|Nifty 50"
	StrikeGap          float64       `yaml:"strike_gap"`           // Distance between adjacent strikes
	StrikeRange        int           `yaml:"strike_range"`         // Strikes each side of ATM
	DriftThreshold     float64       `yaml:"drift_threshold"`      // ATM move that forces resubscription
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`   // Ping cadence while subscribed
	DriftProbeInterval time.Duration `yaml:"drift_probe_interval"` // Spot refetch cadence
	RestartDelay       time.Duration `yaml:"restart_delay"`        // Fixed delay before any restart
}

// SinkConfig holds the tick sink settings. Any subset may be enabled.
type SinkConfig struct {
	Postgres PostgresSinkConfig `yaml:"postgres"`
	SQLite   SQLiteSinkConfig   `yaml:"sqlite"`
	Redis    RedisSinkConfig    `yaml:"redis"`
}

// PostgresSinkConfig holds the durable postgres/timescale sink connection.
type PostgresSinkConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SQLiteSinkConfig holds the local file sink for dev/offline runs.
type SQLiteSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// RedisSinkConfig holds the latest-price cache sink.
type RedisSinkConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// HealthConfig holds the health/status HTTP server settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
