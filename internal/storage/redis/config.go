package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// StreamMaxLen caps the audit event stream; 0 means unbounded
	StreamMaxLen int64

	// GameTTL is how long per-game history keys are kept
	GameTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		StreamMaxLen: 100_000,
		GameTTL:      7 * 24 * time.Hour,
	}
}
