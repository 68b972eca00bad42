package redis

import "time"

// Config holds Redis connection settings for a single instance.
//
// TaskFlow runs two Redis instances (high and low priority brokers), so the
// connection URL is assembled from the BROKER_* variables by the caller rather
// than parsed from a single env value. DefaultConfig supplies the tuning knobs.
type Config struct {
	ConnectionURL  string
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config for url with production-safe retry settings.
func DefaultConfig(url string) Config {
	return Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  5 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}
