// Package redis provides Redis client initialization and health checking for
// the broker instances.
//
// This package wraps the go-redis client with connection validation, retry
// logic with exponential backoff, and ping verification, so callers get a
// working client or a classified error.
//
// TaskFlow connects to two Redis instances. The URLs are assembled from the
// BROKER_HOST_*/BROKER_PORT_* environment variables before calling Connect:
//
//	high, err := redisconn.Connect(ctx, redisconn.DefaultConfig(cfg.Broker.HighURL()))
//	if err != nil {
//		// bad URL or instance unreachable after retries
//	}
//	defer high.Close()
//
// Healthcheck(client) returns a func(context.Context) error for readiness
// probes. All failures wrap package sentinel errors; match with errors.Is.
package redis
