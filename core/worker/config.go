package worker

import "time"

// Config carries the worker's tunables from the environment. Values are in
// seconds, keeping the historical variable names.
type Config struct {
	HeartbeatIntervalS int `env:"HEARTBEAT_INTERVAL" envDefault:"3"`
	HeartbeatTTLS      int `env:"HEARTBEAT_TTL" envDefault:"10"`
	TaskTimeoutS       int `env:"TASK_TIMEOUT" envDefault:"180"`
}

// HeartbeatInterval returns how often the liveness key is refreshed.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalS) * time.Second
}

// HeartbeatTTL returns the liveness key expiration. Must exceed the interval
// so one missed beat does not look like a dead worker.
func (c Config) HeartbeatTTL() time.Duration {
	return time.Duration(c.HeartbeatTTLS) * time.Second
}

// TaskTimeout returns the per-task execution budget.
func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutS) * time.Second
}
