package coordinator

import "time"

// Config carries the coordinator's tunables from the environment. Interval
// knobs keep their historical unit-suffixed names.
type Config struct {
	LeaseTTLMS         int `env:"LEASE_TTL_MS" envDefault:"10000"`
	RenewIntervalS     int `env:"RENEW_INTERVAL_S" envDefault:"3"`
	SchedulerIntervalS int `env:"SCHEDULER_INTERVAL_S" envDefault:"5"`
	ReclaimIntervalS   int `env:"RECLAIM_INTERVAL_S" envDefault:"10"`
	ReconcileIntervalS int `env:"RECONCILE_INTERVAL_S" envDefault:"30"`
	ProcessingReclaimS int `env:"PROCESSING_RECLAIM_S" envDefault:"30"`
}

// LeaseTTL returns the leader lease expiration.
func (c Config) LeaseTTL() time.Duration {
	return time.Duration(c.LeaseTTLMS) * time.Millisecond
}

// RenewInterval returns the election and renewal tick.
func (c Config) RenewInterval() time.Duration {
	return time.Duration(c.RenewIntervalS) * time.Second
}

// SchedulerInterval returns the due-task dispatch tick.
func (c Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalS) * time.Second
}

// ReclaimInterval returns the recovery and reclaim tick.
func (c Config) ReclaimInterval() time.Duration {
	return time.Duration(c.ReclaimIntervalS) * time.Second
}

// ReconcileInterval returns the queued-row repair tick.
func (c Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalS) * time.Second
}

// ProcessingReclaimAge returns how long a processing entry may sit before the
// reclaimer takes it back.
func (c Config) ProcessingReclaimAge() time.Duration {
	return time.Duration(c.ProcessingReclaimS) * time.Second
}
