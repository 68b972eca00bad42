// Package metrics declares the prometheus instruments shared across the
// coordinator, worker, and API processes. Instruments register themselves on
// the default registry; the ops server exposes them on /metrics.
package metrics
