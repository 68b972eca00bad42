package broker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/taskflow/core/broker"
)

func TestConfigURLs(t *testing.T) {
	t.Parallel()

	cfg := broker.Config{
		HighHost: "redis-high",
		HighPort: 6379,
		LowHost:  "redis-low",
		LowPort:  6380,
	}

	assert.Equal(t, "redis://redis-high:6379/0", cfg.HighURL())
	assert.Equal(t, "redis://redis-low:6380/0", cfg.LowURL())
}
