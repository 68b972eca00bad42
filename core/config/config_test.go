package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskflow/core/config"
)

// Each test uses a distinct struct type because parsed values are cached per type.

func TestLoad_Defaults(t *testing.T) {
	type cfgDefaults struct {
		Host string `env:"TEST_CFG_HOST" envDefault:"localhost"`
		Port int    `env:"TEST_CFG_PORT" envDefault:"6379"`
	}

	var cfg cfgDefaults
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6379, cfg.Port)
}

func TestLoad_FromEnvironment(t *testing.T) {
	type cfgFromEnv struct {
		Interval int `env:"TEST_CFG_INTERVAL" envDefault:"5"`
	}

	t.Setenv("TEST_CFG_INTERVAL", "11")

	var cfg cfgFromEnv
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 11, cfg.Interval)
}

func TestLoad_RequiredMissing(t *testing.T) {
	type cfgRequired struct {
		DSN string `env:"TEST_CFG_REQUIRED_DSN,required"`
	}

	var cfg cfgRequired
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParseFailed)
}

func TestLoad_CachesPerType(t *testing.T) {
	type cfgCached struct {
		Value string `env:"TEST_CFG_CACHED" envDefault:"first"`
	}

	t.Setenv("TEST_CFG_CACHED", "first")
	var a cfgCached
	require.NoError(t, config.Load(&a))
	require.Equal(t, "first", a.Value)

	// A changed environment must not leak into the cached type.
	t.Setenv("TEST_CFG_CACHED", "second")
	var b cfgCached
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)
}

func TestLoad_NilPointer(t *testing.T) {
	t.Parallel()

	var cfg *struct{}
	err := config.Load(cfg)
	assert.ErrorIs(t, err, config.ErrNilConfig)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	type cfgPanics struct {
		DSN string `env:"TEST_CFG_PANICS_DSN,required"`
	}

	assert.Panics(t, func() {
		var cfg cfgPanics
		config.MustLoad(&cfg)
	})
}
