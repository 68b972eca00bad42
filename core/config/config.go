package config

import (
	"errors"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilConfig is returned when Load receives a nil pointer.
	ErrNilConfig = errors.New("config: nil config pointer")
	// ErrParseFailed wraps env parsing failures, including missing required variables.
	ErrParseFailed = errors.New("config: failed to parse environment")
)

var (
	cache   sync.Map // reflect.Type -> parsed config value
	dotenv  sync.Once
	cacheMu sync.Mutex
)

// Load parses environment variables into cfg. Each configuration type is
// parsed once per process; later calls for the same type receive the cached
// value. A .env file in the working directory is loaded on first use.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	dotenv.Do(func() {
		// Missing .env is the normal production case.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	// Serialize first-load per type so concurrent callers observe one parse.
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParseFailed, err)
	}

	cache.Store(key, *cfg)
	return nil
}

// MustLoad is Load that panics on failure, intended for process startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
