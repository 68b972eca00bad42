// Package config loads typed configuration structs from environment
// variables, parsing each struct type once and serving later calls from a
// cache. A .env file, when present, is read before the first parse; the
// actual field mapping is done by the caarlos0/env library.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/taskflow/core/config"
//
//	type brokerConfig struct {
//		HighHost string `env:"BROKER_HOST_HIGH" envDefault:"localhost"`
//		HighPort int    `env:"BROKER_PORT_HIGH" envDefault:"6379"`
//	}
//
//	func main() {
//		var cfg brokerConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime.
// Subsequent Load calls for the same type return the cached value, so
// components composing shared config structs always agree on what was parsed.
// Different types are cached independently.
package config
