// Package config loads environment-backed configuration structs.
//
// Structs are described with caarlos0/env tags. A .env file in the working
// directory is read once, on the first Load, and never overrides variables
// that are already set.
//
//	type QueueConfig struct {
//		Size    int           `env:"SUBSCRIBER_QUEUE_MAX_SIZE" envDefault:"1024"`
//		Timeout time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
//		APIKey  string        `env:"API_KEY,required"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning the error, which suits main.
//
// # Caching
//
// The first Load for a type parses the environment; later calls for the same
// type copy the cached value even if the environment changed in between.
// Types are cached independently, so components can declare their own
// structs without coordinating:
//
//	config.MustLoad(&broker.Config{})
//	config.MustLoad(&server.Config{}) // parsed separately
package config
