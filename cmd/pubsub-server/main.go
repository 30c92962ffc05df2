// Command pubsub-server runs the in-memory pub/sub broker.
//
// Configuration comes from the environment and an optional .env file in the
// working directory. See broker.Config for the variables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/pubsub/app/broker"
	"github.com/dmitrymomot/pubsub/core/config"
	"github.com/dmitrymomot/pubsub/core/logger"
	"github.com/dmitrymomot/pubsub/middleware"
)

func main() {
	var cfg broker.Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.AppName),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithContextExtractors(middleware.RequestIDExtractor),
	)
	logger.SetAsDefault(log)

	if cfg.APIKey == "" {
		log.Warn("API_KEY is not set, every request will be refused", logger.Component("main"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := broker.New(cfg, broker.WithLogger(log))
	if err != nil {
		log.Error("failed to build broker", logger.Component("main"), logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("broker exited with error", logger.Component("main"), logger.Error(err))
		stop()
		os.Exit(1)
	}
}
