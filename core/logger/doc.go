// Package logger builds slog loggers and provides nil-safe attribute helpers
// with consistent key names.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "pubsub"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//	logger.SetAsDefault(log)
//
//	log.Info("topic created",
//		logger.Event("topic_created"),
//		logger.Topic("orders"),
//	)
//
// # Environment Presets
//
//	logger.New(logger.WithDevelopment("pubsub")) // text, debug
//	logger.New(logger.WithStaging("pubsub"))     // JSON, info
//	logger.New(logger.WithProduction("pubsub"))  // JSON, info
//
// # Context Attributes
//
// Extractors add request-scoped attributes to every *Context call:
//
//	log := logger.New(
//		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//			id, ok := ctx.Value(requestIDKey{}).(string)
//			return logger.RequestID(id), ok
//		}),
//	)
//	log.InfoContext(ctx, "processing")
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil errors and empty identifiers, so
// they can be passed unconditionally:
//
//	log.Warn("delivery failed",
//		logger.Topic(topic),
//		logger.SubscriberID(id),
//		logger.Error(err), // dropped when err is nil
//	)
package logger
