// Package server wraps http.Server with graceful shutdown, environment-driven
// configuration and an errgroup-friendly Run method.
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
//
// Run serves until ctx is cancelled and then shuts down within the configured
// shutdown timeout. TLS is enabled when SERVER_TLS_CERT_FILE and
// SERVER_TLS_KEY_FILE are both set, or with WithTLS.
package server
