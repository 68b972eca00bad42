// Package server wraps http.Server with graceful shutdown and
// environment-driven configuration.
//
// # Basic Usage
//
//	srv, err := server.New(":8080",
//		server.WithLogger(log),
//		server.WithShutdownTimeout(30*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	if err := srv.Start(ctx, router); err != nil && !errors.Is(err, context.Canceled) {
//		return err
//	}
//	return srv.Stop()
//
// # Coordinated Lifecycle
//
// Run adapts the server for errgroup composition alongside other
// long-running components:
//
//	eg, ctx := errgroup.WithContext(ctx)
//	eg.Go(srv.Run(ctx, router))
//	eg.Go(coord.Run(ctx))
//	return eg.Wait()
//
// Start blocks until the context is canceled or the listener fails.
// Stop drains in-flight requests within the configured shutdown timeout.
package server
