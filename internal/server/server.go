package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hrdesk-backend/internal/config"
)

// Start serves router until ctx is cancelled, then drains in-flight requests
// for at most cfg.ShutdownTimeout.
func Start(ctx context.Context, cfg config.Config, router http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("hrdesk api listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		started := time.Now()
		log.Info("hrdesk api draining", "timeout", cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("hrdesk api stopped", "took", time.Since(started))
		return nil
	case err := <-errCh:
		return err
	}
}
