package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/madetoorder/storefront/app"
	"github.com/madetoorder/storefront/store"
	"github.com/madetoorder/storefront/storefront"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the catalog and serve it over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		// The one session of this process; every handler receives it from here.
		session := storefront.Open(ctx, storefront.RemotesFromDB(db, logger), storefront.Options{
			Logger:  logger,
			Timeout: cfg.RemoteTimeout,
			Metrics: store.NewMetrics(registry),
		})

		srv := &http.Server{
			Addr:         cfg.AppAddr,
			Handler:      app.NewRouter(app.RouterParams{Logger: logger, Config: cfg, Session: session, Gatherer: registry}),
			ReadTimeout:  cfg.AppReadTimeout,
			WriteTimeout: cfg.AppWriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", cfg.AppAddr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}
