package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/lifeband/internal/archive"
	"github.com/groblegark/lifeband/internal/config"
	"github.com/groblegark/lifeband/internal/events"
	"github.com/groblegark/lifeband/internal/notify"
	"github.com/groblegark/lifeband/internal/server"
	"github.com/groblegark/lifeband/internal/store"
	"github.com/groblegark/lifeband/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the Lifeband hub server",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build a client connection.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Pick the store backend. No database URL means the in-process
		// store, which is enough for a single-hub deployment. Either way
		// the backend is wrapped with push subscriptions; the caregiver
		// alert dispatcher rides on them.
		var backend store.Store
		if cfg.DatabaseURL != "" {
			pg, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			backend = pg
			logger.Info("postgres store enabled")
		} else {
			backend = store.NewMemoryStore()
			logger.Info("in-memory store enabled (LIFEBAND_DATABASE_URL not set)")
		}
		st := store.NewNotifier(backend)

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (LIFEBAND_NATS_URL not set)")
		}

		hub := server.NewDeviceServer(st, publisher, cfg.Tenant)

		dispatcher := notify.NewDispatcher(st, cfg.Tenant, &notify.LogNotifier{Logger: logger}, logger)
		if err := dispatcher.Start(context.Background()); err != nil {
			st.Close()
			return err
		}

		hub.Presence.StartReaper(nil)

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: hub.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the archive scheduler if any destinations are configured.
		var scheduler *archive.Scheduler
		if cfg.ArchiveInterval > 0 {
			var dests []archive.Destination

			if cfg.ArchiveS3Bucket != "" {
				s3Dest, err := archive.NewS3Destination(
					context.Background(),
					cfg.ArchiveS3Bucket,
					cfg.ArchiveS3Key,
					cfg.ArchiveS3Region,
					cfg.ArchiveS3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 archive destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("archive S3 destination enabled", "bucket", cfg.ArchiveS3Bucket, "key", cfg.ArchiveS3Key)
				}
			}

			if cfg.ArchiveFile != "" {
				dests = append(dests, archive.NewFileDestination(cfg.ArchiveFile))
				logger.Info("archive file destination enabled", "path", cfg.ArchiveFile)
			}

			if len(dests) > 0 {
				scheduler = archive.NewScheduler(st, cfg.Tenant, dests, cfg.ArchiveInterval, logger)
				scheduler.Start()
				logger.Info("archive scheduler started", "interval", cfg.ArchiveInterval)
			}
		}

		logger.Info("lifeband hub started",
			"http_addr", cfg.HTTPAddr,
			"tenant", cfg.Tenant,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("archive scheduler stopped")
		}

		hub.Presence.Stop()
		dispatcher.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
