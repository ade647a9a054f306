package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"bookverse/internal/api"
	"bookverse/internal/api/handler/v1handler"
	"bookverse/internal/config"
	"bookverse/internal/events"
	"bookverse/internal/worker"
	"bookverse/pkg/github/ghapi"
	"bookverse/pkg/logger"
	"bookverse/pkg/storage/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...")
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func setupWorker(ctx context.Context, cfg *config.Config, strg *postgres.PgSQL) func(ctx context.Context) {
	dispatcher := ghapi.New(&http.Client{Timeout: cfg.JFrog.Timeout}, cfg.GitHub.Token)
	eventWorker := worker.NewEventWorker(strg, dispatcher, worker.EventWorkerOptions{
		Owner:      cfg.GitHub.Owner,
		Repo:       cfg.GitHub.Repo,
		ProjectKey: cfg.JFrog.ProjectKey,
	})

	riverClient, err := worker.Start(ctx, strg.Pool, eventWorker)
	if err != nil {
		logger.Fatal(ctx, "could not start worker", zap.Error(err))
	}

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping worker...")
		if err := riverClient.Stop(ctx); err != nil {
			logger.Error(ctx, "could not stop worker", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the event receiver API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			eventsService := events.New(strg, events.NewOptions(cfg))

			stopWorker := setupWorker(ctx, cfg, strg)
			stopWebserver := setupServer(ctx, cfg, api.Deps{
				Deps: v1handler.Deps{Events: eventsService},
			})

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopWorker(shutdownCtx)
		},
	}

	return cmd
}
