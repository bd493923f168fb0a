package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wildberries-scraper/api"
	"wildberries-scraper/scraper/wildberries"
	"wildberries-scraper/services"
	"wildberries-scraper/storage"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the product API and the background parsing jobs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DatabaseDriver, err)
	}
	defer store.Close()

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	defer csvWriter.Close()

	fetcher, err := wildberries.NewFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	syncer := services.NewSyncService(wildberries.New(cfg, fetcher, logger), store, csvWriter, logger)
	jobs := services.NewJobRunner(syncer, cfg.JobConcurrency, logger)

	handler := api.NewHandler(store, jobs, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		DashboardDir:   cfg.DashboardOutputDir,
		Pinger:         store,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("[serve] Listening on %s (store: %s)", cfg.HTTPAddr, store.Driver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[serve] Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := jobs.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("jobs shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
