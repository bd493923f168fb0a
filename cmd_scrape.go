package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wildberries-scraper/scraper/wildberries"
	"wildberries-scraper/services"
	"wildberries-scraper/storage"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape CATEGORY_URL",
	Short: "Scrape a Wildberries category into the database and print insights",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	categoryURL := args[0]

	logger.Info("=== Wildberries scraper starting ===")
	logger.Info("Config | pages: %d | concurrency: %d | rate: %dms | retries: %d | fetch: %s",
		cfg.MaxPages, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries, cfg.FetchMode)

	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	defer csvWriter.Close()

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		if cfg.DatabaseDriver == "postgres" {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		return fmt.Errorf("open %s store: %w", cfg.DatabaseDriver, err)
	}
	defer store.Close()

	fetcher, err := wildberries.NewFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	syncer := services.NewSyncService(wildberries.New(cfg, fetcher, logger), store, csvWriter, logger)
	n, err := syncer.Sync(ctx, categoryURL)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no products were scraped from %s", categoryURL)
	}

	products, err := store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch products for insights: %w", err)
	}

	insights := services.NewInsightService(logger)
	insights.Print(os.Stdout, insights.Generate(products))

	fmt.Printf("  Done. Raw CSV -> %s | Clean data -> %s (products table)\n\n",
		cfg.CSVOutputPath, store.Driver())
	return nil
}
