package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wildberries-scraper/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored products to an XLSX workbook",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default XLSX_OUTPUT_PATH)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := exportOut
	if path == "" {
		path = cfg.XLSXOutputPath
	}

	store, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DatabaseDriver, err)
	}
	defer store.Close()

	products, err := store.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	if err := storage.WriteXLSX(path, products); err != nil {
		return err
	}

	logger.Info("[export] Wrote %d products to %s", len(products), path)
	return nil
}
