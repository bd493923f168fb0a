package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wildberries-scraper/dashboard"
)

var (
	dashboardAPI     string
	dashboardOut     string
	dashboardNoFiles bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive product dashboard backed by the product API",
	Long: `Fetches products from the listing API and renders the table and both
charts. Filters are driven by commands read from stdin; type 'help' for the list.

Unless --no-files is set, the dashboard is also written as index.html plus chart
images into the output directory, which 'serve' exposes under /dashboard/.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardAPI, "api", "", "product listing endpoint (default DASHBOARD_API_URL)")
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "", "output directory for the HTML dashboard (default DASHBOARD_OUTPUT_DIR)")
	dashboardCmd.Flags().BoolVar(&dashboardNoFiles, "no-files", false, "only render to the terminal")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	endpoint := dashboardAPI
	if endpoint == "" {
		endpoint = cfg.DashboardAPIURL
	}
	outDir := dashboardOut
	if outDir == "" {
		outDir = cfg.DashboardOutputDir
	}

	views := dashboard.MultiView{dashboard.NewTerminalView(os.Stdout)}
	if !dashboardNoFiles {
		fileView, err := dashboard.NewFileView(outDir, logger)
		if err != nil {
			return err
		}
		views = append(views, fileView)
		logger.Info("[dashboard] Writing HTML dashboard to %s", fileView.Dir())
	}

	client := dashboard.NewClient(endpoint, cfg.RequestTimeout)
	controller := dashboard.NewController(client, views, logger,
		dashboard.WithDebounce(cfg.DashboardDebounce))
	defer controller.Close()

	if err := controller.Start(ctx); err != nil {
		// The error row is already shown; "refresh" retries.
		logger.Warn("[dashboard] Initial load failed: %v", err)
	}

	if err := dashboard.RunREPL(ctx, os.Stdin, os.Stdout, controller); err != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("dashboard input: %w", err)
	}
	return nil
}
