package commands

import (
	"context"
	"log/slog"

	"flathunt-backend/lib/configutil"
	"flathunt-backend/lib/serviceutil"
	"flathunt-backend/services/flathunt"

	"github.com/spf13/cobra"
)

var (
	searchConfig    *string
	searchNoBrowser *bool
)

func init() {
	searchConfig = searchCmd.Flags().String("config", "config.json5", "The search config to run with.")
	searchNoBrowser = searchCmd.Flags().Bool("no-browser", false, "Print listings without opening the browser.")
	rootCmd.AddCommand(searchCmd)
}

func runPass(ctx context.Context, service *flathunt.Service, requests []flathunt.SearchRequest) {
	for _, req := range requests {
		slog.Info("searching location", "name", req.LocationName, "id", req.LocationID)
		accepted, err := service.Search(ctx, req)
		if err != nil {
			slog.Error("search pass failed", "location", req.LocationID, "err", err)
			continue
		}
		slog.Info("finished location", "name", req.LocationName, "accepted", len(accepted))
	}
}

var searchCmd = &cobra.Command{
	Use:   "search [--config <path/to/config.json5>] [--no-browser]",
	Short: "Runs one discovery pass over the configured locations.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*searchConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		presenter := newConsolePresenter(cfg.destinations(), !*searchNoBrowser, true)
		service := newService(cfg, presenter)
		runPass(cmd.Context(), service, cfg.requests())
	},
}
