package commands

import (
	"log/slog"

	"flathunt-backend/lib/configutil"
	"flathunt-backend/lib/serviceutil"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	watchConfig   *string
	watchInterval *string
)

func init() {
	watchConfig = watchCmd.Flags().String("config", "config.json5", "The search config to run with.")
	watchInterval = watchCmd.Flags().String("interval", "30m", "How often to re-run the discovery pass.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [--config <path/to/config.json5>] [--interval <duration>]",
	Short: "Re-runs the discovery pass on an interval until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config](*watchConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		// watching is unattended, so never block on the browser or stdin
		presenter := newConsolePresenter(cfg.destinations(), false, false)
		service := newService(cfg, presenter)
		requests := cfg.requests()

		ctx := serviceutil.SignalContext()
		runPass(ctx, service, requests)

		scheduler := cron.New()
		_, err = scheduler.AddFunc("@every "+*watchInterval, func() {
			runPass(ctx, service, requests)
		})
		if err != nil {
			serviceutil.Fatal("failed to schedule discovery pass", err)
		}

		slog.Info("watching for new listings", "interval", *watchInterval)
		scheduler.Start()
		<-ctx.Done()
		<-scheduler.Stop().Done()
	},
}
