package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/faultline/internal/config"
	"firestige.xyz/faultline/internal/log"
	"firestige.xyz/faultline/internal/metrics"
	"firestige.xyz/faultline/internal/proxy"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the proxy",
	Long: `
Start the faultline proxy and serve until interrupted.

Examples:
  faultline start                 # Start with the default config file
  faultline start -c fault.yml    # Start with a specific config file
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			srv := metrics.NewServer(cfg.Metrics)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Stop()
		}

		if err := proxy.New(cfg).Run(ctx); err != nil {
			return err
		}
		slog.Info("faultline stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
