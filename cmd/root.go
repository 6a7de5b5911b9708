// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "faultline",
	Short: "Faultline - protocol-aware fault-injection proxy for transfer testing",
	Long: `Faultline is an intercepting proxy that sits between a device and a host
exchanging a reliable-transfer protocol. It observes the framed packet
stream and deliberately reorders, drops, delays or gates packets
according to configurable fault policies, synchronized with the
protocol's own flow control events.

Typical use is integration testing of transfer implementations: point
the device at faultline's listen address, point faultline at the real
host, and describe the fault filter stacks for each direction in the
config file.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "faultline.yml",
		"config file path")
}
