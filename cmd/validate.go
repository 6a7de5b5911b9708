package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/faultline/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file and print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		out, err := yaml.Marshal(map[string]*config.Config{"faultline": cfg})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config OK\n---\n%s", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
