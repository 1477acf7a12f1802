// Command emporia runs the storefront API and its maintenance tasks.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/emporia/emporia/internal/config"
	"github.com/emporia/emporia/internal/logging"
)

var flagConfigDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:          "emporia",
		Short:        "Emporia storefront backend",
		Long:         "Emporia serves the storefront REST API backed by MongoDB.",
		SilenceUsage: true,
		// Running without a subcommand starts the API.
		RunE: serve.RunE,
	}

	root.PersistentFlags().StringVar(&flagConfigDir, "config", config.DefaultConfigDir, "Directory holding config.yml, config.local.yml and config.env")

	root.AddCommand(serve, newRestockCmd())
	return root
}

// loadConfig reads the configuration and starts logging with it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigDir)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}
