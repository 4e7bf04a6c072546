package cli

import (
	"fmt"
	"os"

	"promptcraft/internal/config"
	"promptcraft/internal/logger"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags
var Version = "dev"

var flagCatalog string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "promptcraft",
		Short:        "Answer seven questions and get a ready-to-use AI prompt",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "YAML question catalog (overrides CATALOG_PATH)")

	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() *config.Config {
	cfg := config.Load()
	if flagCatalog != "" {
		cfg.CatalogPath = flagCatalog
	}
	return cfg
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.App.Environment, cfg.App.LogFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}
