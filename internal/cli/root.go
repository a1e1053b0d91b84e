// Package cli implements the rxplay command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xinjiayu/rxcore/internal/config"
)

// NewRootCmd creates the rxplay root command with all subcommands.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "rxplay",
		Short: "Run reactive stream tutorial scenarios",
		Long:  "rxplay runs the rxcore tutorial scenarios, optionally recording streams and exporting traces.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Path to config file (default: ./rxplay.yaml or ~/.rxplay/config.yaml)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("rxplay version %s\n", version))

	root.AddCommand(NewListCmd())
	root.AddCommand(NewRunCmd())
	return root
}

// loadConfig resolves the config file and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	explicit, _ := cmd.Flags().GetString("config")
	cfg, path, err := config.Load(explicit)
	if err != nil {
		return nil, nil, exitError(exitConfig, "loading config: %v", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, logger, nil
}
