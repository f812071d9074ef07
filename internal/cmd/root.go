// Package cmd implements the shelf CLI commands using Cobra. shelf browses
// plugin registries, keeps the list of registries and their settings, and
// installs or removes plugins.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/config"
	"github.com/jmgilman/shelf/internal/slogger"
)

// appConfig holds the loaded application configuration.
var appConfig *config.Config

// configLoader is kept for commands that read or write single keys.
var configLoader *config.Loader

var rootCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Browse and install plugins from remote registries",
	Long: `shelf aggregates plugin listings from one or more remote JSON registries
into a single searchable catalog and manages which plugins are installed.

Registries are configured with "shelf repos". Settings such as the enabled
registries and the sort order persist between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, err := cmd.Flags().GetCount("verbose")
		if err != nil {
			return fmt.Errorf("get verbose flag: %w", err)
		}

		formatName, err := cmd.Flags().GetString("log-format")
		if err != nil {
			return fmt.Errorf("get log-format flag: %w", err)
		}
		if !cmd.Flags().Changed("log-format") && appConfig != nil {
			formatName = appConfig.Log.Format
		}
		format, err := slogger.ParseFormat(formatName)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = slogger.WithLogger(ctx, slogger.New(slogger.Config{
			Verbosity: verbosity,
			Format:    format,
		}))
		ctx = WithConfig(ctx, appConfig)
		ctx = WithLoader(ctx, configLoader)
		cmd.SetContext(ctx)

		return nil
	},
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().String("log-format", "text", "log output format (text or json)")
}

func initConfig() {
	loader, err := config.NewLoader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
		return
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	appConfig = cfg
	configLoader = loader
}
