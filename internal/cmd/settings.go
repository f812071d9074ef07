package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Export or import the registry settings",
	Long: `Export or import the registries, enabled set, mode and sort order as a
JSON, YAML or TOML document.`,
}

var settingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print or save the current settings",
	Example: `  shelf settings export
  shelf settings export -f yaml
  shelf settings export -o backup.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("get format flag: %w", err)
		}
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("get output flag: %w", err)
		}

		format := settings.FormatJSON
		switch {
		case cmd.Flags().Changed("format"):
			if format, err = settings.ParseFormat(formatName); err != nil {
				return err
			}
		case output != "":
			format = settings.FormatFromPath(output)
		}

		store, err := openSettings(cmd.Context())
		if err != nil {
			return err
		}
		data, err := settings.Marshal(store.Current(), format)
		if err != nil {
			return err
		}

		if output == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(output, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Printf("Settings written to %s\n", output)
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the settings with a saved document",
	Long: `Replace the current settings with a document written by "shelf settings
export". The format follows the file extension unless --format is given.
Fields missing from the document take their default values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("get format flag: %w", err)
		}
		format := settings.FormatFromPath(args[0])
		if cmd.Flags().Changed("format") {
			if format, err = settings.ParseFormat(formatName); err != nil {
				return err
			}
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		next, err := settings.Unmarshal(data, format)
		if err != nil {
			return err
		}

		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}
		cur, err := store.Replace(cmd.Context(), next)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d registries (%d enabled)\n", green("Imported"), len(cur.Sources), len(cur.EnabledKeys))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)

	settingsExportCmd.Flags().StringP("format", "f", "json", "document format (json, yaml, toml)")
	settingsExportCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
	settingsImportCmd.Flags().StringP("format", "f", "", "document format, defaults to the file extension")
}
