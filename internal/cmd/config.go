package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/shelf/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Show or change the shelf configuration",
	Long: `Show or change the configuration file (~/.config/shelf/config.yaml).

Without arguments the whole configuration is printed. With a key its value is
printed, and with a key and a value the value is written. Every key can also
be set through a SHELF_ environment variable, for example SHELF_HTTP_TIMEOUT.

The registry list and sort order are settings, not configuration; see
"shelf repos" and "shelf sort".`,
	Example: `  shelf config
  shelf config http.timeout
  shelf config storage.backend keyring
  shelf config --keys
  shelf config --edit`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		edit, err := cmd.Flags().GetBool("edit")
		if err != nil {
			return fmt.Errorf("get edit flag: %w", err)
		}
		listKeys, err := cmd.Flags().GetBool("keys")
		if err != nil {
			return fmt.Errorf("get keys flag: %w", err)
		}
		if listKeys {
			for _, k := range config.Keys() {
				fmt.Println(k)
			}
			return nil
		}

		loader, err := loaderFrom(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := loader.Load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if edit {
			return editConfig(loader.Path())
		}

		switch len(args) {
		case 0:
			return printYAML(loader.AllSettings())
		case 1:
			value, err := loader.Get(args[0])
			if err != nil {
				return err
			}
			switch v := value.(type) {
			case nil:
				fmt.Println()
			case map[string]any:
				return printYAML(v)
			default:
				fmt.Println(v)
			}
			return nil
		default:
			if err := loader.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		}
	},
}

func editConfig(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return config.ErrNoEditor
	}
	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("run %s: %w", editor, err)
	}
	return nil
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("edit", false, "open the config file in $EDITOR")
	configCmd.Flags().Bool("keys", false, "list every configuration key")
}
