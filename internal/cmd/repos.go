package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/settings"
)

var errNoArgs = errors.New("missing arguments, pass them on the command line when no terminal is attached")

var reposCmd = &cobra.Command{
	Use:     "repos",
	Aliases: []string{"registries"},
	Short:   "Manage plugin registries",
	Long: `Manage the registries the catalog is assembled from.

In multi mode any number of registries can be enabled at once. In single mode
exactly one registry is enabled, and enabling another one replaces it.`,
}

var reposListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registries",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSettings(cmd.Context())
		if err != nil {
			return err
		}
		cur := store.Current()

		mode := "single"
		if cur.MultiMode {
			mode = "multi"
		}
		fmt.Printf("Mode: %s\n\n", bold(mode))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "KEY\tNAME\tENABLED\tURL"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, src := range cur.Sources {
			enabled := dim("no")
			if cur.IsEnabled(src.Key) {
				enabled = green("yes")
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.Key, src.Name, enabled, src.URL); err != nil {
				return fmt.Errorf("write registry: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	},
}

var reposAddCmd = &cobra.Command{
	Use:   "add [name] [url]",
	Short: "Add a registry",
	Long: `Add a registry and enable it. Missing arguments are asked for when a
terminal is attached.`,
	Example: `  shelf repos add "My Plugins" https://example.com/plugins.json`,
	Args:    cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}

		name, link, err := sourceArgs(args)
		if err != nil {
			return err
		}

		src, err := store.AddSource(cmd.Context(), name, link)
		if err != nil {
			return err
		}
		fmt.Printf("%s registry %s (%s)\n", green("Added"), bold(src.Name), src.Key)
		return nil
	},
}

// sourceArgs returns the name and URL of a new registry, prompting for the
// ones not given on the command line.
func sourceArgs(args []string) (string, string, error) {
	name, link := "", ""
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		link = args[1]
	}
	if name != "" && link != "" {
		return name, link, nil
	}
	if !interactive() {
		return "", "", errNoArgs
	}

	p := newPrompter()
	var err error
	if name == "" {
		name, err = p.Input("Registry name", "My Plugins", func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("name is required")
			}
			return nil
		})
		if err != nil {
			return "", "", err
		}
	}
	if link == "" {
		link, err = p.Input("Registry URL", "https://example.com/plugins.json", validateURL)
		if err != nil {
			return "", "", err
		}
	}
	return name, link, nil
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter an absolute URL")
	}
	return nil
}

var reposRemoveCmd = &cobra.Command{
	Use:     "rm <key>",
	Aliases: []string{"remove"},
	Short:   "Remove a registry",
	Long:    `Remove a registry. The built-in registries cannot be removed, only disabled.`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := store.RemoveSource(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s registry %s\n", green("Removed"), bold(args[0]))
		return nil
	},
}

var reposEnableCmd = &cobra.Command{
	Use:   "enable <key>",
	Short: "Enable a registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceEnabled(cmd, args[0], true)
	},
}

var reposDisableCmd = &cobra.Command{
	Use:   "disable <key>",
	Short: "Disable a registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setSourceEnabled(cmd, args[0], false)
	},
}

func setSourceEnabled(cmd *cobra.Command, key string, enabled bool) error {
	store, err := writableSettings(cmd.Context())
	if err != nil {
		return err
	}
	cur, err := store.SetEnabled(cmd.Context(), key, enabled)
	if err != nil {
		return err
	}

	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	fmt.Printf("%s registry %s\n", green(verb), bold(key))
	if len(cur.EnabledKeys) == 0 {
		fmt.Println(yellow("No registries are enabled, the catalog will be empty"))
	}
	return nil
}

var reposSelectCmd = &cobra.Command{
	Use:   "select [key]",
	Short: "Enable only one registry",
	Long: `Enable exactly one registry and disable the others. Without a key the
registry is picked from a list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			if key, err = pickSource(store.Current()); err != nil {
				return err
			}
		}

		if _, err := store.Select(cmd.Context(), key); err != nil {
			return err
		}
		fmt.Printf("%s registry %s\n", green("Selected"), bold(key))
		return nil
	},
}

func pickSource(cur settings.Settings) (string, error) {
	if !interactive() {
		return "", errNoArgs
	}
	options := make([]string, len(cur.Sources))
	selected := 0
	for i, src := range cur.Sources {
		options[i] = fmt.Sprintf("%s (%s)", src.Name, src.Key)
		if len(cur.EnabledKeys) > 0 && cur.EnabledKeys[0] == src.Key {
			selected = i
		}
	}
	i, err := newPrompter().Choice("Select a registry", options, selected)
	if err != nil {
		return "", err
	}
	return cur.Sources[i].Key, nil
}

var reposModeCmd = &cobra.Command{
	Use:       "mode [multi|single]",
	Short:     "Show or change the registry mode",
	Long:      `Show or change whether more than one registry can be enabled at once.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"multi", "single"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			store, err := openSettings(cmd.Context())
			if err != nil {
				return err
			}
			if store.Current().MultiMode {
				fmt.Println("multi")
			} else {
				fmt.Println("single")
			}
			return nil
		}

		var on bool
		switch strings.ToLower(args[0]) {
		case "multi":
			on = true
		case "single":
			on = false
		default:
			return fmt.Errorf("invalid mode %q (valid: multi, single)", args[0])
		}

		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}
		cur, err := store.SetMultiMode(cmd.Context(), on)
		if err != nil {
			return err
		}
		fmt.Printf("Registry mode set to %s\n", bold(args[0]))
		if !on && len(cur.EnabledKeys) == 1 {
			fmt.Printf("Enabled registry: %s\n", cur.EnabledKeys[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reposCmd)

	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposAddCmd)
	reposCmd.AddCommand(reposRemoveCmd)
	reposCmd.AddCommand(reposEnableCmd)
	reposCmd.AddCommand(reposDisableCmd)
	reposCmd.AddCommand(reposSelectCmd)
	reposCmd.AddCommand(reposModeCmd)
}
