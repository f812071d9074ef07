package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/installer"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <name|identity>",
	Aliases: []string{"remove"},
	Short:   "Uninstall a plugin",
	Long: `Uninstall a plugin by identity, or by name when it is listed by an
enabled registry.`,
	Example: `  shelf uninstall https://plugins.example.com/message-logger/
  shelf uninstall "Message Logger"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		id := identityOf(args[0])
		name := id
		if !slices.Contains(a.installer.Installed(), id) {
			if err := a.refresh(ctx); err != nil {
				return err
			}
			var pick func([]catalog.Entry) (int, error)
			if interactive() {
				pick = pickWith(newPrompter())
			}
			entry, err := resolveEntry(a.session, args[0], pick)
			if err != nil {
				return err
			}
			id, name = entry.Identity, entry.Name
		}

		if err := a.coordinator.Uninstall(ctx, id); err != nil {
			if errors.Is(err, installer.ErrNotInstalled) {
				return fmt.Errorf("%s is not installed", name)
			}
			return err
		}

		fmt.Printf("%s %s\n", green("Uninstalled"), bold(name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
