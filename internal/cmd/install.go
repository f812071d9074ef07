package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/catalog"
	"github.com/jmgilman/shelf/internal/install"
	"github.com/jmgilman/shelf/internal/installer"
	"github.com/jmgilman/shelf/internal/prompt"
	"github.com/jmgilman/shelf/internal/slogger"
)

var errNeedsConfirmation = errors.New("plugin is flagged by its registry, rerun with --yes to install it anyway")

var installCmd = &cobra.Command{
	Use:   "install <name|identity>",
	Short: "Install a plugin",
	Long: `Install a plugin from the catalog by name or by identity (its install URL).

Plugins marked broken, marked with another non-working status, or carrying a
warning message ask for confirmation first. Use --yes to skip the question,
which is required when no terminal is attached.`,
	Example: `  # Install by name
  shelf install "Message Logger"

  # Install by identity
  shelf install https://plugins.example.com/message-logger/

  # Install a flagged plugin without asking
  shelf install "Old Plugin" --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return fmt.Errorf("get yes flag: %w", err)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		if err := a.refresh(ctx); err != nil {
			return err
		}

		var p prompt.Prompter
		if interactive() {
			p = newPrompter()
		}

		entry, err := lookupForInstall(a, args[0], p)
		if err != nil {
			return err
		}

		ok, err := a.coordinator.PromptThenInstall(ctx, entry, confirmerFor(entry, yes, p))
		switch {
		case errors.Is(err, install.ErrDeclined):
			if p == nil && !yes {
				return errNeedsConfirmation
			}
			fmt.Println("Install canceled")
			return nil
		case errors.Is(err, installer.ErrAlreadyInstalled):
			fmt.Printf("%s is already installed\n", bold(entry.Name))
			return nil
		case err != nil:
			return err
		case !ok:
			fmt.Printf("%s is already being installed\n", bold(entry.Name))
			return nil
		}

		slogger.L(ctx).Info("installed plugin", "identity", entry.Identity, "source", entry.SourceKey)
		fmt.Printf("%s %s\n", green("Installed"), bold(entry.Name))
		return nil
	},
}

// lookupForInstall resolves ref against the catalog. An identity that no
// enabled registry lists is installed as given.
func lookupForInstall(a *app, ref string, p prompt.Prompter) (catalog.Entry, error) {
	var pick func([]catalog.Entry) (int, error)
	if p != nil {
		pick = pickWith(p)
	}

	entry, err := resolveEntry(a.session, ref, pick)
	if errors.Is(err, errNoMatch) && looksLikeURL(ref) {
		id := identityOf(ref)
		entry = catalog.Entry{}
		entry.Identity = id
		entry.Name = id
		entry.InstallURL = ref
		return entry, nil
	}
	return entry, err
}

// confirmerFor decides how a flagged entry is confirmed: --yes approves,
// a terminal asks, and anything else declines.
func confirmerFor(entry catalog.Entry, yes bool, p prompt.Prompter) install.Confirmer {
	if yes {
		return install.ConfirmFunc(func(string, string) (bool, error) { return true, nil })
	}
	if p == nil {
		return nil
	}
	w, _ := install.WarningFor(entry.Entry)
	return install.ConfirmFunc(func(title, description string) (bool, error) {
		return p.ConfirmAction(title, bold(entry.Name)+"\n\n"+description, w.Action)
	})
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().BoolP("yes", "y", false, "install flagged plugins without asking")
}
