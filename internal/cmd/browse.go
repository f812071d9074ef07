package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/settings"
	"github.com/jmgilman/shelf/internal/view"
)

var browseCmd = &cobra.Command{
	Use:     "browse [query]",
	Aliases: []string{"search", "ls"},
	Short:   "List plugins from the enabled registries",
	Long: `Fetch every enabled registry and list the combined catalog.

The optional query matches plugin names, descriptions and authors,
ignoring case. Registries that cannot be reached are reported and skipped;
the rest of the catalog is still shown.`,
	Example: `  # Everything, in the saved sort order
  shelf browse

  # Search and sort alphabetically
  shelf browse theme --sort name-asc

  # Machine readable output
  shelf browse --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sortName, err := cmd.Flags().GetString("sort")
		if err != nil {
			return fmt.Errorf("get sort flag: %w", err)
		}
		asJSON, err := cmd.Flags().GetBool("json")
		if err != nil {
			return fmt.Errorf("get json flag: %w", err)
		}
		onlyInstalled, err := cmd.Flags().GetBool("installed")
		if err != nil {
			return fmt.Errorf("get installed flag: %w", err)
		}

		var order settings.SortOrder
		if sortName != "" {
			if order, err = settings.ParseSortOrder(sortName); err != nil {
				return err
			}
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

		var query string
		if len(args) == 1 {
			query = args[0]
		}
		rows := a.session.View(query, order)
		if onlyInstalled {
			rows = installedRows(rows)
		}

		if asJSON {
			return writeRowsJSON(os.Stdout, rows)
		}
		if len(rows) == 0 {
			fmt.Println("No plugins found")
			return nil
		}
		return writeRows(os.Stdout, rows)
	},
}

func installedRows(rows []view.Row) []view.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if r.State.Installed {
			out = append(out, r)
		}
	}
	return out
}

func writeRows(out io.Writer, rows []view.Row) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "NAME\tAUTHORS\tSOURCE\tIDENTITY\tSTATE\tSTATUS"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, strings.Join(r.Authors, ", "), r.SourceKey, r.Identity,
			stateText(r.State), statusText(r.Status)); err != nil {
			return fmt.Errorf("write plugin: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

type rowJSON struct {
	Identity       string   `json:"identity"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Authors        []string `json:"authors"`
	Status         string   `json:"status"`
	InstallURL     string   `json:"installUrl"`
	SourceURL      string   `json:"sourceUrl,omitempty"`
	WarningMessage string   `json:"warningMessage,omitempty"`
	Source         string   `json:"source"`
	Section        string   `json:"section"`
	Installed      bool     `json:"installed"`
	Pending        bool     `json:"pending"`
}

func writeRowsJSON(out io.Writer, rows []view.Row) error {
	doc := make([]rowJSON, 0, len(rows))
	for _, r := range rows {
		authors := r.Authors
		if authors == nil {
			authors = []string{}
		}
		doc = append(doc, rowJSON{
			Identity:       r.Identity,
			Name:           r.Name,
			Description:    r.Description,
			Authors:        authors,
			Status:         r.Status,
			InstallURL:     r.InstallURL,
			SourceURL:      r.SourceURL,
			WarningMessage: r.WarningMessage,
			Source:         r.SourceKey,
			Section:        string(r.Section),
			Installed:      r.State.Installed,
			Pending:        r.State.Pending,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode plugins: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().StringP("sort", "s", "", "sort order (newest, oldest, name-asc, name-desc, working-first, broken-first)")
	browseCmd.Flags().Bool("json", false, "print the catalog as JSON")
	browseCmd.Flags().Bool("installed", false, "only list installed plugins")
}
