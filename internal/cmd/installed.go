package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var installedCmd = &cobra.Command{
	Use:   "installed",
	Short: "List installed plugins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		records, err := a.installer.List(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No plugins installed")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "IDENTITY\tMANIFEST\tINSTALLED"); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, r := range records {
			installedAt := "-"
			if !r.InstalledAt.IsZero() {
				installedAt = humanize.Time(r.InstalledAt)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Identity, humanize.Bytes(uint64(r.Size)), installedAt); err != nil {
				return fmt.Errorf("write plugin: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installedCmd)
}
