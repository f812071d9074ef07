package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/settings"
)

var sortCmd = &cobra.Command{
	Use:   "sort [order]",
	Short: "Show or change the catalog sort order",
	Long: `Show or change the default sort order of the catalog.

Valid orders: newest, oldest, name-asc, name-desc, working-first, broken-first.
The labels shown by "shelf sort" are accepted too.`,
	Example: `  shelf sort
  shelf sort name-asc
  shelf sort "Broken First"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			store, err := openSettings(cmd.Context())
			if err != nil {
				return err
			}
			current := store.Current().Sort
			for _, o := range settings.SortOrders() {
				marker := "  "
				if o == current {
					marker = green("* ")
				}
				fmt.Printf("%s%-14s %s\n", marker, o, dim(o.Label()))
			}
			return nil
		}

		order, err := settings.ParseSortOrder(args[0])
		if err != nil {
			return err
		}
		store, err := writableSettings(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := store.SetSort(cmd.Context(), order); err != nil {
			return err
		}
		fmt.Printf("Sort order set to %s\n", bold(order.Label()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sortCmd)
}
