package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmgilman/shelf/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Tools for registry authors",
}

var registryLintCmd = &cobra.Command{
	Use:   "lint <url|file>",
	Short: "Check a registry document against the registry schema",
	Long: `Check a registry document against the registry schema and report every
violation. Documents that fail the check may still load in the catalog, since
unknown and malformed entries are skipped when fetching.`,
	Example: `  shelf registry lint ./plugins.json
  shelf registry lint https://example.com/plugins.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ref := args[0]

		var data []byte
		var err error
		if looksLikeURL(ref) {
			cfg, cerr := configFrom(ctx)
			if cerr != nil {
				return cerr
			}
			fetcher := registry.NewFetcher(httpClient(cfg), registry.WithUserAgent(userAgent(cfg)))
			data, err = fetcher.Download(ctx, ref)
		} else {
			data, err = os.ReadFile(ref)
		}
		if err != nil {
			return fmt.Errorf("read registry: %w", err)
		}

		result, err := registry.Lint(data)
		if err != nil {
			return err
		}
		if result.Valid {
			fmt.Printf("%s %s (%d plugins)\n", green("Valid"), ref, result.Entries)
			return nil
		}

		fmt.Printf("%s %s (%d plugins would load)\n", red("Invalid"), ref, result.Entries)
		for _, issue := range result.Issues {
			fmt.Printf("  %s\n", issue)
		}
		return fmt.Errorf("%d schema violations", len(result.Issues))
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryLintCmd)
}
