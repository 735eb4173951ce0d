package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getcharzp/go-ppocr/internal/store"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 100, "Maximum results to return")
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search recognized text of indexed images",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]

		db, err := store.NewDB(getStoragePath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		matches, err := db.Search(query, searchLimit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if getOutputFormat() == "json" {
			return outputJSON(map[string]any{
				"query":   query,
				"count":   len(matches),
				"results": matches,
			})
		}

		if len(matches) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Printf("Found %d results for \"%s\":\n\n", len(matches), query)
		for _, m := range matches {
			headerColor.Printf("%s\n", m.Path)
			textColor.Printf("  %s", m.Text)
			dimColor.Printf("  conf=%.3f\n", m.Confidence)
		}
		return nil
	},
}
