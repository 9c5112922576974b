package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/extract"
	"github.com/ppiankov/pacta/internal/summary"
)

// promptsCmd represents the prompts command
var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List extraction strategies and summary templates",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Extraction strategies (tried in order):")
		for _, s := range extract.ListStrategies() {
			fmt.Printf("  %-12s %s — %s\n", s.Name, s.DisplayName, s.Description)
		}

		fmt.Println()
		fmt.Println("Summary templates:")
		for _, t := range summary.ListTemplates() {
			fmt.Printf("  %-12s %s — %s\n", t.Name, t.DisplayName, t.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(promptsCmd)
}
