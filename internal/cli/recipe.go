package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/recipe"
)

// recipeCmd represents the recipe command
var recipeCmd = &cobra.Command{
	Use:   "recipe <name> <session-id>",
	Short: "Run a named prompt over a stored call",
	Long: `Run a recipe (a named free-form prompt) over a stored call's transcript
and summary, printing the result.

Use "pacta recipes" to list what is available.`,
	Args: cobra.ExactArgs(2),
	RunE: runRecipe,
}

// recipesCmd represents the recipes command
var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List available recipes",
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range recipe.List() {
			fmt.Printf("%-16s %s — %s\n", r.Name, r.DisplayName, r.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(recipeCmd)
	rootCmd.AddCommand(recipesCmd)
}

func runRecipe(cmd *cobra.Command, args []string) error {
	name, sessionID := args[0], args[1]

	if _, ok := recipe.Get(name); !ok {
		return fmt.Errorf("unknown recipe: %s (see: pacta recipes)", name)
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no LLM provider configured (set llm.provider)")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	call, err := st.GetCall(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("call not found: %s", sessionID)
	}

	output, err := recipe.Run(cmd.Context(), provider, name, call.Transcript, call.Summary)
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}
