package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/importer"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <dir | file...>",
	Short: "Import transcript files into the calls database",
	Long: `Import transcripts from a directory or explicit file list.

Supported formats: Whisper JSON, WebVTT, HTML exports, and plain text.
Session IDs are derived from file modification times; the recording app is
guessed from the filename.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	im := importer.New(st)

	var results []importer.Result
	if len(args) == 1 {
		if info, statErr := os.Stat(args[0]); statErr == nil && info.IsDir() {
			results, err = im.ImportDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
		}
	}
	if results == nil {
		results = im.ImportFiles(cmd.Context(), args)
	}

	imported := 0
	skipped := 0
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("FAIL  %s: %v\n", r.Path, r.Err)
		case r.Skipped:
			skipped++
			fmt.Printf("SKIP  %s (empty)\n", r.Path)
		default:
			imported++
			fmt.Printf("OK    %s -> %s (%s, %s)\n", r.Path, r.SessionID, r.AppName, r.Format)
		}
	}

	fmt.Printf("\nImported %d, skipped %d, failed %d\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d files failed to import", failed)
	}
	return nil
}
