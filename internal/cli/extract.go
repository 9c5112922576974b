package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/extract"
	"github.com/ppiankov/pacta/internal/speaker"
)

var extractDate string

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <transcript-file | session-id>",
	Short: "Extract commitments from a transcript",
	Long: `Extract commitments from a transcript file or a stored call session.

The argument is tried as a file path first; if no such file exists it is
looked up as a session ID in the calls database. The extraction result is
printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDate, "date", "", "call date (YYYY-MM-DD) for deadline resolution")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	provider, err := newProvider()
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no LLM provider configured (set llm.provider)")
	}

	transcript, speakers, callDate, err := extractionInput(cmd, args[0])
	if err != nil {
		return err
	}
	if extractDate != "" {
		callDate = extractDate
	}

	extractor := extract.NewExtractor(provider)
	result := extractor.Extract(cmd.Context(), transcript, speakers, callDate)

	payload, err := json.MarshalIndent(map[string]any{
		"commitments":      result.Commitments,
		"extraction_notes": result.Notes,
		"chunks":           result.Chunks,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(payload))
	return nil
}

// extractionInput resolves the positional argument to transcript text and a
// speaker map. Files use the fallback map; stored sessions use their
// segments when present.
func extractionInput(cmd *cobra.Command, arg string) (string, speaker.Map, string, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", nil, "", err
		}
		return string(data), speaker.Fallback(), info.ModTime().Format("2006-01-02"), nil
	}

	st, err := openStore()
	if err != nil {
		return "", nil, "", err
	}
	defer st.Close()

	call, err := st.GetCall(cmd.Context(), arg)
	if err != nil {
		return "", nil, "", fmt.Errorf("not a file and not a stored session: %s", arg)
	}

	speakers := speaker.Fallback()
	transcript := call.Transcript
	if len(call.Segments) > 0 {
		transcript = speaker.FormatTranscript(call.Segments, speakers)
	}

	callDate := ""
	if len(call.StartedAt) >= 10 {
		callDate = call.StartedAt[:10]
	}
	return transcript, speakers, callDate, nil
}
