package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/pacta/internal/extract"
	"github.com/ppiankov/pacta/internal/model"
	"github.com/ppiankov/pacta/internal/score"
	"github.com/ppiankov/pacta/internal/speaker"
	"github.com/ppiankov/pacta/internal/store"
	"github.com/ppiankov/pacta/internal/worker"
)

var (
	evalGroundTruth string
	evalPredictions string
	evalOutput      string
	evalSkipExtract bool
	evalConcurrency int
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate extraction quality against annotated ground truth",
	Long: `Run commitment extraction on every session listed in the ground truth
file, save the predictions, and score them.

The command exits non-zero when the ground truth carries annotations and
the aggregate F1 falls below the quality threshold.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalGroundTruth, "ground-truth", "g", "ground_truth.json", "path to ground truth JSON")
	evalCmd.Flags().StringVarP(&evalPredictions, "predictions", "p", "predictions.json", "path to save/load predictions JSON")
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", "results.json", "path to save evaluation results JSON")
	evalCmd.Flags().BoolVar(&evalSkipExtract, "skip-extract", false, "skip extraction, use existing predictions")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 1, "number of sessions extracted in parallel")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	groundTruth, err := loadSessionRecords(evalGroundTruth)
	if err != nil {
		return fmt.Errorf("load ground truth: %w (hint: annotate a copy of ground_truth_template.json)", err)
	}

	totalGT := 0
	for _, records := range groundTruth {
		totalGT += len(records.Commitments)
	}

	var predictions map[string]score.SessionRecords
	if evalSkipExtract {
		predictions, err = loadSessionRecords(evalPredictions)
		if err != nil {
			return fmt.Errorf("load predictions: %w", err)
		}
		fmt.Printf("Loaded existing predictions from %s\n", evalPredictions)
	} else {
		payloads, err := runEvalExtraction(cmd.Context(), groundTruth)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(payloads, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(evalPredictions, data, 0o644); err != nil {
			return fmt.Errorf("save predictions: %w", err)
		}
		fmt.Printf("\nPredictions saved to %s\n", evalPredictions)

		predictions = make(map[string]score.SessionRecords, len(payloads))
		for id, payload := range payloads {
			commitments, _ := payload["commitments"].([]map[string]any)
			predictions[id] = score.SessionRecords{Commitments: commitments}
		}
	}

	fmt.Println()
	report := score.Evaluate(groundTruth, predictions)
	fmt.Println(score.FormatReport(report, groundTruth, predictions, verbose))

	results, err := json.MarshalIndent(score.ReportJSON(report), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(evalOutput, results, 0o644); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	fmt.Printf("Results saved to %s\n", evalOutput)

	if totalGT == 0 {
		fmt.Println()
		fmt.Println("WARNING: Ground truth has 0 annotated commitments.")
		fmt.Println("The evaluation above only measures false positives from predictions.")
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  1. Copy ground_truth_template.json to ground_truth.json")
		fmt.Println("  2. Read transcripts for each session_id")
		fmt.Println("  3. Annotate commitments")
		fmt.Println("  4. Re-run: pacta eval")
	}

	if totalGT > 0 && report.F1() < score.ThresholdF1 {
		return fmt.Errorf("extraction quality below threshold: F1 %.4f < %.2f", report.F1(), score.ThresholdF1)
	}
	return nil
}

// loadSessionRecords reads a ground-truth-shaped JSON file, skipping
// underscore-prefixed metadata keys.
func loadSessionRecords(path string) (map[string]score.SessionRecords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	out := make(map[string]score.SessionRecords, len(raw))
	for id, blob := range raw {
		if len(id) > 0 && id[0] == '_' {
			continue
		}
		var records score.SessionRecords
		if err := json.Unmarshal(blob, &records); err != nil {
			return nil, fmt.Errorf("%s: session %s: %w", path, id, err)
		}
		out[id] = records
	}
	return out, nil
}

// evalSpeakerMap is the minimal map used during evaluation: extraction
// quality is measured independently of speaker resolution.
func evalSpeakerMap() speaker.Map {
	return speaker.Map{
		"SPEAKER_ME":    {"confirmed": true, "source": "mic_channel"},
		"SPEAKER_OTHER": {"name": nil, "confidence": 0.0, "source": nil},
	}
}

type evalJob struct {
	index     int
	sessionID string
	st        *store.Store
	extractor *extract.Extractor
}

type evalResult struct {
	index     int
	sessionID string
	line      string
	detail    []string
	payload   map[string]any
}

func (r *evalResult) GetError() error { return nil }

func (j *evalJob) Execute(ctx context.Context) worker.Result {
	res := &evalResult{index: j.index, sessionID: j.sessionID}

	call, err := j.st.GetCall(ctx, j.sessionID)
	if err != nil || call.Transcript == "" {
		res.line = "SKIP (no transcript)"
		res.payload = map[string]any{
			"commitments": []map[string]any{},
			"error":       "no transcript in database",
		}
		return res
	}

	callDate := ""
	if len(call.StartedAt) >= 10 {
		callDate = call.StartedAt[:10]
	}

	start := time.Now()
	result := j.extractor.Extract(ctx, call.Transcript, evalSpeakerMap(), callDate)
	elapsed := time.Since(start)

	chunks := result.Chunks
	if chunks == 0 {
		chunks = 1
	}
	plural := ""
	if chunks > 1 {
		plural = "s"
	}
	res.line = fmt.Sprintf("%d commitments (%d chunk%s, %.1fs)",
		len(result.Commitments), chunks, plural, elapsed.Seconds())

	for _, c := range result.Commitments {
		res.detail = append(res.detail, fmt.Sprintf("    [%s] %s: %s",
			anyField(c, "type", "direction"),
			anyField(c, "who", "committer_label"),
			anyField(c, "what", "commitment_text")))
	}
	if supported, total := extract.VerifyQuotes(normalizeRecords(result.Commitments), call.Transcript); total > 0 {
		res.detail = append(res.detail, fmt.Sprintf("    quotes supported: %d/%d", supported, total))
	}

	res.payload = map[string]any{
		"commitments":      result.Commitments,
		"extraction_notes": result.Notes,
		"chunks":           chunks,
		"elapsed_seconds":  math.Round(elapsed.Seconds()*10) / 10,
	}
	return res
}

// runEvalExtraction extracts commitments for every annotated session and
// returns the prediction payloads keyed by session ID.
func runEvalExtraction(ctx context.Context, groundTruth map[string]score.SessionRecords) (map[string]map[string]any, error) {
	provider, err := newProvider()
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider)")
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	sessionIDs := make([]string, 0, len(groundTruth))
	for id := range groundTruth {
		sessionIDs = append(sessionIDs, id)
	}
	sort.Strings(sessionIDs)

	fmt.Printf("Extracting commitments from %d sessions...\n", len(sessionIDs))
	fmt.Printf("Model: %s\n", viper.GetString("llm.model"))
	fmt.Printf("Database: %s\n", viper.GetString("db.path"))
	fmt.Println()

	extractor := extract.NewExtractor(provider)

	pool := worker.NewPool(evalConcurrency)
	pool.Start()
	for i, id := range sessionIDs {
		pool.Submit(&evalJob{index: i, sessionID: id, st: st, extractor: extractor})
	}
	results := pool.Wait()

	ordered := make([]*evalResult, len(sessionIDs))
	for _, r := range results {
		er := r.(*evalResult)
		ordered[er.index] = er
	}

	payloads := make(map[string]map[string]any, len(sessionIDs))
	for i, er := range ordered {
		fmt.Printf("[%d/%d] %s... %s\n", i+1, len(sessionIDs), er.sessionID, er.line)
		if verbose {
			for _, line := range er.detail {
				fmt.Println(line)
			}
		}
		payloads[er.sessionID] = er.payload
	}
	return payloads, nil
}

// normalizeRecords maps raw extraction output onto canonical commitments,
// dropping records that fail normalization.
func normalizeRecords(records []map[string]any) []model.Commitment {
	out := make([]model.Commitment, 0, len(records))
	for _, raw := range records {
		if c, ok := model.FromRaw(raw); ok {
			out = append(out, *c)
		}
	}
	return out
}

// anyField returns the first non-empty string value among keys, or "?".
func anyField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return "?"
}
