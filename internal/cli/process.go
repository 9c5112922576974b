package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/pacta/internal/pipeline"
	"github.com/ppiankov/pacta/internal/worker"
)

var (
	processAll         bool
	processForce       bool
	processConcurrency int
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process [session-id...]",
	Short: "Run the AI pipeline over stored calls",
	Long: `Resolve speakers, summarize, and extract commitments for stored calls.

Without arguments, --all processes every call that has a transcript but no
summary yet. --force reprocesses calls that already have one.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processAll, "all", false, "process every unsummarized call")
	processCmd.Flags().BoolVar(&processForce, "force", false, "reprocess calls that already have a summary")
	processCmd.Flags().IntVar(&processConcurrency, "concurrency", 1, "number of calls processed in parallel")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessionIDs := args
	if len(sessionIDs) == 0 {
		if !processAll {
			return fmt.Errorf("pass session IDs or --all")
		}
		if processForce {
			listings, err := st.ListRecent(cmd.Context(), 10000)
			if err != nil {
				return err
			}
			for _, l := range listings {
				sessionIDs = append(sessionIDs, l.SessionID)
			}
		} else {
			sessionIDs, err = st.SessionsWithoutSummary(cmd.Context())
			if err != nil {
				return err
			}
		}
	}
	if len(sessionIDs) == 0 {
		fmt.Println("Nothing to process.")
		return nil
	}

	provider, err := newProvider()
	if err != nil {
		return err
	}
	c, err := newCache()
	if err != nil {
		return err
	}

	p := pipeline.New(st, c, provider, pipeline.Config{
		DefaultTemplate: viper.GetString("summary.template"),
		Model:           viper.GetString("llm.model"),
		CacheTTL:        viper.GetDuration("cache.ttl"),
	})

	batch := worker.NewBatchProcessor(p, processConcurrency)
	start := time.Now()
	results := batch.ProcessSessions(cmd.Context(), sessionIDs)

	processed := 0
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Printf("%-22s ERROR: %v\n", r.SessionID, r.Error)
			continue
		}
		processed++
		note := fmt.Sprintf("%d commitments", r.Outcome.Commitments)
		if r.Outcome.AISkipped {
			note = "AI skipped (provider unavailable)"
		}
		fmt.Printf("%-22s %s (%.1fs)\n", r.SessionID, note, r.Outcome.Elapsed.Seconds())
	}

	fmt.Printf("\nProcessed %d/%d calls in %.1fs (%d failed)\n",
		processed, len(sessionIDs), time.Since(start).Seconds(), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d calls failed", failed, len(sessionIDs))
	}
	return nil
}
