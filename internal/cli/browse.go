package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/store"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Full-text search across all calls",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		query := strings.Join(args, " ")
		hits, err := st.Search(cmd.Context(), query, 20)
		if err != nil {
			return err
		}

		if len(hits) == 0 {
			fmt.Printf("No results for: %s\n", query)
			return nil
		}

		fmt.Printf("Found %d result(s) for: %s\n\n", len(hits), query)
		for _, h := range hits {
			fmt.Printf("  %s  %-15s  %s  %s\n",
				h.SessionID, h.AppName, fmtDate(h.StartedAt), fmtDuration(h.DurationSeconds))
			if h.Snippet != "" {
				fmt.Printf("    ...%s...\n", h.Snippet)
			}
			fmt.Println()
		}
		return nil
	},
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [N]",
	Short: "List recent calls (default: 20)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := 20
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid limit: %s", args[0])
			}
			limit = n
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		calls, err := st.ListRecent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			fmt.Println("No calls recorded yet.")
			return nil
		}

		fmt.Printf("%-20s  %-15s  %-16s  %8s  Summary\n", "Session ID", "App", "Date", "Duration")
		fmt.Println(strings.Repeat("-", 90))
		for _, c := range calls {
			preview := c.SummaryText
			if len(preview) > 50 {
				preview = preview[:50]
			}
			fmt.Printf("%-20s  %-15s  %-16s  %8s  %s\n",
				c.SessionID, c.AppName, fmtDate(c.StartedAt), fmtDuration(c.DurationSeconds), preview)
		}
		return nil
	},
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show full details of a call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		call, err := st.GetCall(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("call not found: %s", args[0])
		}

		fmt.Printf("Session:  %s\n", call.SessionID)
		fmt.Printf("App:      %s\n", call.AppName)
		fmt.Printf("Started:  %s\n", fmtDate(call.StartedAt))
		fmt.Printf("Ended:    %s\n", fmtDate(call.EndedAt))
		fmt.Printf("Duration: %s\n", fmtDuration(call.DurationSeconds))
		fmt.Println()

		if call.Summary != nil {
			printSummary(call.Summary)
		}

		if entities, err := st.EntitiesBySession(cmd.Context(), call.SessionID); err == nil && len(entities) > 0 {
			names := make([]string, 0, len(entities))
			for _, e := range entities {
				names = append(names, e.Name)
			}
			fmt.Printf("Entities: %s\n\n", strings.Join(names, ", "))
		}

		if commitments, err := st.CommitmentsBySession(cmd.Context(), call.SessionID); err == nil && len(commitments) > 0 {
			fmt.Println("=== COMMITMENTS ===")
			for _, c := range commitments {
				fmt.Printf("  %s\n", commitmentLine(c))
			}
			fmt.Println()
		}

		if call.Transcript != "" {
			fmt.Println("=== TRANSCRIPT ===")
			fmt.Println(call.Transcript)
		}
		return nil
	},
}

// actionsCmd represents the actions command
var actionsCmd = &cobra.Command{
	Use:   "actions [days]",
	Short: "Show action items (default: 7 days)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := 7
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid day count: %s", args[0])
			}
			days = n
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		groups, err := st.ActionItems(cmd.Context(), days)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Printf("No action items in the last %d days.\n", days)
			return nil
		}

		fmt.Printf("Action items from the last %d days:\n\n", days)
		for _, g := range groups {
			fmt.Printf("  %s — %s\n", g.AppName, fmtDate(g.StartedAt))
			for _, item := range g.Items {
				fmt.Printf("    [ ] %s\n", item)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(actionsCmd)
}

// printSummary renders the structured summary sections a template may
// produce. Unknown sections are ignored.
func printSummary(s map[string]any) {
	fmt.Println("=== SUMMARY ===")
	if text, ok := s["summary"].(string); ok {
		fmt.Println(text)
	}
	fmt.Println()

	printBullets(s, "key_points", "Key points:")
	printBullets(s, "decisions", "Decisions:")

	if items := stringList(s["action_items"]); len(items) > 0 {
		fmt.Println("Action items:")
		for _, a := range items {
			fmt.Printf("  [ ] %s\n", a)
		}
		fmt.Println()
	}

	if participants := stringList(s["participants"]); len(participants) > 0 {
		fmt.Printf("Participants: %s\n\n", strings.Join(participants, ", "))
	}
}

func printBullets(s map[string]any, key, label string) {
	items := stringList(s[key])
	if len(items) == 0 {
		return
	}
	fmt.Println(label)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
	fmt.Println()
}

func commitmentLine(c store.StoredCommitment) string {
	who := c.WhoName
	if who == "" {
		who = c.WhoLabel
	}
	line := fmt.Sprintf("[%s] %s: %s", c.Direction, who, c.Text)
	if c.DeadlineRaw != "" {
		line += fmt.Sprintf(" (by %s)", c.DeadlineRaw)
	}
	if c.Status != store.StatusOpen {
		line += fmt.Sprintf(" [%s]", c.Status)
	}
	return line
}

// stringList coerces a decoded JSON array into its string members.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
