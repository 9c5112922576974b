package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pacta/internal/store"
)

// commitmentsCmd represents the commitments command
var commitmentsCmd = &cobra.Command{
	Use:   "commitments [session-id]",
	Short: "List extracted commitments",
	Long: `List open commitments across all calls, or every commitment of one
session when a session ID is given.

Mark them with "pacta commitments done <id>" or "pacta commitments drop <id>".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommitments,
}

var commitmentsDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a commitment as fulfilled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCommitmentStatus(cmd, args[0], store.StatusDone)
	},
}

var commitmentsDropCmd = &cobra.Command{
	Use:   "drop <id>",
	Short: "Mark a commitment as no longer relevant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCommitmentStatus(cmd, args[0], store.StatusDropped)
	},
}

func init() {
	commitmentsCmd.AddCommand(commitmentsDoneCmd)
	commitmentsCmd.AddCommand(commitmentsDropCmd)
	rootCmd.AddCommand(commitmentsCmd)
}

func runCommitments(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var commitments []store.StoredCommitment
	if len(args) == 1 {
		commitments, err = st.CommitmentsBySession(cmd.Context(), args[0])
	} else {
		commitments, err = st.PendingCommitments(cmd.Context())
	}
	if err != nil {
		return err
	}

	if len(commitments) == 0 {
		fmt.Println("No commitments.")
		return nil
	}

	session := ""
	for _, c := range commitments {
		if c.SessionID != session {
			session = c.SessionID
			fmt.Printf("%s\n", session)
		}
		fmt.Printf("  #%d %s\n", c.ID, commitmentLine(c))
	}
	return nil
}

func setCommitmentStatus(cmd *cobra.Command, arg, status string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid commitment id: %s", arg)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpdateCommitmentStatus(cmd.Context(), id, status); err != nil {
		return err
	}
	fmt.Printf("Commitment #%d marked %s\n", id, status)
	return nil
}
