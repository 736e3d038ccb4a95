package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sig",
		Short: "Signoff — versioned approval workflow engine",
		Long:  "Signoff runs reviewable artifacts through draft, submission, multi-role review and sign-off, with SLA-tracked handoffs between roles.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newDraftCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newApproveCmd())
	cmd.AddCommand(newRejectCmd())
	cmd.AddCommand(newResubmitCmd())
	cmd.AddCommand(newDecideCmd())
	cmd.AddCommand(newBulkCmd())
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newActivityCmd())
	cmd.AddCommand(newAssignmentCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sig %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
