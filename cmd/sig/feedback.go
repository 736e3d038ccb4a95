package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/signoffhq/signoff/internal/review"
	"github.com/signoffhq/signoff/internal/workflow"
	"github.com/spf13/cobra"
)

func newFeedbackCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "feedback <kind/id>",
		Short: "Show the current review feedback for an artifact",
		Long: `Resolves the artifact's review feedback over its version history: the
most recent version carrying a verdict or any item-level review wins. Older
feedback stays visible until a newer version is actually reviewed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	return cmd
}

func runFeedback(cmd *cobra.Command, configPath, artifact string) error {
	ref, err := parseRef(artifact)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	history, err := versionManager(cfg, gormDB).History(ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fb := review.Resolve(history)
	if !fb.Reviewed {
		fmt.Fprintf(out, "No review feedback for %s yet.\n", ref)
		return nil
	}

	fmt.Fprintf(out, "Feedback from version %d (%s)\n", fb.Version.Number, fb.Version.Status)
	if fb.Version.RejectReason != "" {
		fmt.Fprintf(out, "Reason: %s\n", fb.Version.RejectReason)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tREVIEW\tBY\tNOTES")
	for _, it := range fb.Items {
		decision := "-"
		if it.ReviewDecision != nil {
			decision = *it.ReviewDecision
		}
		by := it.DecidedBy
		if by == "" {
			by = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ItemID, decision, by, truncate(it.ReviewNotes, titleWidth()))
	}
	w.Flush()

	counts := fb.Counts()
	parts := []string{}
	for _, d := range []string{workflow.ReviewApproved, workflow.ReviewRejected, workflow.ReviewNeedsRevision} {
		if counts[d] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[d], d))
		}
	}
	if counts[""] > 0 {
		parts = append(parts, fmt.Sprintf("%d unreviewed", counts[""]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(out, "\nSummary: %s\n", strings.Join(parts, ", "))
	}
	return nil
}
