package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		configPath string
		showAudit  bool
	)

	cmd := &cobra.Command{
		Use:   "history <kind/id>",
		Short: "Show an artifact's version history",
		Long:  "Lists every version of the artifact ascending, with its items. With --audit, appends the full audit trail.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, configPath, args[0], showAudit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().BoolVar(&showAudit, "audit", false, "include the audit trail")
	return cmd
}

func runHistory(cmd *cobra.Command, configPath, artifact string, showAudit bool) error {
	ref, err := parseRef(artifact)
	if err != nil {
		return err
	}
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	versions, err := versionManager(cfg, gormDB).History(ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(versions) == 0 {
		fmt.Fprintf(out, "No versions for %s.\n", ref)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tID\tSTATUS\tCREATED BY\tCREATED\tITEMS")
	for _, v := range versions {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d\n",
			v.Number, v.ID, v.Status, v.CreatedBy, v.CreatedAt.Format("2006-01-02 15:04"), len(v.Items))
	}
	w.Flush()

	for _, v := range versions {
		if len(v.Items) == 0 {
			continue
		}
		fmt.Fprintf(out, "\nVersion %d items:\n", v.Number)
		iw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(iw, "  ID\tITEM\tTESTER\tREVIEW\tBY")
		for _, it := range v.Items {
			tester := it.TesterDecision
			if tester == "" {
				tester = "-"
			}
			decision := "-"
			if it.ReviewDecision != nil {
				decision = *it.ReviewDecision
			}
			by := it.DecidedBy
			if by == "" {
				by = "-"
			}
			fmt.Fprintf(iw, "  %d\t%s\t%s\t%s\t%s\n", it.ID, it.ItemID, tester, decision, by)
		}
		iw.Flush()
	}

	if v := versions[len(versions)-1]; v.RejectReason != "" {
		fmt.Fprintf(out, "\nLatest rejection: %s\n", v.RejectReason)
	}

	if showAudit {
		events, err := audit.Trail(gormDB, ref.Kind, ref.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nAudit trail:")
		for _, ev := range events {
			fmt.Fprintf(out, "  [%s] v%d %s by %s", ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.VersionNumber, ev.Action, ev.Actor)
			if ev.Detail != "" && ev.Detail != "{}" {
				fmt.Fprintf(out, " %s", ev.Detail)
			}
			fmt.Fprintln(out)
		}
	}
	return nil
}
