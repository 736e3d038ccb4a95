package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/decision"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDecideCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "decide <item-id> <approved|rejected|needs_revision>",
		Short: "Record a reviewer decision on one item",
		Long: `Records the reviewing role's decision on an item of a pending version.
Item ids are the numeric ids printed by history and draft add-item. When the
decision completes a version's review, the version's verdict is derived
automatically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseID(args[0], "item")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			outcome, err := decisionProcessor(cfg, gormDB).Apply(itemID, args[1], notes, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s (item %d, version %d)\n",
				outcome.Action, outcome.Item, outcome.ItemID, outcome.VersionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	return cmd
}

func newBulkCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "bulk <approved|rejected|needs_revision> <item-id>...",
		Short: "Apply one reviewer decision to a batch of items",
		Long: `Applies the same decision to every item in the batch, which may span
versions. The batch is all-or-nothing: if any item is missing or belongs to a
version that is not pending approval, nothing is applied and every violation
is reported.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemIDs := make([]uint, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID(arg, "item")
				if err != nil {
					return err
				}
				itemIDs = append(itemIDs, id)
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			outcomes, err := decisionProcessor(cfg, gormDB).ApplyBulk(itemIDs, args[0], notes, actorOrDefault(actor))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tVERSION\tACTION")
			for _, o := range outcomes {
				fmt.Fprintf(w, "%s (%d)\t%d\t%s\n", o.Item, o.ItemID, o.VersionID, o.Action)
			}
			w.Flush()
			fmt.Fprintf(out, "\nDecided %d item(s)\n", len(outcomes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&notes, "notes", "", "review notes applied to every item")
	return cmd
}

func decisionProcessor(cfg *config.Config, gormDB *gorm.DB) *decision.Processor {
	return &decision.Processor{
		DB:     gormDB,
		Oracle: oracleFrom(cfg),
		Gates:  gatesFrom(cfg),
	}
}
