package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "submit <version-id>",
		Short: "Submit a draft version for approval",
		Long:  "Moves a draft to pending_approval. Once submitted, the item set and tester decisions are frozen until the version is decided.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			v, err := versionManager(cfg, gormDB).Submit(versionID, actorOrDefault(actor), notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted version %d of %s/%s for approval\n", v.Number, v.ArtifactKind, v.ArtifactID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&notes, "notes", "", "submission notes")
	return cmd
}

func newApproveCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "approve <version-id>",
		Short: "Approve a pending version",
		Long: `Approves a pending version: unreviewed items are marked approved, any
older approved version of the artifact is superseded. Fails while any item
carries a rejected or needs_revision review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			v, err := versionManager(cfg, gormDB).Approve(versionID, actorOrDefault(actor), notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved version %d of %s/%s\n", v.Number, v.ArtifactKind, v.ArtifactID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&notes, "notes", "", "approval notes")
	return cmd
}

func newRejectCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "reject <version-id>",
		Short: "Reject a pending version",
		Long:  "Rejects a pending version with a reason. The artifact can then be resubmitted as a new draft.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			v, err := versionManager(cfg, gormDB).Reject(versionID, actorOrDefault(actor), reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected version %d of %s/%s\n", v.Number, v.ArtifactKind, v.ArtifactID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (required)")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func newResubmitCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "resubmit <kind/id>",
		Short: "Open a new draft from the latest rejected version",
		Long: `Creates a new draft carrying the rejected version's items forward:
items the reviewer approved stay resolved, everything else resets so the
authoring role re-decides only what was contested.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			v, err := versionManager(cfg, gormDB).Resubmit(ref, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft version %d of %s (id %d, carried %d items)\n",
				v.Number, ref, v.ID, len(v.Items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}
