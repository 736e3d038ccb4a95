package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/signoffhq/signoff/internal/activity"
	"github.com/signoffhq/signoff/internal/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Phase activity commands",
		Long:  "Manages the activities of an engagement phase. An activity may only start once every lower-ordered activity in its phase has completed.",
	}

	cmd.AddCommand(newActivityDefineCmd())
	cmd.AddCommand(newActivityStartCmd())
	cmd.AddCommand(newActivityCompleteCmd())
	cmd.AddCommand(newActivityReviseCmd())
	cmd.AddCommand(newActivityListCmd())
	return cmd
}

func newActivityDefineCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		ordering   int
	)

	cmd := &cobra.Command{
		Use:   "define <phase> <name>",
		Short: "Define an activity within a phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			act, err := activityTracker(cfg, gormDB).Define(args[0], args[1], ordering, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Defined %s in phase %s (ordering %d)\n", act.Name, act.Phase, act.Ordering)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().IntVar(&ordering, "ordering", 0, "prerequisite order within the phase")
	return cmd
}

func newActivityStartCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "start <phase> <name>",
		Short: "Start an activity",
		Long:  "Starts an activity. Fails with the list of blockers while any lower-ordered activity in the phase is not completed.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			act, err := activityTracker(cfg, gormDB).Start(args[0], args[1], actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", act.Name, act.State)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newActivityCompleteCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "complete <phase> <name>",
		Short: "Complete an in-progress activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			act, err := activityTracker(cfg, gormDB).Complete(args[0], args[1], actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", act.Name, act.State)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newActivityReviseCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		reason     string
	)

	cmd := &cobra.Command{
		Use:   "revise <phase> <name>",
		Short: "Send a completed activity back for revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			act, err := activityTracker(cfg, gormDB).RequestRevision(args[0], args[1], actorOrDefault(actor), reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s: %s\n", act.Name, act.State, act.RevisionReason)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&reason, "reason", "", "revision reason (required)")
	cmd.MarkFlagRequired("reason")
	return cmd
}

func newActivityListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <phase>",
		Short: "List a phase's activities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			acts, err := activityTracker(cfg, gormDB).Phase(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(acts) == 0 {
				fmt.Fprintf(out, "No activities in phase %q.\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORD\tNAME\tSTATE\tREASON")
			states := make([]string, len(acts))
			for i, act := range acts {
				states[i] = act.State
				reason := act.RevisionReason
				if reason == "" {
					reason = "-"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", act.Ordering, act.Name, act.State, truncate(reason, titleWidth()))
			}
			w.Flush()

			fmt.Fprintf(out, "\nPhase status: %s\n", activity.PhaseStatus(states))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	return cmd
}

func activityTracker(cfg *config.Config, gormDB *gorm.DB) *activity.Tracker {
	return &activity.Tracker{
		DB:     gormDB,
		Oracle: oracleFrom(cfg),
		Gates:  gatesFrom(cfg),
	}
}
