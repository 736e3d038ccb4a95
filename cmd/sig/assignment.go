package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/signoffhq/signoff/internal/assignment"
	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/notify"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newAssignmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Cross-role assignment commands",
		Long:  "Manages cross-role task handoffs. Each assignment gets a due date from the SLA policy for its transition and is escalated by the sweeper when it lingers.",
	}

	cmd.AddCommand(newAssignmentCreateCmd())
	cmd.AddCommand(newAssignmentAckCmd())
	cmd.AddCommand(newAssignmentStartCmd())
	cmd.AddCommand(newAssignmentCompleteCmd())
	cmd.AddCommand(newAssignmentListCmd())
	return cmd
}

func newAssignmentCreateCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		transition string
		fromRole   string
		toRole     string
		title      string
		priority   int
		artifact   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an assignment",
		Long:  "Creates a cross-role assignment. The due date comes from the SLA policy matching (transition, from, to), falling back to the configured default hours.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			opts := assignment.CreateOpts{
				Transition: transition,
				FromRole:   fromRole,
				ToRole:     toRole,
				Title:      title,
				Priority:   priority,
				CreatedBy:  actorOrDefault(actor),
			}
			if artifact != "" {
				ref, err := parseRef(artifact)
				if err != nil {
					return err
				}
				opts.ArtifactKind = ref.Kind
				opts.ArtifactID = ref.ID
			}

			a, err := assignmentManager(cfg, gormDB).Create(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created assignment %s for %s (due %s)\n",
				a.ID, a.ToRole, a.DueAt.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&transition, "transition", "", "workflow transition name (required)")
	cmd.Flags().StringVar(&fromRole, "from", "", "handing-off role (required)")
	cmd.Flags().StringVar(&toRole, "to", "", "receiving role (required)")
	cmd.Flags().StringVar(&title, "title", "", "assignment title (required)")
	cmd.Flags().IntVar(&priority, "priority", 2, "priority (1=urgent, 2=normal, 3=low)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "linked artifact as kind/id")
	cmd.MarkFlagRequired("transition")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newAssignmentAckCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "ack <id>",
		Short: "Acknowledge an assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := assignmentManager(cfg, gormDB).Acknowledge(args[0], actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", a.ID, a.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newAssignmentStartCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start work on an assignment",
		Long:  "Moves an assignment to in_progress. Acknowledging first is optional.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := assignmentManager(cfg, gormDB).StartWork(args[0], actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", a.ID, a.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newAssignmentCompleteCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an in-progress assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := assignmentManager(cfg, gormDB).Complete(args[0], actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", a.ID, a.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newAssignmentListCmd() *cobra.Command {
	var (
		configPath string
		toRole     string
		status     string
		transition string
		overdue    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		Long:  "Lists assignments with optional filters, urgent and oldest-due first. With --overdue, only non-completed assignments past their due date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			mgr := assignmentManager(cfg, gormDB)

			var rows []models.Assignment
			if overdue {
				rows, err = mgr.Overdue(time.Now())
			} else {
				rows, err = mgr.List(assignment.Filters{
					ToRole:     toRole,
					Status:     status,
					Transition: transition,
				})
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No assignments found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tTO\tPRI\tSTATUS\tLVL\tDUE")
			for _, a := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
					a.ID, truncate(a.Title, titleWidth()), a.ToRole, a.Priority,
					a.Status, a.EscalationLevel, a.DueAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&toRole, "role", "", "filter by receiving role")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&transition, "transition", "", "filter by transition")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only assignments past their due date")
	return cmd
}

func assignmentManager(cfg *config.Config, gormDB *gorm.DB) *assignment.Manager {
	return &assignment.Manager{
		DB:           gormDB,
		Notifier:     notify.FromConfig(cfg, gormDB),
		DefaultHours: cfg.SLA.DefaultHours,
	}
}
