package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/db"
	"github.com/signoffhq/signoff/internal/roles"
	"github.com/signoffhq/signoff/internal/version"
	"github.com/signoffhq/signoff/internal/workflow"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDraftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft version commands",
	}

	cmd.AddCommand(newDraftCreateCmd())
	cmd.AddCommand(newDraftAddItemCmd())
	cmd.AddCommand(newDraftDecideCmd())
	return cmd
}

func newDraftCreateCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "create <kind/id>",
		Short: "Open a new draft version of an artifact",
		Long:  "Creates the next version of an artifact in draft status. Fails while an open (draft or pending) version of the artifact exists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			v, err := versionManager(cfg, gormDB).CreateDraft(ref, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft version %d of %s (id %d)\n", v.Number, ref, v.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	return cmd
}

func newDraftAddItemCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		exclude    bool
	)

	cmd := &cobra.Command{
		Use:   "add-item <version-id> <item>",
		Short: "Attach a reviewable item to a draft version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			item, err := versionManager(cfg, gormDB).AddItem(versionID, args[1], !exclude, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to version %d (item %d)\n", item.ItemID, versionID, item.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().BoolVar(&exclude, "exclude", false, "mark the item out of scope for the final set")
	return cmd
}

func newDraftDecideCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "decide <version-id> <item> <accept|decline|override>",
		Short: "Record the authoring role's decision on a draft item",
		Long:  "Stores the tester's own call on an item. Decisions may change freely while the version stays draft.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			versionID, err := parseID(args[0], "version")
			if err != nil {
				return err
			}
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			item, err := versionManager(cfg, gormDB).RecordTesterDecision(versionID, args[1], args[2], notes, actorOrDefault(actor))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s (version %d)\n", item.TesterDecision, item.ItemID, versionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (default $SIGNOFF_ACTOR, then $USER)")
	cmd.Flags().StringVar(&notes, "notes", "", "decision notes")
	return cmd
}

// connectFromConfig loads config and opens the configured database.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// oracleFrom builds the role oracle: static bindings when the config has
// them, otherwise every role is granted (single-operator mode).
func oracleFrom(cfg *config.Config) roles.Oracle {
	if len(cfg.Roles.Bindings) > 0 {
		return roles.Static(cfg.Roles.Bindings)
	}
	return roles.AllowAll{}
}

// gatesFrom overlays the config's gate entries onto the built-in table.
func gatesFrom(cfg *config.Config) roles.Gates {
	return roles.DefaultGates().Merge(cfg.Roles.Gates)
}

func versionManager(cfg *config.Config, gormDB *gorm.DB) *version.Manager {
	return &version.Manager{
		DB:     gormDB,
		Oracle: oracleFrom(cfg),
		Gates:  gatesFrom(cfg),
		Policy: version.SubmitPolicy{RequireDecisions: cfg.Submit.DecisionsRequired()},
	}
}

// actorOrDefault resolves the acting user: the --actor flag, then
// SIGNOFF_ACTOR, then the OS user.
func actorOrDefault(actor string) string {
	if actor != "" {
		return actor
	}
	if env := os.Getenv("SIGNOFF_ACTOR"); env != "" {
		return env
	}
	return os.Getenv("USER")
}

// parseRef splits a "kind/id" argument into an ArtifactRef.
func parseRef(s string) (workflow.ArtifactRef, error) {
	kind, id, ok := strings.Cut(s, "/")
	if !ok || kind == "" || id == "" {
		return workflow.ArtifactRef{}, fmt.Errorf("artifact must be kind/id, got %q", s)
	}
	return workflow.ArtifactRef{Kind: kind, ID: id}, nil
}

// parseID parses a numeric row-id argument.
func parseID(arg, what string) (uint, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s id must be a number, got %q", what, arg)
	}
	return uint(n), nil
}
