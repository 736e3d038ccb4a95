package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signoffhq/signoff/internal/notify"
	"github.com/signoffhq/signoff/internal/sla"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		once       bool
		every      time.Duration
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Escalate overdue assignments",
		Long:  "Walks non-completed assignments and applies the escalation rules whose deadlines have passed. Runs once with --once, on a cron expression with --schedule, or on a fixed interval otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath, once, every, schedule)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signoff.yaml", "path to Signoff config file")
	cmd.Flags().BoolVar(&once, "once", false, "run a single sweep and exit")
	cmd.Flags().DurationVar(&every, "every", 10*time.Minute, "interval between sweeps")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression (overrides --every)")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string, once bool, every time.Duration, schedule string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	sweeper := &sla.Sweeper{
		DB:       gormDB,
		Notifier: notify.FromConfig(cfg, gormDB),
	}
	out := cmd.OutOrStdout()

	if once {
		n, err := sweeper.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sweep complete: %d escalation(s)\n", n)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if schedule != "" {
		next, err := sla.NextRun(schedule, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sweeping on schedule %q (next run %s)\n", schedule, next.Format("2006-01-02 15:04"))
		return sweeper.RunSchedule(ctx, schedule)
	}

	fmt.Fprintf(out, "Sweeping every %s\n", every)
	sweeper.Run(ctx, every)
	return nil
}
