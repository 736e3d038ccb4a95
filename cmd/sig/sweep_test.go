package main

import (
	"strings"
	"testing"
)

func TestNewSweepCmd(t *testing.T) {
	cmd := newSweepCmd()

	if cmd.Use != "sweep" {
		t.Errorf("Use = %q, want %q", cmd.Use, "sweep")
	}

	once := cmd.Flags().Lookup("once")
	if once == nil {
		t.Fatal("sweep command missing --once flag")
	}
	if once.DefValue != "false" {
		t.Errorf("once default = %q, want %q", once.DefValue, "false")
	}

	every := cmd.Flags().Lookup("every")
	if every == nil {
		t.Fatal("sweep command missing --every flag")
	}
	if every.DefValue != "10m0s" {
		t.Errorf("every default = %q, want %q", every.DefValue, "10m0s")
	}

	schedule := cmd.Flags().Lookup("schedule")
	if schedule == nil {
		t.Fatal("sweep command missing --schedule flag")
	}
	if schedule.DefValue != "" {
		t.Errorf("schedule default = %q, want empty", schedule.DefValue)
	}
}

func TestSweepCmd_MissingConfig(t *testing.T) {
	_, err := runCLI(t, "sweep", "--once", "--config", "/nonexistent/signoff.yaml")
	if err == nil {
		t.Fatal("expected error for missing config, got nil")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %v, want load config failure", err)
	}
}

func TestSweepCmd_Once(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "sweep", "--once", "--config", cfgPath)
	if out != "Sweep complete: 0 escalation(s)\n" {
		t.Errorf("sweep output = %q, want zero escalations", out)
	}
}

func TestSweepCmd_OnceWithFreshAssignment(t *testing.T) {
	cfgPath := initDB(t)

	mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Well within budget",
		"--actor", "tess",
		"--config", cfgPath)

	out := mustRun(t, "sweep", "--once", "--config", cfgPath)
	if out != "Sweep complete: 0 escalation(s)\n" {
		t.Errorf("sweep output = %q, want zero escalations for a fresh assignment", out)
	}
}

func TestSweepCmd_InvalidSchedule(t *testing.T) {
	cfgPath := initDB(t)

	_, err := runCLI(t, "sweep", "--schedule", "not a cron", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for bad cron expression, got nil")
	}
	if !strings.Contains(err.Error(), "parse schedule") {
		t.Errorf("error = %v, want parse schedule failure", err)
	}
}
