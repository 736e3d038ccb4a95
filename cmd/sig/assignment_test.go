package main

import (
	"strings"
	"testing"
)

func TestAssignmentCmd_Help(t *testing.T) {
	out, err := runCLI(t, "assignment", "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, sub := range []string{"create", "ack", "start", "complete", "list"} {
		if !strings.Contains(out, sub) {
			t.Errorf("assignment help missing subcommand %q", sub)
		}
	}
}

func TestNewAssignmentCreateCmd(t *testing.T) {
	cmd := newAssignmentCreateCmd()

	if cmd.Use != "create" {
		t.Errorf("Use = %q, want %q", cmd.Use, "create")
	}
	for _, name := range []string{"transition", "from", "to", "title", "artifact", "actor"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("create command missing --%s flag", name)
		}
	}
	pri := cmd.Flags().Lookup("priority")
	if pri == nil {
		t.Fatal("create command missing --priority flag")
	}
	if pri.DefValue != "2" {
		t.Errorf("priority default = %q, want %q", pri.DefValue, "2")
	}
	cfg := cmd.Flags().Lookup("config")
	if cfg == nil {
		t.Fatal("create command missing --config flag")
	}
	if cfg.DefValue != "signoff.yaml" {
		t.Errorf("config default = %q, want %q", cfg.DefValue, "signoff.yaml")
	}
}

func TestNewAssignmentListCmd(t *testing.T) {
	cmd := newAssignmentListCmd()

	if cmd.Use != "list" {
		t.Errorf("Use = %q, want %q", cmd.Use, "list")
	}
	for _, name := range []string{"role", "status", "transition"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("list command missing --%s flag", name)
		}
	}
	overdue := cmd.Flags().Lookup("overdue")
	if overdue == nil {
		t.Fatal("list command missing --overdue flag")
	}
	if overdue.DefValue != "false" {
		t.Errorf("overdue default = %q, want %q", overdue.DefValue, "false")
	}
}

func TestAssignmentStepCmds(t *testing.T) {
	uses := []string{
		newAssignmentAckCmd().Use,
		newAssignmentStartCmd().Use,
		newAssignmentCompleteCmd().Use,
	}
	want := []string{"ack <id>", "start <id>", "complete <id>"}
	for i, use := range uses {
		if use != want[i] {
			t.Errorf("Use = %q, want %q", use, want[i])
		}
	}
}

func TestAssignmentCreateCmd_MissingRequiredFlags(t *testing.T) {
	_, err := runCLI(t, "assignment", "create")
	if err == nil {
		t.Fatal("expected error for missing required flags, got nil")
	}
	if !strings.Contains(err.Error(), "transition") {
		t.Errorf("error = %v, want mention of transition", err)
	}
}

func TestAssignmentCreateCmd_BadArtifact(t *testing.T) {
	cfgPath := initDB(t)

	_, err := runCLI(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Review walkthrough",
		"--artifact", "not-a-ref",
		"--actor", "tess",
		"--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for bad artifact ref, got nil")
	}
	if !strings.Contains(err.Error(), "artifact must be kind/id") {
		t.Errorf("error = %v, want artifact format complaint", err)
	}
}

func TestAssignmentAckCmd_NotFound(t *testing.T) {
	cfgPath := initDB(t)

	_, err := runCLI(t, "assignment", "ack", "asg-zzzzz", "--actor", "olive", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for unknown assignment, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestAssignmentFlow(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Review CTL-7 walkthrough",
		"--artifact", "control/CTL-7",
		"--actor", "tess",
		"--config", cfgPath)
	if !strings.HasPrefix(out, "Created assignment asg-") {
		t.Fatalf("create output = %q, want Created assignment asg- prefix", out)
	}
	if !strings.Contains(out, "for report_owner (due ") {
		t.Errorf("create output = %q, want due date for report_owner", out)
	}
	id := strings.Fields(out)[2]

	out = mustRun(t, "assignment", "ack", id, "--actor", "olive", "--config", cfgPath)
	if out != id+" is acknowledged\n" {
		t.Errorf("ack output = %q, want %q", out, id+" is acknowledged\n")
	}

	out = mustRun(t, "assignment", "start", id, "--actor", "olive", "--config", cfgPath)
	if out != id+" is in_progress\n" {
		t.Errorf("start output = %q, want %q", out, id+" is in_progress\n")
	}

	out = mustRun(t, "assignment", "complete", id, "--actor", "olive", "--config", cfgPath)
	if out != id+" is completed\n" {
		t.Errorf("complete output = %q, want %q", out, id+" is completed\n")
	}

	out = mustRun(t, "assignment", "list", "--config", cfgPath)
	if !strings.Contains(out, "TITLE") || !strings.Contains(out, "STATUS") {
		t.Errorf("list output missing header:\n%s", out)
	}
	if !strings.Contains(out, id) {
		t.Errorf("list output missing %s:\n%s", id, out)
	}
	if !strings.Contains(out, "Review CTL-7 walkthrough") {
		t.Errorf("list output missing title:\n%s", out)
	}
	if !strings.Contains(out, "completed") {
		t.Errorf("list output missing completed status:\n%s", out)
	}
}

func TestAssignmentStartCmd_SkipsAck(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Straight to work",
		"--actor", "tess",
		"--config", cfgPath)
	id := strings.Fields(out)[2]

	out = mustRun(t, "assignment", "start", id, "--actor", "olive", "--config", cfgPath)
	if out != id+" is in_progress\n" {
		t.Errorf("start output = %q, want %q", out, id+" is in_progress\n")
	}
}

func TestAssignmentCompleteCmd_RequiresInProgress(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Not yet started",
		"--actor", "tess",
		"--config", cfgPath)
	id := strings.Fields(out)[2]

	_, err := runCLI(t, "assignment", "complete", id, "--actor", "olive", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error completing an assigned task, got nil")
	}
	if !strings.Contains(err.Error(), `status is "assigned"`) {
		t.Errorf("error = %v, want invalid state complaint", err)
	}
}

func TestAssignmentListCmd_Filters(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Filter fodder",
		"--actor", "tess",
		"--config", cfgPath)
	id := strings.Fields(out)[2]

	out = mustRun(t, "assignment", "list", "--status", "completed", "--config", cfgPath)
	if out != "No assignments found.\n" {
		t.Errorf("completed filter output = %q, want none", out)
	}

	out = mustRun(t, "assignment", "list", "--role", "report_owner", "--config", cfgPath)
	if !strings.Contains(out, id) {
		t.Errorf("role filter output missing %s:\n%s", id, out)
	}

	out = mustRun(t, "assignment", "list", "--overdue", "--config", cfgPath)
	if out != "No assignments found.\n" {
		t.Errorf("overdue output = %q, want none for a fresh assignment", out)
	}
}

func TestAssignmentListCmd_UrgentFirst(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Low priority task",
		"--priority", "3",
		"--actor", "tess",
		"--config", cfgPath)
	lowID := strings.Fields(out)[2]

	out = mustRun(t, "assignment", "create",
		"--transition", "review_handoff",
		"--from", "tester",
		"--to", "report_owner",
		"--title", "Urgent task",
		"--priority", "1",
		"--actor", "tess",
		"--config", cfgPath)
	urgentID := strings.Fields(out)[2]

	out = mustRun(t, "assignment", "list", "--config", cfgPath)
	if strings.Index(out, urgentID) > strings.Index(out, lowID) {
		t.Errorf("urgent assignment should list before low priority:\n%s", out)
	}
}
