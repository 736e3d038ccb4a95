package main

import (
	"strings"
	"testing"
)

func TestNewHistoryCmd(t *testing.T) {
	cmd := newHistoryCmd()
	if cmd.Use != "history <kind/id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "history <kind/id>")
	}
	flag := cmd.Flags().Lookup("audit")
	if flag == nil {
		t.Fatal("expected --audit flag")
	}
	if flag.DefValue != "false" {
		t.Errorf("--audit default = %q, want %q", flag.DefValue, "false")
	}
}

func TestHistoryCmd_Empty(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "history", "control/NONE", "--config", cfgPath)
	if out != "No versions for control/NONE.\n" {
		t.Errorf("history output = %q", out)
	}
}

func TestHistoryCmd_Table(t *testing.T) {
	cfgPath := initDB(t)
	mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "add-item", "1", "attr-1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "decide", "1", "attr-1", "accept", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "submit", "1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "reject", "1", "--reason", "sample 14 missing", "--actor", "olive", "--config", cfgPath)
	mustRun(t, "resubmit", "control/CTL-7", "--actor", "tess", "--config", cfgPath)

	out := mustRun(t, "history", "control/CTL-7", "--config", cfgPath)
	for _, want := range []string{
		"VERSION", "STATUS", "CREATED BY", "ITEMS",
		"rejected", "draft", "tess",
		"Version 1 items:", "Version 2 items:", "attr-1",
		"Latest rejection: sample 14 missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected history to contain %q, got: %s", want, out)
		}
	}
}

func TestHistoryCmd_LatestRejectionOnlyWhenLatest(t *testing.T) {
	cfgPath := initDB(t)
	mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "add-item", "1", "attr-1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "decide", "1", "attr-1", "accept", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "submit", "1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "reject", "1", "--reason", "sample 14 missing", "--actor", "olive", "--config", cfgPath)

	out := mustRun(t, "history", "control/CTL-7", "--config", cfgPath)
	if !strings.Contains(out, "Latest rejection: sample 14 missing") {
		t.Errorf("expected the rejection callout, got: %s", out)
	}
}

func TestHistoryCmd_Audit(t *testing.T) {
	cfgPath := initDB(t)
	mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "add-item", "1", "attr-1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "decide", "1", "attr-1", "accept", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "submit", "1", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "approve", "1", "--actor", "olive", "--config", cfgPath)

	out := mustRun(t, "history", "control/CTL-7", "--audit", "--config", cfgPath)
	if !strings.Contains(out, "Audit trail:") {
		t.Errorf("expected the audit trail section, got: %s", out)
	}
	for _, action := range []string{"version.draft", "item.add", "item.tester_decision", "version.submit", "version.approve"} {
		if !strings.Contains(out, action) {
			t.Errorf("expected audit trail to contain %q, got: %s", action, out)
		}
	}
	if !strings.Contains(out, "by tess") || !strings.Contains(out, "by olive") {
		t.Errorf("expected audit actors, got: %s", out)
	}
}
