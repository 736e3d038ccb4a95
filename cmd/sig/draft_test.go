package main

import (
	"strings"
	"testing"
)

func TestDraftCmd_Help(t *testing.T) {
	out, err := runCLI(t, "draft", "--help")
	if err != nil {
		t.Fatalf("draft --help failed: %v", err)
	}
	for _, sub := range []string{"create", "add-item", "decide"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestNewDraftCmd(t *testing.T) {
	cmd := newDraftCmd()
	if cmd.Use != "draft" {
		t.Errorf("Use = %q, want %q", cmd.Use, "draft")
	}
	if !cmd.HasSubCommands() {
		t.Error("draft command should have subcommands")
	}
}

func TestNewDraftCreateCmd(t *testing.T) {
	cmd := newDraftCreateCmd()
	if cmd.Use != "create <kind/id>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "create <kind/id>")
	}
	for _, name := range []string{"config", "actor"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag", name)
		}
	}
	cfgFlag := cmd.Flags().Lookup("config")
	if cfgFlag.DefValue != "signoff.yaml" {
		t.Errorf("--config default = %q, want %q", cfgFlag.DefValue, "signoff.yaml")
	}
}

func TestDraftCreateCmd_BadRef(t *testing.T) {
	// The ref is parsed before any config is touched.
	_, err := runCLI(t, "draft", "create", "notaref")
	if err == nil {
		t.Fatal("expected error for a ref without kind/id")
	}
	if !strings.Contains(err.Error(), "artifact must be kind/id") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "artifact must be kind/id")
	}
}

func TestDraftAddItemCmd_BadVersionID(t *testing.T) {
	_, err := runCLI(t, "draft", "add-item", "abc", "attr-1")
	if err == nil {
		t.Fatal("expected error for a non-numeric version id")
	}
	if !strings.Contains(err.Error(), "version id must be a number") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "version id must be a number")
	}
}

func TestDraftDecideCmd_NoArgs(t *testing.T) {
	_, err := runCLI(t, "draft", "decide")
	if err == nil {
		t.Fatal("expected error for missing args")
	}
}

func TestNewDraftAddItemCmd_ExcludeFlag(t *testing.T) {
	cmd := newDraftAddItemCmd()
	flag := cmd.Flags().Lookup("exclude")
	if flag == nil {
		t.Fatal("expected --exclude flag")
	}
	if flag.DefValue != "false" {
		t.Errorf("--exclude default = %q, want %q", flag.DefValue, "false")
	}
}

func TestDraftFlow(t *testing.T) {
	cfgPath := initDB(t)

	out := mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	if out != "Created draft version 1 of control/CTL-7 (id 1)\n" {
		t.Errorf("create output = %q", out)
	}

	out = mustRun(t, "draft", "add-item", "1", "attr-1", "--actor", "tess", "--config", cfgPath)
	if out != "Added attr-1 to version 1 (item 1)\n" {
		t.Errorf("add-item output = %q", out)
	}

	out = mustRun(t, "draft", "decide", "1", "attr-1", "accept", "--notes", "matches evidence", "--actor", "tess", "--config", cfgPath)
	if out != "Recorded accept on attr-1 (version 1)\n" {
		t.Errorf("decide output = %q", out)
	}
}

func TestDraftCreateCmd_SecondOpenDraftFails(t *testing.T) {
	cfgPath := initDB(t)
	mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)

	_, err := runCLI(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected conflict for a second open draft")
	}
	if !strings.Contains(err.Error(), "conflict on control/CTL-7") {
		t.Errorf("error = %q, want a conflict", err.Error())
	}
}

func TestDraftDecideCmd_InvalidDecision(t *testing.T) {
	cfgPath := initDB(t)
	mustRun(t, "draft", "create", "control/CTL-7", "--actor", "tess", "--config", cfgPath)
	mustRun(t, "draft", "add-item", "1", "attr-1", "--actor", "tess", "--config", cfgPath)

	_, err := runCLI(t, "draft", "decide", "1", "attr-1", "maybe", "--actor", "tess", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for an unknown tester decision")
	}
	if !strings.Contains(err.Error(), "accept, decline, override") {
		t.Errorf("error = %q, want the allowed decisions listed", err.Error())
	}
}

func TestParseRef(t *testing.T) {
	ref, err := parseRef("control/CTL-7")
	if err != nil {
		t.Fatalf("parseRef: %v", err)
	}
	if ref.Kind != "control" || ref.ID != "CTL-7" {
		t.Errorf("parseRef = %+v", ref)
	}

	// IDs may themselves contain slashes.
	ref, err = parseRef("report/2026/Q1")
	if err != nil {
		t.Fatalf("parseRef: %v", err)
	}
	if ref.Kind != "report" || ref.ID != "2026/Q1" {
		t.Errorf("parseRef = %+v", ref)
	}

	for _, bad := range []string{"", "control", "/CTL-7", "control/"} {
		if _, err := parseRef(bad); err == nil {
			t.Errorf("parseRef(%q) should fail", bad)
		}
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "version")
	if err != nil {
		t.Fatalf("parseID: %v", err)
	}
	if id != 42 {
		t.Errorf("parseID = %d, want 42", id)
	}

	_, err = parseID("x", "item")
	if err == nil {
		t.Fatal("expected error for a non-numeric id")
	}
	if !strings.Contains(err.Error(), "item id must be a number") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestActorOrDefault(t *testing.T) {
	if got := actorOrDefault("tess"); got != "tess" {
		t.Errorf("explicit actor = %q, want %q", got, "tess")
	}

	t.Setenv("SIGNOFF_ACTOR", "olive")
	if got := actorOrDefault(""); got != "olive" {
		t.Errorf("env actor = %q, want %q", got, "olive")
	}

	t.Setenv("SIGNOFF_ACTOR", "")
	t.Setenv("USER", "fallback")
	if got := actorOrDefault(""); got != "fallback" {
		t.Errorf("os user fallback = %q, want %q", got, "fallback")
	}
}
