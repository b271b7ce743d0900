package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[workflow]
fallback_assignee_id = 999
file_number_prefix = "INK"
min_rejection_note_chars = 10
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestFileAddAndList(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, cfgPath, "file", "add", "Label Sheet", "--requires-approval", "--user", "1")
	if err != nil {
		t.Fatalf("file add: %v", err)
	}
	if !strings.Contains(out, "created INK-") {
		t.Fatalf("unexpected add output: %s", out)
	}

	out, err = runCommand(t, cfgPath, "file", "list")
	if err != nil {
		t.Fatalf("file list: %v", err)
	}
	if !strings.Contains(out, "Label Sheet") || !strings.Contains(out, "Awaiting Assignment") {
		t.Fatalf("unexpected list output: %s", out)
	}
}

func TestQueueClaimAndComplete(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCommand(t, cfgPath, "file", "add", "Queued Job", "--target", "42"); err != nil {
		t.Fatalf("file add: %v", err)
	}

	out, err := runCommand(t, cfgPath, "queue", "claim", "1", "--user", "5")
	if err != nil {
		t.Fatalf("queue claim: %v", err)
	}
	if !strings.Contains(out, "claimed INK-") {
		t.Fatalf("unexpected claim output: %s", out)
	}

	out, err = runCommand(t, cfgPath, "queue", "complete", "1", "--user", "5")
	if err != nil {
		t.Fatalf("queue complete: %v", err)
	}
	if !strings.Contains(out, "designer 42") {
		t.Fatalf("unexpected complete output: %s", out)
	}

	out, err = runCommand(t, cfgPath, "act", "takeover", "1", "--user", "42", "--department", "repro")
	if err != nil {
		t.Fatalf("act takeover: %v", err)
	}
	if !strings.Contains(out, "In Repro") {
		t.Fatalf("unexpected takeover output: %s", out)
	}
}

func TestActRequiresUser(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := runCommand(t, cfgPath, "act", "assign", "1"); err == nil {
		t.Fatal("expected error without --user")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}
}
