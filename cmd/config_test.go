package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPrintsMergedTOML(t *testing.T) {
	dir := setupCommandTest(t)
	writeProjectConfig(t, dir, `
author = "dev"

[sessions]
merge_gap_minutes = 0
`)

	out, err := executeCommand(rootCmd, "config")
	if err != nil {
		t.Fatalf("config: %v\n%s", err, out)
	}
	for _, want := range []string{`author = "dev"`, `default_format = "markdown"`, "gap_minutes = 60", "merge_gap_minutes = 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigRejectsBrokenProjectFile(t *testing.T) {
	dir := setupCommandTest(t)
	writeProjectConfig(t, dir, "repos = [\n")

	_, err := executeCommand(rootCmd, "config")
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestSetupWritesGlobalConfig(t *testing.T) {
	setupCommandTest(t)
	rootCmd.SetIn(strings.NewReader("dev@example.com\n/src/api,/src/web\njson\n\n\n\n\n"))

	out, err := executeCommand(rootCmd, "setup")
	if err != nil {
		t.Fatalf("setup: %v\n%s", err, out)
	}

	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "gitwork", "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	for _, want := range []string{`author = "dev@example.com"`, `default_format = "json"`, `"/src/web"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved config missing %q:\n%s", want, data)
		}
	}
}
