package cmd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// resetFlags restores every flag to its default so runs do not leak
// "Changed" state into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 1, hh, mm, 0, 0, time.UTC)
}

func logRecord(sha string, ts time.Time, subject string) string {
	return strings.Join([]string{sha, "Dev", "dev@example.com", strconv.FormatInt(ts.Unix(), 10), subject}, "\x1f") + "\x1e"
}

// setupCommandTest isolates config lookup in temp directories and installs a
// fake git with two repositories, /src/api and /src/web, that were worked on
// in parallel on 2024-03-01. It returns the working directory.
func setupCommandTest(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	logs := map[string]string{
		"/src/api": logRecord("a1", at(10, 0), "handler") + logRecord("a2", at(10, 30), "tests"),
		"/src/web": logRecord("w1", at(10, 15), "layout"),
	}
	origRunner, origNow := gitRunner, now
	gitRunner = func(_ context.Context, workDir string, args ...string) (string, error) {
		out, ok := logs[workDir]
		if !ok {
			return "", exec.Command("sh", "-c", "exit 128").Run()
		}
		switch args[0] {
		case "log":
			return out, nil
		case "rev-parse":
			return filepath.Join(workDir, ".git"), nil
		}
		return "", nil
	}
	now = func() time.Time { return at(18, 0) }

	resetFlags(rootCmd)
	t.Cleanup(func() {
		gitRunner, now = origRunner, origNow
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})
	return dir
}

func writeProjectConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".gitwork.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}
}
