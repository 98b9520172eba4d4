package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/timeline"
)

func sampleReport(t testing.TB) *report.Report {
	t.Helper()
	res, err := timeline.Analyze(map[string][]timeline.Commit{
		"api": {{SHA: "a1", Timestamp: at(10, 0)}, {SHA: "a2", Timestamp: at(10, 30)}},
		"web": {{SHA: "w1", Timestamp: at(10, 15)}},
	}, nil, timeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return report.Build(report.Meta{
		Since:       at(0, 0),
		Until:       at(23, 59),
		Options:     timeline.DefaultOptions(),
		Warnings:    []string{"notes: not a git repository"},
		GeneratedAt: at(18, 0),
	}, res)
}

func TestViewPlain(t *testing.T) {
	dir := setupCommandTest(t)

	for _, format := range []string{"markdown", "json"} {
		t.Run(format, func(t *testing.T) {
			renderer, ext, err := report.RendererFor(format)
			if err != nil {
				t.Fatal(err)
			}
			data, err := renderer.Render(sampleReport(t))
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dir, "report."+ext)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatal(err)
			}

			resetFlags(rootCmd)
			out, err := executeCommand(rootCmd, "view", path, "--plain")
			if err != nil {
				t.Fatalf("view: %v\n%s", err, out)
			}
			for _, want := range []string{"## Sessions", "## Parallel Work", "api, web", "[parallel]", "warning: notes: not a git repository"} {
				if !strings.Contains(out, want) {
					t.Errorf("plain output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestViewErrors(t *testing.T) {
	dir := setupCommandTest(t)

	_, err := executeCommand(rootCmd, "view", filepath.Join(dir, "missing.md"))
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("expected file not found error, got %v", err)
	}

	bogus := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(bogus, []byte("# just notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	resetFlags(rootCmd)
	_, err = executeCommand(rootCmd, "view", bogus, "--plain")
	if err == nil || !strings.Contains(err.Error(), "not a valid gitwork report") {
		t.Errorf("expected invalid report error, got %v", err)
	}
}

// Feature: gitwork, Property 11: the plain printer lists every repository
// and every parallel period, with sections in a fixed order.
func TestPrintReportCompleteness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repos := []string{"api", "web", "infra"}
		commits := make(map[string][]timeline.Commit)
		for _, repo := range repos {
			n := rapid.IntRange(0, 6).Draw(t, repo+"_n")
			for i := 0; i < n; i++ {
				m := rapid.IntRange(0, 480).Draw(t, repo+"_min")
				commits[repo] = append(commits[repo], timeline.Commit{
					SHA:       fmt.Sprintf("%s%02d", repo, i),
					Timestamp: at(8, 0).Add(time.Duration(m) * time.Minute),
				})
			}
		}
		res, err := timeline.Analyze(commits, nil, timeline.DefaultOptions())
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		r := report.Build(report.Meta{Since: at(0, 0), Until: at(23, 59), GeneratedAt: at(18, 0)}, res)

		var buf bytes.Buffer
		printReport(&buf, r)
		out := buf.String()

		sessions := strings.Index(out, "## Sessions")
		parallel := strings.Index(out, "## Parallel Work")
		if sessions < 0 || parallel < sessions {
			t.Fatalf("sections missing or out of order:\n%s", out)
		}
		for _, rr := range r.Repos {
			if !strings.Contains(out[sessions:parallel], rr.RepoID) {
				t.Fatalf("repository %s missing from sessions table", rr.RepoID)
			}
		}
		for _, p := range r.Overlaps {
			if !strings.Contains(out[parallel:], strings.Join(p.RepoIDs, ", ")) {
				t.Fatalf("period %v missing from parallel table", p.RepoIDs)
			}
		}
		if len(r.Overlaps) == 0 && !strings.Contains(out[parallel:], "(none)") {
			t.Fatalf("empty parallel section should say (none)")
		}
	})
}
