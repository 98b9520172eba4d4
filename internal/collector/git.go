package collector

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/timeline"
)

// GitRunner executes a git command and returns its output.
// This abstraction allows mocking in tests.
type GitRunner func(ctx context.Context, workDir string, args ...string) (string, error)

// GitCollector collects commits and reflog anchors from a local repository.
type GitCollector struct {
	RepoPath string
	RepoID   string    // defaults to the base name of RepoPath
	Author   string    // case-insensitive substring of name or email; empty keeps all
	Runner   GitRunner // if nil, uses the real git subprocess
}

// logFormat opens each record with RS and separates fields with US. The
// trailing US closes the full message so the --numstat lines that git
// prints after the header can be told apart from it.
const logFormat = "--pretty=tformat:%x1e%H%x1f%an%x1f%ae%x1f%at%x1f%s%x1f%B%x1f"

// DefaultGitRunner runs git as a real subprocess.
func DefaultGitRunner(ctx context.Context, workDir string, args ...string) (string, error) {
	logging.FromContext(ctx).Debug("git", "dir", workDir, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir
	out, err := cmd.Output()
	return string(out), err
}

// ID implements Collector.
func (g *GitCollector) ID() string {
	if g.RepoID != "" {
		return g.RepoID
	}
	return filepath.Base(filepath.Clean(g.RepoPath))
}

// Collect implements Collector. It reads commits with git log and anchor
// events with git reflog. If the path is not a git repository (exit code
// 128), it appends a warning and returns an empty result. A failing reflog
// only costs the anchors.
func (g *GitCollector) Collect(ctx context.Context, w Window) (Result, error) {
	runner := g.Runner
	if runner == nil {
		runner = DefaultGitRunner
	}
	res := Result{RepoID: g.ID()}

	// Also serves as the "is this a git repo?" check.
	if _, err := runner(ctx, g.RepoPath, "rev-parse", "--git-dir"); err != nil {
		if isExitCode128(err) {
			res.Warnings = append(res.Warnings, "not a git repository")
			return res, nil
		}
		return res, fmt.Errorf("git rev-parse: %w", err)
	}

	since := "--since=" + w.Since.Format(time.RFC3339)
	until := "--until=" + w.Until.Format(time.RFC3339)

	logOut, err := runner(ctx, g.RepoPath, "log", since, until, "--numstat", logFormat)
	if err != nil {
		if isExitCode128(err) {
			// Typically a repository without any commit yet.
			res.Warnings = append(res.Warnings, "git log failed: no commits readable")
			return res, nil
		}
		return res, fmt.Errorf("git log: %w", err)
	}
	commits, details, warnings := parseLog(logOut, res.RepoID, w.Location())
	res.Warnings = append(res.Warnings, warnings...)
	res.Commits = filterAuthor(commits, g.Author)
	res.Details = keepDetails(details, res.Commits)

	reflogOut, err := runner(ctx, g.RepoPath, "reflog", "--date=iso", since, until)
	if err != nil {
		res.Warnings = append(res.Warnings, "reflog unavailable: "+err.Error())
	} else {
		res.Anchors = parseReflog(reflogOut, res.RepoID, w)
	}

	logging.FromContext(ctx).Debug("collected",
		"repo", res.RepoID, "commits", len(res.Commits), "anchors", len(res.Anchors))
	return res, nil
}

// isExitCode128 reports whether err is an *exec.ExitError with exit code 128.
func isExitCode128(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode() == 128
	}
	return false
}

// parseLog splits git log output into commits and their details. Records
// with too few fields or a non-numeric timestamp are dropped with a warning.
// Records without a message or numstat part still yield a commit.
func parseLog(output, repoID string, loc *time.Location) ([]timeline.Commit, map[string]report.CommitDetail, []string) {
	var commits []timeline.Commit
	details := make(map[string]report.CommitDetail)
	var warnings []string
	for _, rec := range strings.Split(output, "\x1e") {
		rec = strings.Trim(rec, "\r\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		parts := strings.SplitN(rec, "\x1f", 6)
		if len(parts) < 5 {
			warnings = append(warnings, fmt.Sprintf("skipped malformed log record %q", truncate(rec, 40)))
			continue
		}
		sha := strings.TrimSpace(parts[0])
		epoch, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped commit %s: bad timestamp %q", sha, parts[3]))
			continue
		}
		commits = append(commits, timeline.Commit{
			SHA:         sha,
			RepoID:      repoID,
			Timestamp:   time.Unix(epoch, 0).In(loc),
			AuthorName:  strings.TrimSpace(parts[1]),
			AuthorEmail: strings.TrimSpace(parts[2]),
			Message:     strings.TrimSpace(parts[4]),
		})
		if len(parts) == 6 {
			details[sha] = parseDetail(parts[5])
		}
	}
	return commits, details, warnings
}

// parseDetail reads the full message and the numstat lines that follow the
// last US of a record.
func parseDetail(rest string) report.CommitDetail {
	body, stats := rest, ""
	if i := strings.LastIndex(rest, "\x1f"); i >= 0 {
		body, stats = rest[:i], rest[i+1:]
	}
	d := parseNumstat(stats)
	d.Body = strings.Trim(body, "\r\n")
	return d
}

// parseNumstat sums "added<TAB>deleted<TAB>path" lines. Binary files report
// "-" for both counts and add nothing.
func parseNumstat(output string) report.CommitDetail {
	var d report.CommitDetail
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) != 3 {
			continue
		}
		added, _ := strconv.Atoi(fields[0])
		deleted, _ := strconv.Atoi(fields[1])
		d.Insertions += added
		d.Deletions += deleted
		d.Files = append(d.Files, fields[2])
	}
	return d
}

// keepDetails drops details of commits that did not survive filtering.
func keepDetails(details map[string]report.CommitDetail, commits []timeline.Commit) map[string]report.CommitDetail {
	if len(details) == 0 {
		return nil
	}
	out := make(map[string]report.CommitDetail, len(commits))
	for _, c := range commits {
		if d, ok := details[c.SHA]; ok {
			out[c.SHA] = d
		}
	}
	return out
}

func filterAuthor(commits []timeline.Commit, author string) []timeline.Commit {
	needle := strings.ToLower(strings.TrimSpace(author))
	if needle == "" {
		return commits
	}
	out := commits[:0:0]
	for _, c := range commits {
		if strings.Contains(strings.ToLower(c.AuthorName), needle) ||
			strings.Contains(strings.ToLower(c.AuthorEmail), needle) {
			out = append(out, c)
		}
	}
	return out
}

var reflogLine = regexp.MustCompile(`HEAD@\{([^}]+)\}:\s*([^:]+):`)

const reflogDateLayout = "2006-01-02 15:04:05 -0700"

// anchorKeywords is checked in order; the first match names the kind.
var anchorKeywords = []struct {
	word string
	kind timeline.AnchorKind
}{
	{"pull", timeline.AnchorPull},
	{"fetch", timeline.AnchorFetch},
	{"rebase", timeline.AnchorRebase},
	{"merge", timeline.AnchorMerge},
	{"update", timeline.AnchorUpdate},
}

// excludedOps mark local operations that are never anchors.
var excludedOps = []string{"checkout", "commit", "reset", "branch", "switch"}

// parseReflog extracts sync-like operations inside w. Lines that do not
// match, name an excluded operation, or carry an unparseable date are
// skipped. The result is deduplicated by instant and sorted.
func parseReflog(output, repoID string, w Window) []timeline.AnchorEvent {
	seen := make(map[int64]bool)
	var anchors []timeline.AnchorEvent
	for _, line := range strings.Split(output, "\n") {
		m := reflogLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind, ok := classifyOp(strings.ToLower(strings.TrimSpace(m[2])))
		if !ok {
			continue
		}
		ts, err := time.Parse(reflogDateLayout, strings.TrimSpace(m[1]))
		if err != nil || !w.Contains(ts) {
			continue
		}
		if seen[ts.Unix()] {
			continue
		}
		seen[ts.Unix()] = true
		anchors = append(anchors, timeline.AnchorEvent{RepoID: repoID, Timestamp: ts.In(w.Location()), Kind: kind})
	}
	return timeline.SortAnchors(anchors)
}

func classifyOp(op string) (timeline.AnchorKind, bool) {
	for _, ex := range excludedOps {
		if strings.Contains(op, ex) {
			return "", false
		}
	}
	for _, k := range anchorKeywords {
		if strings.Contains(op, k.word) {
			return k.kind, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
