package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

const (
	versionSentinel = "<!-- gitwork-report-version: 1 -->"
	dataPrefix      = "<!-- gitwork-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Report to bytes.
type Renderer interface {
	Render(r *Report) ([]byte, error)
}

// RendererFor returns the renderer and file extension for a format name.
func RendererFor(format string) (Renderer, string, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONRenderer{}, "json", nil
	case "markdown", "md", "":
		return &MarkdownRenderer{}, "md", nil
	}
	return nil, "", fmt.Errorf("unknown format %q: must be \"markdown\" or \"json\"", format)
}

// JSONRenderer renders a Report as indented JSON.
type JSONRenderer struct{}

func (jr *JSONRenderer) Render(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders a Report as human-readable Markdown with
// an embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct {
	// OmitPayload leaves out the sentinel and the JSON payload. The output
	// is then for reading only and MarkdownParser rejects it.
	OmitPayload bool
}

// maxListedFiles caps the files shown per commit.
const maxListedFiles = 10

func (mr *MarkdownRenderer) Render(r *Report) ([]byte, error) {
	var sb strings.Builder

	if !mr.OmitPayload {
		jsonBytes, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal report: %w", err)
		}
		encoded := base64.StdEncoding.EncodeToString(jsonBytes)
		sb.WriteString(versionSentinel + "\n")
		fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)
	}

	fmt.Fprintf(&sb, "# %s\n\n", r.Title)

	// ## Summary
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Window: %s ~ %s\n", r.Since.Format("2006-01-02 15:04"), r.Until.Format("2006-01-02 15:04"))
	if r.Author != "" {
		fmt.Fprintf(&sb, "- Author: %s\n", r.Author)
	}
	fmt.Fprintf(&sb, "- Repositories: %d\n", len(r.Repos))
	fmt.Fprintf(&sb, "- Commits: %d\n", r.CommitCount())
	fmt.Fprintf(&sb, "- Sessions: %d, about %d minutes\n", r.SessionCount(), r.TotalMinutes())
	fmt.Fprintf(&sb, "- Parallel periods: %d, about %d minutes\n", len(r.Overlaps), r.TotalOverlapMinutes)
	sb.WriteString("\n")

	// ## Parallel Work
	sb.WriteString("## Parallel Work\n\n")
	if len(r.Overlaps) == 0 {
		sb.WriteString("_No parallel work detected._\n")
	} else {
		for i, p := range r.Overlaps {
			fmt.Fprintf(&sb, "- **Period %d**: %s ~ %s (%d minutes)\n",
				i+1, p.Start.Format("2006-01-02 15:04"), p.End.Format("2006-01-02 15:04"), p.DurationMinutes)
			fmt.Fprintf(&sb, "  - Repositories: %s\n", strings.Join(p.RepoIDs, ", "))
		}
		sb.WriteString("\n> Overlapping minutes are shared by the listed repositories and should not be added up per repository.\n")
	}
	sb.WriteString("\n")

	// ## Sessions
	sb.WriteString("## Sessions\n\n")
	clock := ClockLayout(r.Since, r.Until)
	if len(r.Repos) == 0 {
		sb.WriteString("_No commits in this window._\n\n")
	}
	for _, rr := range r.Repos {
		fmt.Fprintf(&sb, "### %s\n\n", rr.RepoID)
		fmt.Fprintf(&sb, "- %d sessions, about %d minutes\n", len(rr.Sessions), rr.TotalMinutes)
		for i, s := range rr.Sessions {
			marker := ""
			if s.Parallel {
				marker = " **[parallel]**"
			}
			fmt.Fprintf(&sb, "  - Session %d: %s ~ %s (%d minutes, %d commits)%s\n",
				i+1, s.Start.Format(clock), s.End.Format(clock), s.DurationMinutes, len(s.Commits), marker)
		}
		sb.WriteString("\n")
	}

	// ## Commits
	sb.WriteString("## Commits\n\n")
	if len(r.Repos) == 0 {
		sb.WriteString("_No commits recorded._\n\n")
	}
	for _, rr := range r.Repos {
		fmt.Fprintf(&sb, "### %s\n\n", rr.RepoID)
		for _, day := range rr.CommitsByDay() {
			fmt.Fprintf(&sb, "#### %s (%d commits)\n\n", day.Day, len(day.Commits))
			for _, c := range day.Commits {
				writeCommit(&sb, c, rr.Details)
			}
			sb.WriteString("\n")
		}
	}

	// ## Warnings
	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

func writeCommit(sb *strings.Builder, c timeline.Commit, details map[string]CommitDetail) {
	d, ok := details[c.SHA]
	if !ok {
		fmt.Fprintf(sb, "- [%s] %s | %s\n", shortSHA(c.SHA), c.Timestamp.Format("15:04:05"), c.Message)
		return
	}
	fmt.Fprintf(sb, "- [%s] %s | %s (%s)\n", shortSHA(c.SHA), c.Timestamp.Format("15:04:05"), c.Message, d.Stat())
	if len(d.Files) > 0 {
		fmt.Fprintf(sb, "  - files: %s\n", ListFiles(d.Files))
	}
	if d.Body != "" && d.Body != c.Message {
		sb.WriteString("  - message:\n\n    ```\n")
		for _, line := range strings.Split(d.Body, "\n") {
			fmt.Fprintf(sb, "    %s\n", line)
		}
		sb.WriteString("    ```\n\n")
	}
}

// ListFiles joins up to ten file paths, marking any that were left out.
func ListFiles(files []string) string {
	if len(files) <= maxListedFiles {
		return strings.Join(files, ", ")
	}
	return strings.Join(files[:maxListedFiles], ", ") + " ..."
}

// ClockLayout is the time layout for session bounds: the clock alone when
// the window covers a single day, the date and clock otherwise.
func ClockLayout(since, until time.Time) string {
	if sameDay(since, until) {
		return "15:04"
	}
	return "01-02 15:04"
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
