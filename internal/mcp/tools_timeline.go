package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

// handleTimeline processes analyze_timeline tool calls. Every timestamp is
// checked before the engine runs.
func (s *Server) handleTimeline(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input TimelineInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	opts, err := resolveOptions(input.SessionGapMinutes, input.AnchorLookbackMinutes, input.MergeGapMinutes)
	if err != nil {
		return errorResult(err)
	}

	commits, err := convertCommits(input.Commits)
	if err != nil {
		return errorResult(err)
	}

	anchors, err := convertAnchors(input.Anchors)
	if err != nil {
		return errorResult(err)
	}

	result, err := timeline.Analyze(commits, anchors, opts)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(result)
}

func convertCommits(in []CommitInput) (map[string][]timeline.Commit, error) {
	out := make(map[string][]timeline.Commit)
	for i, c := range in {
		if c.RepoID == "" {
			return nil, fmt.Errorf("commits[%d]: %w", i, ErrEmptyRepoID)
		}
		ts, err := parseTimestamp(c.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("commits[%d]: %w", i, err)
		}
		out[c.RepoID] = append(out[c.RepoID], timeline.Commit{
			SHA:         c.SHA,
			RepoID:      c.RepoID,
			Timestamp:   ts,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			Message:     c.Message,
		})
	}
	return out, nil
}

func convertAnchors(in []AnchorInput) (map[string][]timeline.AnchorEvent, error) {
	out := make(map[string][]timeline.AnchorEvent)
	for i, a := range in {
		if a.RepoID == "" {
			return nil, fmt.Errorf("anchors[%d]: %w", i, ErrEmptyRepoID)
		}
		ts, err := parseTimestamp(a.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("anchors[%d]: %w", i, err)
		}
		out[a.RepoID] = append(out[a.RepoID], timeline.AnchorEvent{
			RepoID:    a.RepoID,
			Timestamp: ts,
			Kind:      timeline.AnchorKind(a.Kind),
		})
	}
	return out, nil
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
	}
	return ts, nil
}
