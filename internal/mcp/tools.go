package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

// Tool name constants.
const (
	ToolNameSessions = "git_work_sessions"
	ToolNameTimeline = "analyze_timeline"
)

// Sentinel errors for tool input validation.
var (
	// ErrNoRepoPaths indicates repo_paths is empty.
	ErrNoRepoPaths = errors.New("repo_paths is required and must not be empty")
	// ErrRepoPathNotAbsolute indicates a repo path is not absolute.
	ErrRepoPathNotAbsolute = errors.New("repo paths must be absolute")
	// ErrUnsupportedFormat indicates an unknown output format.
	ErrUnsupportedFormat = errors.New("format must be markdown or json")
	// ErrEmptyRepoID indicates a commit or anchor without repo_id.
	ErrEmptyRepoID = errors.New("repo_id is required")
	// ErrInvalidTimestamp indicates a timestamp that is not RFC3339.
	ErrInvalidTimestamp = errors.New("timestamp must be RFC3339")
)

// Input types (auto-generate JSON schemas via struct tags).

// SessionsInput is the input schema for the git_work_sessions tool.
type SessionsInput struct {
	RepoPaths []string `json:"repo_paths"         jsonschema:"absolute paths of local git repositories"`
	Since     string   `json:"since,omitempty"    jsonschema:"window start (RFC3339 or YYYY-MM-DD, default today)"`
	Until     string   `json:"until,omitempty"    jsonschema:"window end (RFC3339 or YYYY-MM-DD, default today)"`
	Days      int      `json:"days,omitempty"     jsonschema:"last N days ending today; overrides since and until"`
	Author    string   `json:"author,omitempty"   jsonschema:"case-insensitive substring of author name or email"`
	Format    string   `json:"format,omitempty"   jsonschema:"markdown (default) or json"`

	SessionGapMinutes     *int `json:"session_gap_minutes,omitempty"     jsonschema:"max minutes between commits of one session (default 60)"`
	AnchorLookbackMinutes *int `json:"anchor_lookback_minutes,omitempty" jsonschema:"max minutes an anchor may precede a session (default 120)"`
	MergeGapMinutes       *int `json:"merge_gap_minutes,omitempty"       jsonschema:"max gap in minutes for merging parallel periods (default 5)"`
}

// CommitInput is one commit supplied to analyze_timeline.
type CommitInput struct {
	RepoID      string `json:"repo_id"                jsonschema:"repository identifier"`
	SHA         string `json:"sha"                    jsonschema:"commit hash"`
	Timestamp   string `json:"timestamp"              jsonschema:"commit time in RFC3339"`
	AuthorName  string `json:"author_name,omitempty"  jsonschema:"author name"`
	AuthorEmail string `json:"author_email,omitempty" jsonschema:"author email"`
	Message     string `json:"message,omitempty"      jsonschema:"commit subject"`
}

// AnchorInput is one anchor event supplied to analyze_timeline.
type AnchorInput struct {
	RepoID    string `json:"repo_id"        jsonschema:"repository identifier"`
	Timestamp string `json:"timestamp"      jsonschema:"event time in RFC3339"`
	Kind      string `json:"kind,omitempty" jsonschema:"pull, fetch, merge, rebase or update"`
}

// TimelineInput is the input schema for the analyze_timeline tool.
type TimelineInput struct {
	Commits []CommitInput `json:"commits"           jsonschema:"commits across all repositories"`
	Anchors []AnchorInput `json:"anchors,omitempty" jsonschema:"optional sync events that may start a session early"`

	SessionGapMinutes     *int `json:"session_gap_minutes,omitempty"     jsonschema:"max minutes between commits of one session (default 60)"`
	AnchorLookbackMinutes *int `json:"anchor_lookback_minutes,omitempty" jsonschema:"max minutes an anchor may precede a session (default 120)"`
	MergeGapMinutes       *int `json:"merge_gap_minutes,omitempty"       jsonschema:"max gap in minutes for merging parallel periods (default 5)"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// resolveOptions applies the optional thresholds over the defaults and
// validates the result.
func resolveOptions(gap, lookback, mergeGap *int) (timeline.Options, error) {
	opts := timeline.DefaultOptions()
	if gap != nil {
		opts.GapThresholdMinutes = *gap
	}
	if lookback != nil {
		opts.AnchorLookbackMinutes = *lookback
	}
	if mergeGap != nil {
		opts.MergeGapMinutes = *mergeGap
	}
	return opts, opts.Validate()
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return textResult(string(data), value)
}

// textResult builds a CallToolResult with pre-rendered text content and
// value as structured output.
func textResult(text string, value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}, ToolOutput{Data: value}, nil
}
