package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fakeyudi/gitwork/internal/collector"
	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/worklog"
)

// handleSessions processes git_work_sessions tool calls.
func (s *Server) handleSessions(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SessionsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateSessionsInput(input)
	if err != nil {
		return errorResult(err)
	}

	opts, err := resolveOptions(input.SessionGapMinutes, input.AnchorLookbackMinutes, input.MergeGapMinutes)
	if err != nil {
		return errorResult(err)
	}

	window, err := collector.ParseWindow(input.Since, input.Until, input.Days, s.now())
	if err != nil {
		return errorResult(err)
	}

	renderer, _, err := report.RendererFor(input.Format)
	if err != nil {
		return errorResult(fmt.Errorf("%w: %q", ErrUnsupportedFormat, input.Format))
	}
	// The structured output already carries the data.
	if md, ok := renderer.(*report.MarkdownRenderer); ok {
		md.OmitPayload = true
	}

	r, err := worklog.Run(ctx, worklog.Request{
		RepoPaths: input.RepoPaths,
		Window:    window,
		Author:    input.Author,
		Options:   opts,
		Runner:    s.runner,
	})
	if err != nil {
		return errorResult(err)
	}

	data, err := renderer.Render(r)
	if err != nil {
		return errorResult(fmt.Errorf("render report: %w", err))
	}

	return textResult(string(data), r)
}

func validateSessionsInput(input SessionsInput) error {
	if len(input.RepoPaths) == 0 {
		return ErrNoRepoPaths
	}

	for _, p := range input.RepoPaths {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: %q", ErrRepoPathNotAbsolute, p)
		}
	}

	return nil
}
