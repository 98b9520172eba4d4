// Package worklog runs the collect, analyze and build pipeline shared by the
// CLI and the MCP server.
package worklog

import (
	"context"
	"fmt"
	"time"

	"github.com/fakeyudi/gitwork/internal/collector"
	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/timeline"
)

// Request describes one report run.
type Request struct {
	RepoPaths []string
	Window    collector.Window
	Author    string
	Title     string
	Options   timeline.Options
	// Runner executes git. Nil uses collector.DefaultGitRunner.
	Runner collector.GitRunner
	// Now stamps the report. Zero means time.Now.
	Now time.Time
}

// Run collects activity from every repository, segments it into sessions,
// detects parallel work and returns the assembled report. Per-repository
// problems end up in the report's warnings; only invalid options or an empty
// repository list fail the run.
func Run(ctx context.Context, req Request) (*report.Report, error) {
	if len(req.RepoPaths) == 0 {
		return nil, fmt.Errorf("no repositories given")
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	runner := req.Runner
	if runner == nil {
		runner = collector.DefaultGitRunner
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	collectors := collector.NewGitCollectors(req.RepoPaths, req.Author, runner)
	results := collector.CollectAll(ctx, collectors, req.Window)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	commits, anchors, warnings := collector.Gather(results)

	res, err := timeline.Analyze(commits, anchors, req.Options)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	r := report.Build(report.Meta{
		Title:       req.Title,
		Author:      req.Author,
		Since:       req.Window.Since,
		Until:       req.Window.Until,
		Options:     req.Options,
		Warnings:    warnings,
		GeneratedAt: req.Now,
		Details:     collector.GatherDetails(results),
	}, res)

	log.Debug("report built",
		"repos", len(req.RepoPaths),
		"commits", r.CommitCount(),
		"sessions", r.SessionCount(),
		"overlaps", len(r.Overlaps),
		"elapsed", time.Since(start))
	return r, nil
}
