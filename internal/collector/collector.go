// Package collector gathers commit and reflog activity from local git
// repositories for a time window.
package collector

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/timeline"
)

// Collector gathers activity for one repository.
type Collector interface {
	// ID names the repository the collector reports for.
	ID() string
	// Collect returns the repository's activity within w.
	// Warnings are returned as non-fatal issues in Result.Warnings.
	Collect(ctx context.Context, w Window) (Result, error)
}

// Result holds the output of a single collector.
type Result struct {
	RepoID   string
	Commits  []timeline.Commit
	Anchors  []timeline.AnchorEvent
	Details  map[string]report.CommitDetail // by commit SHA
	Warnings []string                       // non-fatal issues encountered
}

// maxParallel bounds concurrent git subprocesses.
const maxParallel = 8

// CollectAll runs every collector concurrently. Results keep the order of
// collectors; a collector error becomes a warning on its result.
func CollectAll(ctx context.Context, collectors []Collector, w Window) []Result {
	log := logging.FromContext(ctx)
	results := make([]Result, len(collectors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, c := range collectors {
		g.Go(func() error {
			res, err := c.Collect(ctx, w)
			res.RepoID = c.ID()
			if err != nil {
				log.Warn("collect failed", "repo", c.ID(), "error", err)
				res.Warnings = append(res.Warnings, err.Error())
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Gather regroups results into the per-repository maps the engine takes.
// Warnings are prefixed with their repository ID.
func Gather(results []Result) (map[string][]timeline.Commit, map[string][]timeline.AnchorEvent, []string) {
	commits := make(map[string][]timeline.Commit, len(results))
	anchors := make(map[string][]timeline.AnchorEvent, len(results))
	var warnings []string
	for _, r := range results {
		commits[r.RepoID] = append(commits[r.RepoID], r.Commits...)
		anchors[r.RepoID] = append(anchors[r.RepoID], r.Anchors...)
		for _, w := range r.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", r.RepoID, w))
		}
	}
	return commits, anchors, warnings
}

// GatherDetails regroups commit details by repository ID, then SHA.
func GatherDetails(results []Result) map[string]map[string]report.CommitDetail {
	out := make(map[string]map[string]report.CommitDetail, len(results))
	for _, r := range results {
		if len(r.Details) == 0 {
			continue
		}
		if out[r.RepoID] == nil {
			out[r.RepoID] = make(map[string]report.CommitDetail, len(r.Details))
		}
		maps.Copy(out[r.RepoID], r.Details)
	}
	return out
}

// NewGitCollectors builds one GitCollector per path. Repository IDs are the
// base names of the paths; clashing base names fall back to the cleaned path.
func NewGitCollectors(paths []string, author string, runner GitRunner) []Collector {
	seen := make(map[string]int, len(paths))
	for _, p := range paths {
		seen[filepath.Base(filepath.Clean(p))]++
	}
	out := make([]Collector, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		id := filepath.Base(clean)
		if seen[id] > 1 {
			id = clean
		}
		out = append(out, &GitCollector{RepoPath: clean, RepoID: id, Author: author, Runner: runner})
	}
	return out
}
