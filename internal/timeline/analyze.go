package timeline

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// Default option values.
const (
	DefaultGapThresholdMinutes   = 60
	DefaultAnchorLookbackMinutes = 120
	DefaultMergeGapMinutes       = 5
)

// Options controls session segmentation and overlap merging.
type Options struct {
	GapThresholdMinutes   int `json:"gap_threshold_minutes"`
	AnchorLookbackMinutes int `json:"anchor_lookback_minutes"`
	MergeGapMinutes       int `json:"merge_gap_minutes"`
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		GapThresholdMinutes:   DefaultGapThresholdMinutes,
		AnchorLookbackMinutes: DefaultAnchorLookbackMinutes,
		MergeGapMinutes:       DefaultMergeGapMinutes,
	}
}

// Validate returns a *ConfigError for the first out-of-range option.
func (o Options) Validate() error {
	if err := checkPositive("gap_threshold_minutes", o.GapThresholdMinutes); err != nil {
		return err
	}
	if err := checkNonNegative("anchor_lookback_minutes", o.AnchorLookbackMinutes); err != nil {
		return err
	}
	return checkNonNegative("merge_gap_minutes", o.MergeGapMinutes)
}

// Result is the output of Analyze.
type Result struct {
	SessionsByRepo map[string][]Session `json:"sessions_by_repo"`
	Overlaps       []OverlapPeriod      `json:"overlaps"`
}

// RepoIDs returns the repositories that produced sessions, sorted.
func (r Result) RepoIDs() []string {
	ids := make([]string, 0, len(r.SessionsByRepo))
	for id := range r.SessionsByRepo {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Analyze builds sessions for every repository in commitsByRepo and then
// detects overlaps across them. Repositories are processed concurrently;
// overlap detection starts once all of them are done. The map keys are
// authoritative: every commit and anchor is attributed to the key it was
// supplied under. Anchors keyed by a repository without commits are ignored.
func Analyze(commitsByRepo map[string][]Commit, anchorsByRepo map[string][]AnchorEvent, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	repoIDs := make([]string, 0, len(commitsByRepo))
	for id, commits := range commitsByRepo {
		if len(commits) > 0 {
			repoIDs = append(repoIDs, id)
		}
	}
	sort.Strings(repoIDs)

	built := make([][]Session, len(repoIDs))
	var g errgroup.Group
	for i, id := range repoIDs {
		g.Go(func() error {
			sessions, err := BuildSessions(
				stampCommits(id, commitsByRepo[id]),
				stampAnchors(id, anchorsByRepo[id]),
				opts.GapThresholdMinutes,
				opts.AnchorLookbackMinutes,
			)
			built[i] = sessions
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	sessionsByRepo := make(map[string][]Session, len(repoIDs))
	for i, id := range repoIDs {
		sessionsByRepo[id] = built[i]
	}

	overlaps, err := DetectOverlaps(sessionsByRepo, opts.MergeGapMinutes)
	if err != nil {
		return Result{}, err
	}
	return Result{SessionsByRepo: sessionsByRepo, Overlaps: overlaps}, nil
}

// stampCommits copies commits with RepoID set to the map key they came from.
func stampCommits(repoID string, commits []Commit) []Commit {
	out := make([]Commit, len(commits))
	for i, c := range commits {
		c.RepoID = repoID
		out[i] = c
	}
	return out
}

func stampAnchors(repoID string, anchors []AnchorEvent) []AnchorEvent {
	out := make([]AnchorEvent, len(anchors))
	for i, a := range anchors {
		a.RepoID = repoID
		out[i] = a
	}
	return out
}
