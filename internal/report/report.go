// Package report assembles engine output into a renderable work report.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

// Report is the complete, renderable representation of an analysis run.
type Report struct {
	ID                  string                   `json:"id"`
	GeneratedAt         time.Time                `json:"generated_at"`
	Title               string                   `json:"title"`
	Author              string                   `json:"author,omitempty"`
	Since               time.Time                `json:"since"`
	Until               time.Time                `json:"until"`
	Options             timeline.Options         `json:"options"`
	Repos               []RepoReport             `json:"repos"`
	Overlaps            []timeline.OverlapPeriod `json:"overlaps"`
	TotalOverlapMinutes int                      `json:"total_overlap_minutes"`
	Warnings            []string                 `json:"warnings"`
}

// RepoReport holds one repository's sessions.
type RepoReport struct {
	RepoID       string         `json:"repo_id"`
	CommitCount  int            `json:"commit_count"`
	Sessions     []SessionEntry `json:"sessions"`
	TotalMinutes int            `json:"total_minutes"`
	// Details maps a commit SHA to its change summary.
	Details map[string]CommitDetail `json:"details,omitempty"`
}

// CommitDetail is what a commit changed and its full message. The engine
// never sees it; it only travels from the collector to the renderers.
type CommitDetail struct {
	Files      []string `json:"files,omitempty"`
	Insertions int      `json:"insertions"`
	Deletions  int      `json:"deletions"`
	Body       string   `json:"body,omitempty"`
}

// SessionEntry is a session plus whether it took part in parallel work.
type SessionEntry struct {
	timeline.Session
	Parallel bool `json:"parallel"`
}

// Meta carries the run parameters that are not part of the engine result.
type Meta struct {
	Title       string
	Author      string
	Since       time.Time
	Until       time.Time
	Options     timeline.Options
	Warnings    []string
	GeneratedAt time.Time // zero means now
	// Details holds commit details by repository ID, then SHA.
	Details map[string]map[string]CommitDetail
}

// Build turns an engine result into a report. Repositories are sorted by ID.
func Build(meta Meta, res timeline.Result) *Report {
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	title := meta.Title
	if title == "" {
		title = DefaultTitle(meta.Since, meta.Until)
	}

	overlaps := res.Overlaps
	if overlaps == nil {
		overlaps = []timeline.OverlapPeriod{}
	}
	warnings := meta.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	r := &Report{
		ID:                  uuid.NewString(),
		GeneratedAt:         generated,
		Title:               title,
		Author:              meta.Author,
		Since:               meta.Since,
		Until:               meta.Until,
		Options:             meta.Options,
		Repos:               make([]RepoReport, 0, len(res.SessionsByRepo)),
		Overlaps:            overlaps,
		TotalOverlapMinutes: timeline.TotalOverlapMinutes(overlaps),
		Warnings:            warnings,
	}

	for _, id := range res.RepoIDs() {
		sessions := res.SessionsByRepo[id]
		rr := RepoReport{
			RepoID:       id,
			Sessions:     make([]SessionEntry, 0, len(sessions)),
			TotalMinutes: timeline.TotalMinutes(sessions),
		}
		known := meta.Details[id]
		for _, s := range sessions {
			rr.CommitCount += len(s.Commits)
			rr.Sessions = append(rr.Sessions, SessionEntry{Session: s, Parallel: isParallel(s, overlaps)})
			for _, c := range s.Commits {
				d, ok := known[c.SHA]
				if !ok {
					continue
				}
				if rr.Details == nil {
					rr.Details = make(map[string]CommitDetail)
				}
				rr.Details[c.SHA] = d
			}
		}
		r.Repos = append(r.Repos, rr)
	}
	return r
}

// DefaultTitle names a report after its window.
func DefaultTitle(since, until time.Time) string {
	from, to := since.Format("2006-01-02"), until.Format("2006-01-02")
	if sameDay(since, until) {
		return "Work log " + from
	}
	return "Work log " + from + " ~ " + to
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func isParallel(s timeline.Session, overlaps []timeline.OverlapPeriod) bool {
	for _, p := range overlaps {
		if s.Intersects(p) {
			return true
		}
	}
	return false
}

// CommitCount is the number of commits across all repositories.
func (r *Report) CommitCount() int {
	n := 0
	for _, rr := range r.Repos {
		n += rr.CommitCount
	}
	return n
}

// SessionCount is the number of sessions across all repositories.
func (r *Report) SessionCount() int {
	n := 0
	for _, rr := range r.Repos {
		n += len(rr.Sessions)
	}
	return n
}

// TotalMinutes sums session minutes across repositories. Parallel minutes
// are counted once per repository.
func (r *Report) TotalMinutes() int {
	n := 0
	for _, rr := range r.Repos {
		n += rr.TotalMinutes
	}
	return n
}

// Commits returns every commit in the report in timeline order. Commits
// sharing an instant are ordered by repository, then SHA.
func (r *Report) Commits() []timeline.Commit {
	var all []timeline.Commit
	for _, rr := range r.Repos {
		for _, s := range rr.Sessions {
			all = append(all, s.Commits...)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.RepoID != b.RepoID {
			return a.RepoID < b.RepoID
		}
		return a.SHA < b.SHA
	})
	return all
}

// Detail returns the recorded details of a commit in repository repoID.
func (r *Report) Detail(repoID, sha string) (CommitDetail, bool) {
	for _, rr := range r.Repos {
		if rr.RepoID == repoID {
			d, ok := rr.Details[sha]
			return d, ok
		}
	}
	return CommitDetail{}, false
}

// Stat formats the change counts as "ins+/dels-; N files".
func (d CommitDetail) Stat() string {
	return fmt.Sprintf("%d+/%d-; %d files", d.Insertions, d.Deletions, len(d.Files))
}

// CommitsByDay groups a repository's commits by local calendar day.
func (rr RepoReport) CommitsByDay() []DayCommits {
	var days []DayCommits
	for _, s := range rr.Sessions {
		for _, c := range s.Commits {
			day := c.Timestamp.Format("2006-01-02")
			if len(days) == 0 || days[len(days)-1].Day != day {
				days = append(days, DayCommits{Day: day})
			}
			days[len(days)-1].Commits = append(days[len(days)-1].Commits, c)
		}
	}
	return days
}

// DayCommits is one calendar day of commits.
type DayCommits struct {
	Day     string
	Commits []timeline.Commit
}
