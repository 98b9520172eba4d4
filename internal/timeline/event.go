// Package timeline segments commit activity into work sessions and detects
// windows where sessions from two or more repositories coexist.
//
// Everything in this package is a pure function of its arguments: no I/O, no
// logging, no package-level state. Inputs are never mutated; results are
// freshly allocated.
package timeline

import (
	"sort"
	"time"
)

// Commit is one timestamped unit of work in a repository.
type Commit struct {
	SHA         string    `json:"sha"`
	RepoID      string    `json:"repo_id"`
	Timestamp   time.Time `json:"timestamp"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Message     string    `json:"message"`
}

// AnchorKind names the reflog operation an anchor was derived from.
type AnchorKind string

const (
	AnchorPull   AnchorKind = "pull"
	AnchorFetch  AnchorKind = "fetch"
	AnchorMerge  AnchorKind = "merge"
	AnchorRebase AnchorKind = "rebase"
	AnchorUpdate AnchorKind = "update"
)

// AnchorEvent is a non-commit signal that work on a repository may have
// started before its first commit. Only RepoID and Timestamp are used when
// building sessions.
type AnchorEvent struct {
	RepoID    string     `json:"repo_id"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      AnchorKind `json:"kind,omitempty"`
}

// commitLess orders commits by timestamp, then by the remaining fields so
// the order is total over distinguishable records.
func commitLess(a, b Commit) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.SHA != b.SHA {
		return a.SHA < b.SHA
	}
	if a.AuthorName != b.AuthorName {
		return a.AuthorName < b.AuthorName
	}
	if a.AuthorEmail != b.AuthorEmail {
		return a.AuthorEmail < b.AuthorEmail
	}
	return a.Message < b.Message
}

// SortCommits returns a chronologically ordered copy of commits.
func SortCommits(commits []Commit) []Commit {
	sorted := make([]Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool { return commitLess(sorted[i], sorted[j]) })
	return sorted
}

// SortAnchors returns a chronologically ordered copy of anchors.
func SortAnchors(anchors []AnchorEvent) []AnchorEvent {
	sorted := make([]AnchorEvent, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.RepoID != b.RepoID {
			return a.RepoID < b.RepoID
		}
		return a.Kind < b.Kind
	})
	return sorted
}
