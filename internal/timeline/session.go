package timeline

import (
	"time"
)

// Session is a maximal run of one repository's commits in which consecutive
// commits are no further apart than the gap threshold.
type Session struct {
	RepoID          string    `json:"repo_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Commits         []Commit  `json:"commits"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Intersects reports whether p includes the session's repository and the
// two closed intervals share at least one instant.
func (s Session) Intersects(p OverlapPeriod) bool {
	if s.End.Before(p.Start) || s.Start.After(p.End) {
		return false
	}
	for _, id := range p.RepoIDs {
		if id == s.RepoID {
			return true
		}
	}
	return false
}

// TotalMinutes sums DurationMinutes over sessions.
func TotalMinutes(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		total += s.DurationMinutes
	}
	return total
}

// BuildSessions partitions commits into sessions. A commit joins the current
// session when it is at most gapThresholdMinutes after the session's last
// commit. Afterwards each session's Start may move back to the latest anchor
// of the same repository that lies strictly before it and no more than
// anchorLookbackMinutes earlier, provided the anchor is also strictly after
// the previous session's End.
//
// An empty commit list yields an empty result.
func BuildSessions(commits []Commit, anchors []AnchorEvent, gapThresholdMinutes, anchorLookbackMinutes int) ([]Session, error) {
	if err := checkPositive("gap_threshold_minutes", gapThresholdMinutes); err != nil {
		return nil, err
	}
	if err := checkNonNegative("anchor_lookback_minutes", anchorLookbackMinutes); err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return []Session{}, nil
	}

	sorted := SortCommits(commits)
	gap := time.Duration(gapThresholdMinutes) * time.Minute

	var sessions []Session
	cur := openSession(sorted[0])
	for _, c := range sorted[1:] {
		if c.Timestamp.Sub(cur.End) <= gap {
			cur.Commits = append(cur.Commits, c)
			cur.End = c.Timestamp
			continue
		}
		sessions = append(sessions, cur)
		cur = openSession(c)
	}
	sessions = append(sessions, cur)

	sortedAnchors := SortAnchors(anchors)
	lookback := time.Duration(anchorLookbackMinutes) * time.Minute
	for i := range sessions {
		s := &sessions[i]
		var floor *time.Time
		if i > 0 {
			floor = &sessions[i-1].End
		}
		if ts, ok := precursor(sortedAnchors, s.RepoID, s.Start, lookback, floor); ok {
			s.Start = ts
		}
		s.DurationMinutes = max(1, wholeMinutes(s.End.Sub(s.Start)))
	}
	return sessions, nil
}

func openSession(c Commit) Session {
	return Session{
		RepoID:  c.RepoID,
		Start:   c.Timestamp,
		End:     c.Timestamp,
		Commits: []Commit{c},
	}
}

// precursor finds the latest anchor for repoID in (start-lookback, start),
// inclusive of start-lookback, that is strictly after floor when floor is set.
// anchors must be sorted ascending.
func precursor(anchors []AnchorEvent, repoID string, start time.Time, lookback time.Duration, floor *time.Time) (time.Time, bool) {
	for i := len(anchors) - 1; i >= 0; i-- {
		a := anchors[i]
		if a.RepoID != repoID {
			continue
		}
		d := start.Sub(a.Timestamp)
		if d <= 0 {
			continue
		}
		if d > lookback {
			return time.Time{}, false
		}
		if floor != nil && !a.Timestamp.After(*floor) {
			return time.Time{}, false
		}
		return a.Timestamp, true
	}
	return time.Time{}, false
}

func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
