package timeline

import (
	"sort"
	"time"
)

// OverlapPeriod is a window during which sessions from at least two
// repositories coexist.
type OverlapPeriod struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	RepoIDs         []string  `json:"repo_ids"`
	DurationMinutes int       `json:"duration_minutes"`
}

// TotalOverlapMinutes sums DurationMinutes over periods.
func TotalOverlapMinutes(periods []OverlapPeriod) int {
	total := 0
	for _, p := range periods {
		total += p.DurationMinutes
	}
	return total
}

type interval struct {
	start, end time.Time
	repoID     string
}

// DetectOverlaps sweeps all sessions in start order, clustering sessions
// whose intervals chain together, and keeps clusters spanning two or more
// repositories. Resulting periods no more than mergeGapMinutes apart are
// then merged. Fewer than two repositories with sessions yields no periods.
//
// Sessions starting at the same instant are ordered by end, then by
// repository ID.
func DetectOverlaps(sessionsByRepo map[string][]Session, mergeGapMinutes int) ([]OverlapPeriod, error) {
	if err := checkNonNegative("merge_gap_minutes", mergeGapMinutes); err != nil {
		return nil, err
	}

	active := 0
	for _, sessions := range sessionsByRepo {
		if len(sessions) > 0 {
			active++
		}
	}
	if active < 2 {
		return []OverlapPeriod{}, nil
	}

	var intervals []interval
	for repoID, sessions := range sessionsByRepo {
		for _, s := range sessions {
			intervals = append(intervals, interval{start: s.Start, end: s.End, repoID: repoID})
		}
	}
	sort.Slice(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		if !a.end.Equal(b.end) {
			return a.end.Before(b.end)
		}
		return a.repoID < b.repoID
	})

	var provisional []OverlapPeriod
	cluster := []interval{intervals[0]}
	clusterEnd := intervals[0].end
	for _, iv := range intervals[1:] {
		if !iv.start.After(clusterEnd) {
			cluster = append(cluster, iv)
			if iv.end.After(clusterEnd) {
				clusterEnd = iv.end
			}
			continue
		}
		if p, ok := closeCluster(cluster); ok {
			provisional = append(provisional, p)
		}
		cluster = []interval{iv}
		clusterEnd = iv.end
	}
	if p, ok := closeCluster(cluster); ok {
		provisional = append(provisional, p)
	}

	merged := mergeAdjacent(provisional, time.Duration(mergeGapMinutes)*time.Minute)
	for i := range merged {
		merged[i].DurationMinutes = wholeMinutes(merged[i].End.Sub(merged[i].Start))
	}
	return merged, nil
}

// closeCluster turns a cluster into a provisional period when it spans at
// least two repositories.
func closeCluster(cluster []interval) (OverlapPeriod, bool) {
	repos := make(map[string]struct{})
	p := OverlapPeriod{Start: cluster[0].start, End: cluster[0].end}
	for _, iv := range cluster {
		repos[iv.repoID] = struct{}{}
		if iv.start.Before(p.Start) {
			p.Start = iv.start
		}
		if iv.end.After(p.End) {
			p.End = iv.end
		}
	}
	if len(repos) < 2 {
		return OverlapPeriod{}, false
	}
	p.RepoIDs = sortedKeys(repos)
	return p, true
}

// mergeAdjacent folds consecutive periods whose gap is at most tolerance.
// A negative gap means the periods overlap and always merges.
func mergeAdjacent(periods []OverlapPeriod, tolerance time.Duration) []OverlapPeriod {
	out := []OverlapPeriod{}
	if len(periods) == 0 {
		return out
	}
	sort.SliceStable(periods, func(i, j int) bool {
		if !periods[i].Start.Equal(periods[j].Start) {
			return periods[i].Start.Before(periods[j].Start)
		}
		return periods[i].End.Before(periods[j].End)
	})

	cur := periods[0]
	for _, next := range periods[1:] {
		if next.Start.Sub(cur.End) <= tolerance {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			cur.RepoIDs = unionSorted(cur.RepoIDs, next.RepoIDs)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}
