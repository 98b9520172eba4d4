package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/fakeyudi/gitwork/internal/report"
)

var (
	parallelMark = color.New(color.FgYellow, color.Bold)
	warnMark     = color.New(color.FgRed)
	headerMark   = color.New(color.FgCyan, color.Bold)
)

// printReport writes a plain-text rendition of r to w.
func printReport(w io.Writer, r *report.Report) {
	headerMark.Fprintf(w, "## %s\n", r.Title)
	fmt.Fprintf(w, "  Window:     %s ~ %s\n", r.Since.Format("2006-01-02 15:04"), r.Until.Format("2006-01-02 15:04"))
	if r.Author != "" {
		fmt.Fprintf(w, "  Author:     %s\n", r.Author)
	}
	fmt.Fprintf(w, "  Generated:  %s (%s)\n", r.GeneratedAt.Format("2006-01-02 15:04:05"), humanize.Time(r.GeneratedAt))
	fmt.Fprintf(w, "  Commits:    %s in %d repositories\n", humanize.Comma(int64(r.CommitCount())), len(r.Repos))
	fmt.Fprintf(w, "  Sessions:   %d (%s)\n", r.SessionCount(), minutes(r.TotalMinutes()))
	fmt.Fprintf(w, "  Parallel:   %d periods (%s)\n", len(r.Overlaps), minutes(r.TotalOverlapMinutes))
	fmt.Fprintln(w)

	headerMark.Fprintln(w, "## Sessions")
	if r.SessionCount() == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintln(w, sessionsTable(r))
	}
	fmt.Fprintln(w)

	headerMark.Fprintln(w, "## Parallel Work")
	if len(r.Overlaps) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintln(w, overlapsTable(r))
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		headerMark.Fprintln(w, "## Warnings")
		for _, msg := range r.Warnings {
			warnMark.Fprintf(w, "  warning: %s\n", msg)
		}
		fmt.Fprintln(w)
	}
}

// printSummary writes the short post-analysis summary.
func printSummary(w io.Writer, r *report.Report, outputPath string) {
	if outputPath != "" {
		fmt.Fprintf(w, "Report written: %s\n", outputPath)
	}
	fmt.Fprintf(w, "  %s commits, %d sessions (%s) across %d repositories\n",
		humanize.Comma(int64(r.CommitCount())), r.SessionCount(), minutes(r.TotalMinutes()), len(r.Repos))
	if len(r.Overlaps) > 0 {
		fmt.Fprintf(w, "  %s %d periods, %s\n", parallelMark.Sprint("[parallel]"), len(r.Overlaps), minutes(r.TotalOverlapMinutes))
	}
	for _, msg := range r.Warnings {
		warnMark.Fprintf(w, "warning: %s\n", msg)
	}
}

func sessionsTable(r *report.Report) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Repository", "#", "Start", "End", "Minutes", "Commits", "Idle before", ""})
	for _, rr := range r.Repos {
		var prevEnd time.Time
		for i, s := range rr.Sessions {
			idle := "-"
			if i > 0 {
				idle = strings.TrimSpace(humanize.RelTime(prevEnd, s.Start, "", ""))
			}
			mark := ""
			if s.Parallel {
				mark = parallelMark.Sprint("[parallel]")
			}
			tbl.AppendRow(table.Row{
				rr.RepoID, i + 1,
				s.Start.Format("01-02 15:04"), s.End.Format("15:04"),
				s.DurationMinutes, len(s.Commits), idle, mark,
			})
			prevEnd = s.End
		}
	}
	tbl.AppendFooter(table.Row{"Total", "", "", "", r.TotalMinutes(), r.CommitCount(), "", ""})
	return tbl.Render()
}

func overlapsTable(r *report.Report) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Period", "Start", "End", "Minutes", "Repositories"})
	for i, p := range r.Overlaps {
		tbl.AppendRow(table.Row{
			i + 1,
			p.Start.Format("01-02 15:04"), p.End.Format("15:04"),
			p.DurationMinutes, strings.Join(p.RepoIDs, ", "),
		})
	}
	tbl.AppendFooter(table.Row{"Total", "", "", r.TotalOverlapMinutes, ""})
	return tbl.Render()
}

func minutes(n int) string {
	if n == 1 {
		return "1 minute"
	}
	return strconv.Itoa(n) + " minutes"
}
