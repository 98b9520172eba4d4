// Package tui provides a Bubble Tea TUI for viewing gitwork reports.
package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/gitwork/internal/report"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	repoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	parallelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	// Selected row in the Sessions list
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabSessions
	tabParallel
	tabTimeline
	tabWarnings
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Sessions", "Parallel", "Timeline", "Warnings",
}

// ── Timeline event ───────────────────

type eventKind string

const (
	kindCommit   eventKind = "COMMIT"
	kindParallel eventKind = "PARALLEL"
)

type timelineEvent struct {
	ts   time.Time
	kind eventKind
	repo string
	text string
	// extra lines shown dimmed under the event
	lines []string
}

// sessionRow is one selectable line of the Sessions tab.
type sessionRow struct {
	repo  string
	index int
	entry report.SessionEntry
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	report    *report.Report
	filename  string
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
	timeline  []timelineEvent
	// Sessions tab: cursor position and expanded set
	sessions         []sessionRow
	sessionCursor    int
	expandedSessions map[int]bool
}

// New creates a new TUI model for the given report and source filename.
func New(r *report.Report, filename string) Model {
	m := Model{
		report:           r,
		filename:         filepath.Base(filename),
		expandedSessions: make(map[int]bool),
	}
	m.timeline = buildTimeline(r)
	for _, rr := range r.Repos {
		for i, s := range rr.Sessions {
			m.sessions = append(m.sessions, sessionRow{repo: rr.RepoID, index: i + 1, entry: s})
		}
	}
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabTimeline {
				m.sortAsc = !m.sortAsc
				m.rebuildTimelineViewport()
			}
		case "up", "k":
			if m.activeTab == tabSessions && m.sessionCursor > 0 {
				m.sessionCursor--
				m.rebuildSessionsViewport()
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabSessions && m.sessionCursor < len(m.sessions)-1 {
				m.sessionCursor++
				m.rebuildSessionsViewport()
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabSessions && len(m.sessions) > 0 {
				if m.expandedSessions[m.sessionCursor] {
					delete(m.expandedSessions, m.sessionCursor)
				} else {
					m.expandedSessions[m.sessionCursor] = true
				}
				m.rebuildSessionsViewport()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  gitwork  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  q quit"
	if m.activeTab == tabTimeline {
		dir := "newest first"
		if m.sortAsc {
			dir = "oldest first"
		}
		hint += "  s sort (" + dir + ")"
	}
	if m.activeTab == tabSessions {
		hint += "  ↑/↓ select  enter expand/collapse"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuildTimelineViewport() {
	m.viewports[tabTimeline].SetContent(m.renderTab(tabTimeline))
	m.viewports[tabTimeline].GotoTop()
}

func (m *Model) rebuildSessionsViewport() {
	m.viewports[tabSessions].SetContent(m.renderTab(tabSessions))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabSessions:
		return m.renderSessions()
	case tabParallel:
		return m.renderParallel()
	case tabTimeline:
		return m.renderTimeline()
	case tabWarnings:
		return m.renderWarnings()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func (m *Model) renderSummary() string {
	r := m.report
	var sb strings.Builder
	sb.WriteString(heading(r.Title))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
	}
	row("Since:", r.Since.Format("2006-01-02 15:04:05 MST"))
	row("Until:", r.Until.Format("2006-01-02 15:04:05 MST"))
	if r.Author != "" {
		row("Author:", r.Author)
	}
	row("Generated:", r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	row("Thresholds:", fmt.Sprintf("gap %dm, lookback %dm, merge %dm",
		r.Options.GapThresholdMinutes, r.Options.AnchorLookbackMinutes, r.Options.MergeGapMinutes))

	sb.WriteString(heading("Counts"))
	row("Repositories:", fmt.Sprintf("%d", len(r.Repos)))
	row("Commits:", fmt.Sprintf("%d", r.CommitCount()))
	row("Sessions:", fmt.Sprintf("%d (%d min)", r.SessionCount(), r.TotalMinutes()))
	row("Parallel:", fmt.Sprintf("%d (%d min)", len(r.Overlaps), r.TotalOverlapMinutes))
	row("Warnings:", fmt.Sprintf("%d", len(r.Warnings)))

	if len(r.Repos) > 0 {
		sb.WriteString(heading("Per Repository"))
		for _, rr := range r.Repos {
			sb.WriteString(bullet(fmt.Sprintf("%s  %d commits, %d sessions, %d min",
				repoStyle.Render(rr.RepoID), rr.CommitCount, len(rr.Sessions), rr.TotalMinutes)))
		}
	}
	return sb.String()
}

func (m *Model) renderSessions() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Sessions (%d)", len(m.sessions))))
	if len(m.sessions) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i, row := range m.sessions {
		s := row.entry
		toggle := dimStyle.Render("  ▶ ")
		if m.expandedSessions[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		span := timeStyle.Render(s.Start.Format("01-02 15:04") + " ~ " + s.End.Format("15:04"))
		line := fmt.Sprintf("%s%s  %s #%d  %d min, %d commits",
			toggle, span, repoStyle.Render(row.repo), row.index, s.DurationMinutes, len(s.Commits))
		if s.Parallel {
			line += "  " + parallelStyle.Render("[parallel]")
		}
		if i == m.sessionCursor {
			line = selectedRowStyle.Width(m.width - 2).Render(line)
		}
		sb.WriteString(line + "\n")

		if m.expandedSessions[i] {
			for _, c := range s.Commits {
				sb.WriteString(fmt.Sprintf("        %s  %s  %s\n",
					timeStyle.Render(c.Timestamp.Format("15:04:05")), dimStyle.Render(shortSHA(c.SHA)), c.Message))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderParallel() string {
	var sb strings.Builder
	r := m.report
	sb.WriteString(heading(fmt.Sprintf("Parallel Work (%d periods, %d min)", len(r.Overlaps), r.TotalOverlapMinutes)))
	if len(r.Overlaps) == 0 {
		sb.WriteString(dimStyle.Render("  (no parallel work detected)") + "\n")
		return sb.String()
	}
	for i, p := range r.Overlaps {
		span := timeStyle.Render(p.Start.Format("2006-01-02 15:04") + " ~ " + p.End.Format("15:04"))
		sb.WriteString(fmt.Sprintf("  %s  %s  %d min\n", dimStyle.Render(fmt.Sprintf("%3d.", i+1)), span, p.DurationMinutes))
		repos := make([]string, len(p.RepoIDs))
		for j, id := range p.RepoIDs {
			repos[j] = repoStyle.Render(id)
		}
		sb.WriteString("        " + strings.Join(repos, ", ") + "\n\n")
	}
	return sb.String()
}

func (m *Model) renderTimeline() string {
	var sb strings.Builder

	dir := "newest first"
	if m.sortAsc {
		dir = "oldest first"
	}
	sb.WriteString(heading(fmt.Sprintf("Timeline (%s)", dir)))

	events := make([]timelineEvent, len(m.timeline))
	copy(events, m.timeline)
	if m.sortAsc {
		sort.SliceStable(events, func(i, j int) bool { return events[i].ts.Before(events[j].ts) })
	} else {
		sort.SliceStable(events, func(i, j int) bool { return events[i].ts.After(events[j].ts) })
	}

	if len(events) == 0 {
		sb.WriteString(dimStyle.Render("  (no commits in this report)") + "\n")
		return sb.String()
	}

	for _, ev := range events {
		ts := timeStyle.Render(ev.ts.Format("01-02 15:04:05"))
		var badge string
		switch ev.kind {
		case kindCommit:
			badge = repoStyle.Render(fmt.Sprintf("  %-12s", ev.repo))
		case kindParallel:
			badge = parallelStyle.Render(fmt.Sprintf("  %-12s", string(ev.kind)))
		}
		sb.WriteString(ts + badge + "  " + ev.text + "\n")
		for _, l := range ev.lines {
			sb.WriteString(dimStyle.Render("      "+l) + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderWarnings() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Warnings (%d)", len(m.report.Warnings))))
	if len(m.report.Warnings) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, w := range m.report.Warnings {
		sb.WriteString(bullet(warnStyle.Render(w)))
	}
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func buildTimeline(r *report.Report) []timelineEvent {
	var events []timelineEvent
	for _, c := range r.Commits() {
		ev := timelineEvent{ts: c.Timestamp, kind: kindCommit, repo: c.RepoID,
			text: fmt.Sprintf("[%s] %s", shortSHA(c.SHA), c.Message)}
		if d, ok := r.Detail(c.RepoID, c.SHA); ok {
			ev.text += fmt.Sprintf(" (%s)", d.Stat())
			ev.lines = commitLines(c.Message, d)
		}
		events = append(events, ev)
	}
	for _, p := range r.Overlaps {
		events = append(events, timelineEvent{
			ts:   p.Start,
			kind: kindParallel,
			text: fmt.Sprintf("%s until %s (%d min)", strings.Join(p.RepoIDs, ", "), p.End.Format("15:04"), p.DurationMinutes),
		})
	}
	return events
}

// commitLines lists the changed files and the message past its subject.
func commitLines(subject string, d report.CommitDetail) []string {
	var lines []string
	if len(d.Files) > 0 {
		lines = append(lines, "files: "+report.ListFiles(d.Files))
	}
	body := strings.TrimSpace(strings.TrimPrefix(d.Body, subject))
	if body != "" {
		lines = append(lines, strings.Split(body, "\n")...)
	}
	return lines
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// Run starts the TUI for the given report.
func Run(r *report.Report, filename string) error {
	p := tea.NewProgram(New(r, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
