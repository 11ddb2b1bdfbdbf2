package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/stats"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to update the display.
type TickMsg time.Time

// StatsMsg carries an updated snapshot and loop position.
type StatsMsg struct {
	Snapshot stats.Snapshot
	Progress Progress
}

// QuitMsg signals the TUI should exit.
type QuitMsg struct{}

// =============================================================================
// Model
// =============================================================================

// Progress is the loop position shown in the progress panel.
type Progress struct {
	State   string // loop state name, e.g. "invoking"
	Segment int    // current window index
	Windows int    // total windows planned
	Window  string // current window as "[start, end)"
}

// Source provides run statistics and progress.
type Source interface {
	Snapshot() stats.Snapshot
	Progress() Progress
}

// Config holds TUI configuration.
type Config struct {
	Input           string
	Codec           string
	MetricsAddr     string
	SegmentDuration time.Duration
	Source          Source
}

// Model represents the TUI state.
type Model struct {
	// Configuration
	input           string
	codec           string
	metricsAddr     string
	segmentDuration time.Duration

	// Current state
	snapshot     *stats.Snapshot
	progress     Progress
	startTime    time.Time
	lastUpdate   time.Time
	detailedView bool

	// Display options
	width  int
	height int

	// Stats source (for fetching updates)
	source Source

	// Quit flag
	quitting bool
}

// New creates a new TUI model.
func New(cfg Config) Model {
	return Model{
		input:           cfg.Input,
		codec:           cfg.Codec,
		metricsAddr:     cfg.MetricsAddr,
		segmentDuration: cfg.SegmentDuration,
		source:          cfg.Source,
		startTime:       time.Now(),
		lastUpdate:      time.Now(),
		width:           80,
		height:          24,
	}
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// Note: tea.WithAltScreen() is passed when creating the program,
	// so we don't need tea.EnterAltScreen here.
	return tickCmd()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "d":
			m.detailedView = !m.detailedView
			return m, nil
		case "r":
			// Force refresh
			return m, tickCmd()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		// Fetch latest stats
		if m.source != nil {
			snap := m.source.Snapshot()
			m.snapshot = &snap
			m.progress = m.source.Progress()
		}
		m.lastUpdate = time.Now()
		return m, tickCmd()

	case StatsMsg:
		snap := msg.Snapshot
		m.snapshot = &snap
		m.progress = msg.Progress
		m.lastUpdate = time.Now()
		return m, nil

	case QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.detailedView && m.snapshot != nil && m.snapshot.Boundaries() > 0 {
		return m.renderDetailedView()
	}
	return m.renderSummaryView()
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the run started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Completed returns the number of windows transcoded so far.
func (m Model) Completed() int {
	if m.snapshot == nil {
		return 0
	}
	return m.snapshot.Segments
}

// Windows returns the planned window count.
func (m Model) Windows() int {
	return m.progress.Windows
}

// WindowProgress returns the fraction of windows transcoded (0.0 to 1.0).
func (m Model) WindowProgress() float64 {
	if m.progress.Windows == 0 {
		return 0
	}
	return float64(m.Completed()) / float64(m.progress.Windows)
}

// Remaining estimates the wall time left from the average invocation time.
func (m Model) Remaining() time.Duration {
	if m.snapshot == nil || m.progress.Windows == 0 {
		return 0
	}
	left := m.progress.Windows - m.snapshot.Segments
	if left <= 0 {
		return 0
	}
	return time.Duration(left) * m.snapshot.AvgInvoke()
}

// =============================================================================
// Helper for external use
// =============================================================================

// SendStats sends a stats update to the TUI.
func SendStats(p *tea.Program, snap stats.Snapshot, progress Progress) {
	if p != nil {
		p.Send(StatsMsg{Snapshot: snap, Progress: progress})
	}
}

// SendQuit sends a quit message to the TUI.
func SendQuit(p *tea.Program) {
	if p != nil {
		p.Send(QuitMsg{})
	}
}

// =============================================================================
// Formatting Helpers (used by view.go)
// =============================================================================

// formatDuration formats a duration as HH:MM:SS.
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatNumber formats a number with K/M suffixes.
func formatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// formatMs formats a duration as milliseconds.
func formatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}

// formatSeamError formats a seam error in seconds as milliseconds with
// microsecond precision.
func formatSeamError(sec float64) string {
	return fmt.Sprintf("%.3f ms", sec*1000)
}

// formatPercent formats a percentage.
func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
