package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// CastStats summarizes a running screen cast
type CastStats struct {
	Frames  int
	Partial int
	Full    int
	Closed  bool
}

// CastDriver is what the live view drives: one call per repaint tick and
// one per layout poll, all from the program's update loop
type CastDriver interface {
	Frame() (CastStats, error)
	Poll() (CastStats, error)
}

// FrameTickMsg asks for the next frame
type FrameTickMsg time.Time

// PollTickMsg asks for a monitor layout poll
type PollTickMsg time.Time

// CastModel is the live view of the cast command
type CastModel struct {
	driver        CastDriver
	title         string
	frameInterval time.Duration
	pollInterval  time.Duration
	maxFrames     int

	spinner  spinner.Model
	progress progress.Model
	stats    CastStats
	err      error
	quitting bool
}

// NewCastModel creates the live view; maxFrames 0 runs until quit
func NewCastModel(driver CastDriver, title string, frameInterval, pollInterval time.Duration, maxFrames int) *CastModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = InfoStyle

	return &CastModel{
		driver:        driver,
		title:         title,
		frameInterval: frameInterval,
		pollInterval:  pollInterval,
		maxFrames:     maxFrames,
		spinner:       s,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Stats returns the counters of the last frame or poll
func (m *CastModel) Stats() CastStats {
	return m.stats
}

// Err returns the error that stopped the cast, if any
func (m *CastModel) Err() error {
	return m.err
}

func (m *CastModel) frameTick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return FrameTickMsg(t)
	})
}

func (m *CastModel) pollTick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return PollTickMsg(t)
	})
}

// Init starts the spinner and both tickers
func (m *CastModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.frameTick(), m.pollTick())
}

// Update handles messages for the cast model
func (m *CastModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case FrameTickMsg:
		if m.quitting {
			return m, nil
		}
		stats, err := m.driver.Frame()
		return m, m.afterStep(stats, err, m.frameTick)

	case PollTickMsg:
		if m.quitting {
			return m, nil
		}
		stats, err := m.driver.Poll()
		return m, m.afterStep(stats, err, m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.progress.Width = max(min(msg.Width-4, 60), 10)
	}

	return m, nil
}

// afterStep records the outcome of a frame or poll and either schedules the
// next tick or ends the program
func (m *CastModel) afterStep(stats CastStats, err error, next func() tea.Cmd) tea.Cmd {
	m.stats = stats
	if err != nil {
		m.err = err
		m.quitting = true
		return tea.Quit
	}
	if stats.Closed || (m.maxFrames > 0 && stats.Frames >= m.maxFrames) {
		m.quitting = true
		return tea.Quit
	}
	return next()
}

// View renders the status line, the counters and the frame budget
func (m *CastModel) View() string {
	var b strings.Builder

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s %s: %v", IconError, m.title, m.err)))
	case m.stats.Closed:
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%s %s: stream closed by a layout change", IconWarning, m.title)))
	case m.quitting:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("%s %s", IconSuccess, m.title)))
	default:
		b.WriteString(m.spinner.View() + " " + HeaderStyle.Render(m.title))
	}
	b.WriteString("\n")

	b.WriteString(FormatKeyValue("Frames", m.stats.Frames) + "\n")
	b.WriteString(FormatKeyValue("Partial", m.stats.Partial) + "\n")
	b.WriteString(FormatKeyValue("Full", m.stats.Full) + "\n")

	if m.maxFrames > 0 {
		b.WriteString("\n" + m.progress.ViewAs(float64(m.stats.Frames)/float64(m.maxFrames)) + "\n")
	}
	if !m.quitting {
		b.WriteString(SubtleStyle.Render("q to stop") + "\n")
	}
	return b.String()
}
