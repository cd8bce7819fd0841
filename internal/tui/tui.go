// Package tui provides a Bubble Tea progress view for a musicweb build.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/handiism/musicweb/internal/build"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const maxLogs = 10

// ErrCancelled is reported when the user stops a running build.
var ErrCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateBuilding State = iota
	StateComplete
	StateError
)

// StartFunc runs the build, reporting progress through onProgress. It is
// called once, off the UI goroutine.
type StartFunc func(ctx context.Context, onProgress func(build.ProgressEvent)) (*build.Report, error)

// Options configures the progress view.
type Options struct {
	// Albums is the number of albums the build will attempt.
	Albums int

	// OutputRoot is shown in the header.
	OutputRoot string

	// Verbose shows verbose events from the start; "v" toggles it.
	Verbose bool

	// Context bounds the build. When it is cancelled the build stops and
	// the view quits once the build has returned. Nil means Background.
	Context context.Context

	Start StartFunc
}

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   build.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	spinner  spinner.Model
	progress progress.Model
	opts     Options
	logs     []LogEntry
	report   *build.Report
	err      error

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	events chan build.ProgressEvent

	done    int
	failed  int
	verbose bool

	width int
}

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	parent := opts.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	return Model{
		state:    StateBuilding,
		spinner:  sp,
		progress: prog,
		opts:     opts,
		parent:   parent,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan build.ProgressEvent, 256),
		verbose:  opts.Verbose,
	}
}

// Init starts the build.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startBuild(), m.waitForEvent())
}

// Message types
type (
	// ProgressMsg carries one build progress event.
	ProgressMsg struct {
		Event build.ProgressEvent
	}

	// BuildDoneMsg is sent when the build returns.
	BuildDoneMsg struct {
		Report *build.Report
		Err    error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateBuilding {
				m.cancel()
			} else {
				return m, tea.Quit
			}

		case "v":
			m.verbose = !m.verbose

		case "q":
			if m.state != StateBuilding {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m = m.apply(msg.Event)
		var percent float64
		if m.opts.Albums > 0 {
			percent = float64(m.done) / float64(m.opts.Albums)
		}
		cmds = append(cmds, m.progress.SetPercent(percent), m.waitForEvent())

	case BuildDoneMsg:
		m.report = msg.Report
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = ErrCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}
		if m.parent.Err() != nil {
			return m, tea.Quit
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// apply records one event. Verbose events are counted but only shown in
// verbose mode.
func (m Model) apply(e build.ProgressEvent) Model {
	if e.AlbumDone {
		m.done++
		if e.Level == build.LevelError {
			m.failed++
		}
	}
	if e.Level == build.LevelVerbose && !m.verbose {
		return m
	}
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	return m
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("musicweb"))
	b.WriteString("\n")
	if m.opts.OutputRoot != "" {
		b.WriteString(dimStyle.Render("Building " + m.opts.OutputRoot))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.state {
	case StateBuilding:
		b.WriteString(m.viewBuilding())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewBuilding() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Building %d album(s)...", m.opts.Albums)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.View())
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Albums: %d/%d | Failed: %d", m.done, m.opts.Albums, m.failed)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	albums, formats, failed, issues := 0, 0, m.failed, 0
	var size int64
	if r := m.report; r != nil {
		albums, failed, issues = len(r.Albums), r.Failed, r.Issues()
		for _, a := range r.Albums {
			formats += len(a.Formats)
			for _, f := range a.Formats {
				size += f.ArchiveSize
			}
		}
	}

	return boxStyle.Render(fmt.Sprintf(
		"Build complete\n\n"+
			"Albums:  %d\n"+
			"Formats: %d\n"+
			"Failed:  %d\n"+
			"Issues:  %d\n"+
			"Archives: %s",
		albums, formats, failed, issues, humanize.Bytes(uint64(size)),
	)) + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Build stopped:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case build.LevelError:
			style = errorStyle
			prefix = "✗"
		case build.LevelWarning:
			style = warningStyle
			prefix = "!"
		case build.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case build.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	if m.state == StateBuilding {
		return "v: verbose • esc: cancel"
	}
	return "v: verbose • q: quit"
}

// startBuild runs the build in the background.
func (m Model) startBuild() tea.Cmd {
	ctx, events, start := m.ctx, m.events, m.opts.Start
	return func() tea.Msg {
		defer close(events)
		if start == nil {
			return BuildDoneMsg{Err: errors.New("no build to run")}
		}
		report, err := start(ctx, func(e build.ProgressEvent) {
			if e.AlbumDone {
				select {
				case events <- e:
				case <-ctx.Done():
				}
				return
			}
			// the view only needs recent messages; drop when the UI lags
			select {
			case events <- e:
			default:
			}
		})
		return BuildDoneMsg{Report: report, Err: err}
	}
}

// waitForEvent delivers the next progress event.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// Run shows the progress view until the user quits and returns the build
// outcome.
func Run(opts Options) (*build.Report, error) {
	// Signals reach the build through opts.Context; keys still quit.
	final, err := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithoutSignalHandler()).Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	m.cancel()
	if m.state == StateBuilding {
		return m.report, ErrCancelled
	}
	return m.report, m.err
}
