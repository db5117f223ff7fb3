// Package tui is the terminal shell for the dictation controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"stthebrew/internal/domain"
	"stthebrew/internal/export"
	"stthebrew/internal/locale"
)

// Controller is the part of the dictation controller the terminal drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Clear()
	RemoveDuplicates() int
	Download(ctx context.Context, format domain.ExportFormat) (export.Document, error)
	CopyTranscript(ctx context.Context) error
	SetContinuous(continuous bool)
	Status() domain.Status
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	restartStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	transcriptBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	partialStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = helpStyle.Bold(true)
)

const placeholder = "..."

type model struct {
	ctx     context.Context
	ctrl    Controller
	catalog *locale.Catalog

	status  domain.Status
	format  domain.ExportFormat
	partial string
	message string
	isError bool

	width, height int
}

func newModel(ctx context.Context, ctrl Controller, catalog *locale.Catalog, format domain.ExportFormat) model {
	return model{
		ctx:     ctx,
		ctrl:    ctrl,
		catalog: catalog,
		format:  domain.ParseExportFormat(string(format)),
		message: catalog.Reason(domain.ReasonReady, ""),
	}
}

// NewProgram builds the program and attaches sink to it.
func NewProgram(ctx context.Context, ctrl Controller, catalog *locale.Catalog, format domain.ExportFormat, sink *Sink) *tea.Program {
	p := tea.NewProgram(newModel(ctx, ctrl, catalog, format), tea.WithAltScreen(), tea.WithContext(ctx))
	sink.Attach(p)
	return p
}

func (m model) Init() tea.Cmd {
	return m.refresh()
}

// refresh reads the controller status off the event loop. Update never calls
// the controller directly because the controller emits while holding its
// lock.
func (m model) refresh() tea.Cmd {
	return m.run(func() {})
}

func (m model) run(action func()) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		action()
		return statusMsg(ctrl.Status())
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.status = domain.Status(msg)

	case stateMsg:
		m.status.State = msg.state
		if msg.state != domain.SessionStateListening {
			m.partial = ""
		}
		if text := m.catalog.Reason(msg.reason, ""); text != "" {
			m.message, m.isError = text, false
		}
		return m, m.refresh()

	case partialMsg:
		m.partial = msg.text

	case transcriptMsg:
		m.status.Transcript = msg.text
		m.partial = ""
		return m, m.refresh()

	case noticeMsg:
		if text := m.catalog.Reason(msg.reason, msg.detail); text != "" {
			m.message, m.isError = text, false
		}
		return m, m.refresh()

	case errorMsg:
		m.message, m.isError = m.catalog.Error(msg.code, msg.detail), true
		return m, m.refresh()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.ctx
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+@", "ctrl+space":
		if m.status.Controls.Stop {
			return m, m.run(func() { _ = m.ctrl.Stop() })
		}
		if !m.status.Controls.Start {
			return m, nil
		}
		return m, m.run(func() { _ = m.ctrl.Start(ctx) })
	case "ctrl+l":
		if !m.status.Controls.Clear {
			return m, nil
		}
		return m, m.run(m.ctrl.Clear)
	case "ctrl+s":
		if !m.status.Controls.Download {
			return m, nil
		}
		format := m.format
		return m, m.run(func() { _, _ = m.ctrl.Download(ctx, format) })
	case "ctrl+r":
		if !m.status.Controls.RemoveDuplicates {
			return m, nil
		}
		return m, m.run(func() { m.ctrl.RemoveDuplicates() })
	case "ctrl+y":
		// Copy shares the download gate: both need a non-empty transcript.
		if !m.status.Controls.Download {
			return m, nil
		}
		return m, m.run(func() { _ = m.ctrl.CopyTranscript(ctx) })
	case "ctrl+t":
		continuous := !m.status.Continuous
		return m, m.run(func() { m.ctrl.SetContinuous(continuous) })
	case "tab":
		m.format = nextFormat(m.format)
	}
	return m, nil
}

func nextFormat(current domain.ExportFormat) domain.ExportFormat {
	index := lo.IndexOf(domain.ExportFormats, current)
	if index < 0 {
		return domain.ExportFormats[0]
	}
	return domain.ExportFormats[(index+1)%len(domain.ExportFormats)]
}

func (m model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("stthebrew") + "  " + m.stateLine() + "\n")
	b.WriteString(infoStyle.Render(m.infoLine()) + "\n\n")

	body := m.status.Transcript
	if strings.TrimSpace(body) == "" && m.partial == "" {
		body = idleStyle.Render(placeholder)
	}
	if m.partial != "" {
		if body != "" {
			body += " "
		}
		body += partialStyle.Render(m.partial)
	}
	b.WriteString(transcriptBox.Width(width-2).Render(body) + "\n")

	if m.message != "" {
		style := messageStyle
		if m.isError {
			style = errorStyle
		}
		b.WriteString(style.Render(m.message) + "\n")
	}
	b.WriteString("\n" + helpLine())
	return b.String()
}

func (m model) stateLine() string {
	switch m.status.State {
	case domain.SessionStateListening:
		return recStyle.Render("● REC")
	case domain.SessionStateRestarting:
		return restartStyle.Render("↻ RESTARTING")
	default:
		return idleStyle.Render("○ STANDBY")
	}
}

func (m model) infoLine() string {
	continuous := "off"
	if m.status.Continuous {
		continuous = "on"
	}
	return fmt.Sprintf("[%s | continuous %s | %s]", m.status.Language, continuous, strings.ToUpper(string(m.format)))
}

func helpLine() string {
	keys := [][2]string{
		{"Ctrl+Space", "record"},
		{"Ctrl+L", "clear"},
		{"Ctrl+S", "download"},
		{"Ctrl+R", "dedup"},
		{"Ctrl+Y", "copy"},
		{"Ctrl+T", "continuous"},
		{"Tab", "format"},
		{"Ctrl+C", "quit"},
	}
	return strings.Join(lo.Map(keys, func(k [2]string, _ int) string {
		return helpKeyStyle.Render(k[0]) + helpStyle.Render(" "+k[1])
	}), helpStyle.Render("  "))
}
