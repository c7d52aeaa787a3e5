// Package chat implements the interactive terminal chat over a table.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"tablechat/internal/engine"
	"tablechat/internal/logging"
	"tablechat/internal/table"
	"tablechat/internal/usage"
)

// Message is one entry in the transcript.
type Message struct {
	Role    string // user, assistant, system
	Content string
	Time    time.Time
}

// dispatchResultMsg carries the engine's answer back to Update.
type dispatchResultMsg struct {
	snapshot *table.Snapshot
	reply    string
	elapsed  time.Duration
}

// Dispatcher is the part of the engine the chat needs. *engine.Engine
// satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string, s *table.Snapshot) (*table.Snapshot, string)
	Status() engine.ProviderState
	Stats() usage.AggregatedStats
}

// Model is the bubbletea model for the chat.
type Model struct {
	ctx      context.Context
	dispatch Dispatcher
	snapshot *table.Snapshot
	view     table.ViewOptions

	history   []Message
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
	styles    Styles

	isLoading bool
	width     int
	height    int
}

// New creates a chat model over an engine and its starting snapshot.
func New(ctx context.Context, e Dispatcher, s *table.Snapshot) Model {
	ti := textinput.New()
	ti.Placeholder = `Try "add row 10, 20, 30" or ":help"`
	ti.Prompt = "› "
	ti.CharLimit = 512
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(Primary)

	vp := viewport.New(80, 10)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)

	m := Model{
		ctx:       ctx,
		dispatch:  e,
		snapshot:  s,
		view:      table.DefaultViewOptions(),
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		renderer:  renderer,
		styles:    DefaultStyles(),
		width:     80,
		height:    24,
	}
	m.history = append(m.history, Message{
		Role:    "system",
		Content: fmt.Sprintf("Provider: %s. Type a command, or :help for local commands.", e.Status()),
		Time:    time.Now(),
	})
	m.refresh()
	return m
}

// Snapshot returns the current table.
func (m Model) Snapshot() *table.Snapshot {
	return m.snapshot
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textinput.Value())
			if input == "" {
				return m, nil
			}
			m.textinput.Reset()
			if strings.HasPrefix(input, ":") {
				return m.handleLocalCommand(input)
			}
			return m.startDispatch(input)

		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

		if m.isLoading {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textinput.Width = max(10, msg.Width-4)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(20, msg.Width-4)),
		)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dispatchResultMsg:
		m.isLoading = false
		if msg.snapshot != nil {
			m.snapshot = msg.snapshot
		}
		m.appendMessage("assistant", msg.reply)
		m.textinput.Focus()
		logging.Get(logging.CategoryUI).Debug("dispatch finished",
			zap.Duration("elapsed", msg.elapsed), zap.Bool("changed", msg.snapshot != nil))
		return m, textinput.Blink
	}

	m.textinput, tiCmd = m.textinput.Update(msg)
	return m, tiCmd
}

// startDispatch disables input and runs the engine off the UI goroutine.
func (m Model) startDispatch(input string) (tea.Model, tea.Cmd) {
	m.isLoading = true
	m.textinput.Blur()
	m.appendMessage("user", input)
	return m, tea.Batch(m.spinner.Tick, m.runDispatch(input, m.snapshot))
}

func (m Model) runDispatch(input string, s *table.Snapshot) tea.Cmd {
	ctx, d := m.ctx, m.dispatch
	return func() tea.Msg {
		start := time.Now()
		out, reply := d.Dispatch(ctx, input, s)
		return dispatchResultMsg{snapshot: out, reply: reply, elapsed: time.Since(start)}
	}
}

func (m *Model) appendMessage(role, content string) {
	m.history = append(m.history, Message{Role: role, Content: content, Time: time.Now()})
	m.refresh()
}

// refresh resizes the transcript to the space the table leaves and
// re-renders it.
func (m *Model) refresh() {
	tableHeight := lipgloss.Height(m.renderTable())
	// title and input lines, plus two spare
	m.viewport.Width = m.width
	m.viewport.Height = max(3, m.height-tableHeight-4)
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderTable() string {
	return RenderTable(m.snapshot, table.View(m.snapshot, m.view), m.styles)
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for i, msg := range m.history {
		if i > 0 {
			sb.WriteString("\n")
		}
		switch msg.Role {
		case "user":
			sb.WriteString(m.styles.UserMsg.Render("> " + msg.Content))
		case "system":
			sb.WriteString(m.styles.System.Render(msg.Content))
		default:
			sb.WriteString(m.styles.Assistant.Render(msg.Content))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// View implements tea.Model.
func (m Model) View() string {
	state := m.dispatch.Status()
	title := m.styles.Title.Render("tablechat") + "  " + m.styles.Badge[state].Render(state.Label())
	if status := m.viewStatus(); status != "" {
		title += "  " + m.styles.Muted.Render(status)
	}

	input := m.textinput.View()
	if m.isLoading {
		input = m.spinner.View() + " " + m.styles.Muted.Render("thinking...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.renderTable(),
		m.viewport.View(),
		input,
	)
}

// viewStatus describes the active sort and filter.
func (m Model) viewStatus() string {
	var parts []string
	if m.view.SortColumn >= 0 && m.view.SortColumn < m.snapshot.ColumnCount() {
		dir := "asc"
		if m.view.Descending {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("sorted by %s %s", m.snapshot.Headers[m.view.SortColumn], dir))
	}
	if f := strings.TrimSpace(m.view.Filter); f != "" {
		parts = append(parts, fmt.Sprintf("filter %q", f))
	}
	return strings.Join(parts, ", ")
}

// Run starts the interactive program and blocks until it exits.
func Run(ctx context.Context, e Dispatcher, s *table.Snapshot) error {
	p := tea.NewProgram(New(ctx, e, s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
