package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/remind-go/internal/models"
)

// Theme holds the color scheme for the chat display.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Tool      lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Tool:      lipgloss.Color("#AF87FF"), // purple
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant)
}

func (t Theme) toolStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Tool)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// agentEventMsg carries a progress event from the running conversation.
type agentEventMsg struct {
	event models.AgentEvent
}

// converseDoneMsg carries the final result of a conversation turn.
type converseDoneMsg struct {
	result *models.ConverseResult
	err    error
}

// chatModel is the bubbletea model for the interactive chat session.
// Events and the final result arrive through a single channel, so the
// transcript stays in the order the agent produced them.
type chatModel struct {
	converse converseFunc
	history  []models.Turn
	events   chan tea.Msg

	transcript []string
	input      string
	busy       bool
	spinner    spinner.Model
	theme      Theme
	quitting   bool
}

// newChatModel creates a new chat model.
func newChatModel(converse converseFunc) chatModel {
	return chatModel{
		converse: converse,
		events:   make(chan tea.Msg, 32),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		case "backspace":
			if len(m.input) > 0 {
				runes := []rune(m.input)
				m.input = string(runes[:len(runes)-1])
			}
			return m, nil
		default:
			if !m.busy && msg.Text != "" {
				m.input += msg.Text
			}
			return m, nil
		}

	case agentEventMsg:
		if msg.event.Type == "tool_call" {
			line := m.theme.toolStyle().Render(fmt.Sprintf("⚙ %s %s", msg.event.Tool, msg.event.Input))
			m.transcript = append(m.transcript, line)
		}
		// The final "message" event is dropped; converseDoneMsg carries it.
		return m, m.waitEvent()

	case converseDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.transcript = append(m.transcript,
				m.theme.errorStyle().Render("✗ "+msg.err.Error()))
			return m, nil
		}
		if msg.result.Warning != "" {
			m.transcript = append(m.transcript,
				m.theme.hintStyle().Render("! "+msg.result.Warning))
		}
		m.transcript = append(m.transcript,
			m.theme.assistantStyle().Render("remind: ")+msg.result.Message)
		m.history = append(m.history, models.Turn{Role: "assistant", Content: msg.result.Message})
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// submit sends the current input line to the agent.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input)
	if m.busy || query == "" {
		return m, nil
	}

	m.transcript = append(m.transcript, m.theme.userStyle().Render("you: ")+query)
	m.input = ""
	m.busy = true

	// History is extended before the call so the agent sees prior turns but
	// not the query itself (it goes in as the live message).
	history := make([]models.Turn, len(m.history))
	copy(history, m.history)
	m.history = append(m.history, models.Turn{Role: "user", Content: query})

	return m, tea.Batch(
		m.spinner.Tick,
		m.runConverse(query, history),
		m.waitEvent(),
	)
}

// runConverse executes the conversation turn in a command goroutine. The
// result is pushed through the event channel so it arrives after every
// tool event.
func (m chatModel) runConverse(query string, history []models.Turn) tea.Cmd {
	events := m.events
	converse := m.converse
	return func() tea.Msg {
		result, err := converse(context.Background(), query, history, func(ev models.AgentEvent) {
			events <- agentEventMsg{event: ev}
		})
		events <- converseDoneMsg{result: result, err: err}
		return nil
	}
}

// waitEvent delivers the next channel message to Update.
func (m chatModel) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// View renders the chat display.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	var b strings.Builder

	b.WriteString(m.theme.hintStyle().Render("remind chat — Esc or Ctrl+C to quit"))
	b.WriteString("\n\n")

	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.hintStyle().Render(" thinking..."))
		b.WriteString("\n")
	} else {
		b.WriteString("> ")
		b.WriteString(m.input)
		b.WriteString("█")
		b.WriteString("\n")
	}

	return b.String()
}

// runChatTUI runs the interactive chat session.
func runChatTUI(converse converseFunc) error {
	p := tea.NewProgram(newChatModel(converse))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}
