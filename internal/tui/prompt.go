package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vedran77/huddle/internal/roomsync"
)

const maxUsernameLength = 50

type promptModel struct {
	input     textinput.Model
	name      string
	cancelled bool
}

func newPrompt() promptModel {
	ti := textinput.New()
	ti.Placeholder = "your name"
	ti.Focus()
	ti.CharLimit = maxUsernameLength
	ti.Width = 30
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if name := strings.TrimSpace(m.input.Value()); name != "" {
				m.name = name
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return fmt.Sprintf("\n  %s\n\n  %s\n\n  %s\n",
		titleStyle.Render("Welcome to huddle"),
		m.input.View(),
		statusStyle.Render("Pick a display name and press Enter (Esc to quit)"),
	)
}

// PromptUsername asks for a display name on the terminal.
func PromptUsername(opts ...tea.ProgramOption) (string, error) {
	final, err := tea.NewProgram(newPrompt(), opts...).Run()
	if err != nil {
		return "", err
	}
	m := final.(promptModel)
	if m.cancelled || m.name == "" {
		return "", roomsync.ErrNoIdentity
	}
	return m.name, nil
}
