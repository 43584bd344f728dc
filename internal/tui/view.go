package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vedran77/huddle/internal/domain"
)

var (
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#505050"))
	mineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	theirsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	attachStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3C9DD0")).Underline(true)
	deleteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
)

const (
	senderWidth  = 15
	minLineWidth = 40
)

// renderMessage draws one message. Only messages the viewer owns carry the
// delete control.
func renderMessage(msg domain.Message, index int, viewer domain.Identity, publicURL func(string) string, width int) string {
	if width < minLineWidth {
		width = minLineWidth
	}
	mine := viewer.Owns(&msg)

	vLine := borderStyle.Render("│")
	name := msg.SenderName
	if name == "" {
		name = "unknown"
	}
	if len(name) > senderWidth {
		name = name[:senderWidth]
	}
	name = fmt.Sprintf("%-*s", senderWidth, name)
	if mine {
		name = mineStyle.Render(name)
	} else {
		name = theirsStyle.Render(name)
	}

	prefix := fmt.Sprintf("%s %s %s %s %s ", vLine, timeStyle.Render(msg.CreatedAt.Local().Format("15:04")), vLine, name, vLine)
	bodyWidth := width - lipgloss.Width(prefix)
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	var body []string
	if msg.Content != "" {
		wrapped := lipgloss.NewStyle().Width(bodyWidth).Render(msg.Content)
		body = append(body, strings.Split(wrapped, "\n")...)
	}
	if msg.Attachment != nil {
		link := msg.Attachment.Path
		if publicURL != nil {
			link = publicURL(msg.Attachment.Path)
		}
		body = append(body, attachStyle.Render(fmt.Sprintf("[%s] %s", msg.Attachment.MediaType, link)))
	}
	if mine {
		body = append(body, deleteStyle.Render(fmt.Sprintf("✕ /delete %d", index)))
	}

	emptyPrefix := fmt.Sprintf("%s %s %s %s %s ", vLine, strings.Repeat(" ", 5), vLine, strings.Repeat(" ", senderWidth), vLine)

	var b strings.Builder
	for i, line := range body {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString("\n")
			b.WriteString(emptyPrefix)
		}
		b.WriteString(line)
	}
	return b.String()
}

func renderMessages(messages []domain.Message, viewer domain.Identity, publicURL func(string) string, width int) string {
	if len(messages) == 0 {
		return statusStyle.Render("No messages yet. Say hello!")
	}
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = renderMessage(msg, i+1, viewer, publicURL, width)
	}
	return strings.Join(lines, "\n")
}
