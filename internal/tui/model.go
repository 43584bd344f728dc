// Package tui is the terminal front end for a joined room.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/roomsync"
)

// Session is the part of roomsync.Session the view drives.
type Session interface {
	Room() domain.Room
	Identity() domain.Identity
	Updates() <-chan roomsync.Snapshot
	Done() <-chan struct{}
	Send(ctx context.Context, draft *roomsync.Draft, file *roomsync.AttachmentFile) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// Dictation turns an audio file into draft text. It may be nil when no
// speech service is configured.
type Dictation interface {
	Dictate(ctx context.Context, draft *roomsync.Draft, audio io.Reader) (string, error)
}

type (
	snapshotMsg roomsync.Snapshot
	closedMsg   struct{}
	sentMsg     struct{ err error }
	removedMsg  struct{ err error }
	dictatedMsg struct {
		text string
		err  error
	}
)

type Model struct {
	ctx       context.Context
	session   Session
	dictation Dictation
	publicURL func(string) string

	draft      *roomsync.Draft
	attachment *roomsync.AttachmentFile

	viewport viewport.Model
	input    textinput.Model
	snapshot roomsync.Snapshot
	sending  bool
	status   string
	warning  bool
	ready    bool
}

func New(ctx context.Context, session Session, dictation Dictation, publicURL func(string) string) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /attach <file>, /voice <file>, /delete <n>, /quit"
	ti.Focus()
	ti.CharLimit = 4000
	ti.Width = 20

	return Model{
		ctx:       ctx,
		session:   session,
		dictation: dictation,
		publicURL: publicURL,
		draft:     roomsync.NewDraft(""),
		input:     ti,
		snapshot:  roomsync.Snapshot{Room: session.Room()},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot)
}

func (m Model) waitForSnapshot() tea.Msg {
	select {
	case snap := <-m.session.Updates():
		return snapshotMsg(snap)
	case <-m.session.Done():
		return closedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refresh()

	case snapshotMsg:
		m.snapshot = roomsync.Snapshot(msg)
		m.refresh()
		return m, m.waitForSnapshot

	case closedMsg:
		return m, tea.Quit

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			m.setWarning(describe(msg.err))
		} else {
			m.attachment = nil
			m.setStatus("")
		}
		m.input.SetValue(m.draft.Text())
		m.input.CursorEnd()
		return m, nil

	case removedMsg:
		if msg.err != nil {
			m.setWarning(describe(msg.err))
		} else {
			m.setStatus("Message deleted")
		}
		return m, nil

	case dictatedMsg:
		switch {
		case msg.err != nil:
			m.setWarning("Voice note could not be transcribed")
		case msg.text == "":
			m.setStatus("No speech detected")
		default:
			m.setStatus("")
		}
		m.input.SetValue(m.draft.Text())
		m.input.CursorEnd()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.draft.Set(m.input.Value())
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if strings.HasPrefix(value, "/") {
		m.input.SetValue("")
		m.draft.Set("")
		return m.command(value)
	}

	if m.sending {
		m.setWarning("Still sending the previous message")
		return m, nil
	}
	if value == "" && m.attachment == nil {
		return m, nil
	}

	m.draft.Set(m.input.Value())
	m.sending = true
	m.setStatus("Sending...")
	ctx, session, draft, file := m.ctx, m.session, m.draft, m.attachment
	return m, func() tea.Msg {
		return sentMsg{err: session.Send(ctx, draft, file)}
	}
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit":
		return m, tea.Quit

	case "/attach":
		if arg == "" {
			m.setWarning("Usage: /attach <file>")
			return m, nil
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			m.setWarning(fmt.Sprintf("Cannot read %s", arg))
			return m, nil
		}
		m.attachment = &roomsync.AttachmentFile{Name: filepath.Base(arg), Data: data}
		m.setStatus(fmt.Sprintf("Attached %s (%d bytes), press Enter to send", m.attachment.Name, len(data)))
		return m, nil

	case "/detach":
		m.attachment = nil
		m.setStatus("Attachment removed")
		return m, nil

	case "/voice":
		if m.dictation == nil {
			m.setWarning("Voice input is not configured")
			return m, nil
		}
		if arg == "" {
			m.setWarning("Usage: /voice <audio file>")
			return m, nil
		}
		f, err := os.Open(arg)
		if err != nil {
			m.setWarning(fmt.Sprintf("Cannot read %s", arg))
			return m, nil
		}
		m.setStatus("Transcribing...")
		ctx, dictation, draft := m.ctx, m.dictation, m.draft
		return m, func() tea.Msg {
			defer f.Close()
			text, err := dictation.Dictate(ctx, draft, f)
			return dictatedMsg{text: text, err: err}
		}

	case "/delete":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(m.snapshot.Messages) {
			m.setWarning("Usage: /delete <message number>")
			return m, nil
		}
		target := m.snapshot.Messages[n-1]
		if !m.session.Identity().Owns(&target) {
			m.setWarning("You can only delete your own messages")
			return m, nil
		}
		m.setStatus("Deleting...")
		ctx, session := m.ctx, m.session
		return m, func() tea.Msg {
			return removedMsg{err: session.Remove(ctx, target.ID)}
		}
	}

	m.setWarning(fmt.Sprintf("Unknown command %s", name))
	return m, nil
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderMessages(m.snapshot.Messages, m.session.Identity(), m.publicURL, m.viewport.Width))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) setStatus(s string) {
	m.status, m.warning = s, false
}

func (m *Model) setWarning(s string) {
	m.status, m.warning = s, true
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Joining room..."
	}

	room := m.snapshot.Room
	header := titleStyle.Render(room.Name) + statusStyle.Render(fmt.Sprintf("  #%s  as %s", room.Slug, m.session.Identity().Username))

	status := fmt.Sprintf("%d messages", len(m.snapshot.Messages))
	if m.snapshot.Pending > 0 {
		status += fmt.Sprintf(", %d sending", m.snapshot.Pending)
	}
	if m.attachment != nil {
		status += ", attached " + m.attachment.Name
	}
	footer := statusStyle.Render(status)
	if m.status != "" {
		style := statusStyle
		if m.warning {
			style = warningStyle
		}
		footer += "  " + style.Render(m.status)
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		m.input.View(),
		footer,
	)
}

// describe turns pipeline errors into the notice shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, roomsync.ErrEmptyMessage):
		return "Type a message or attach a file first"
	case errors.Is(err, roomsync.ErrUpload):
		return "Attachment upload failed, try sending again"
	case errors.Is(err, roomsync.ErrSubmit):
		return "Message was not sent, try again"
	case errors.Is(err, roomsync.ErrDelete):
		return "Delete failed, the list was refreshed"
	}
	return err.Error()
}
