package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/chatbot/internal/client"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	clearCommand = "/clear"
	fileCommand  = "/file"

	// rows taken by everything except the message viewport
	chromeHeight = 10
	minViewport  = 3
)

type entry struct {
	fromUser bool
	text     string
	at       time.Time
}

// ChatModel is the chat page: a scrolling conversation above a prompt
type ChatModel struct {
	ctx      context.Context
	backend  Backend
	userID   string
	title    string
	keys     *chatKeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	entries  []entry
	waiting  bool
	status   string
	err      error
	width    int
	height   int
}

// NewChatModel creates the chat page for userID
func NewChatModel(ctx context.Context, backend Backend, userID, title string) ChatModel {
	input := textinput.New()
	input.Placeholder = "Type a message, /clear or /file <path> <message>"
	input.CharLimit = 4000
	input.Focus()

	return ChatModel{
		ctx:      ctx,
		backend:  backend,
		userID:   userID,
		title:    title,
		keys:     newChatKeyMap(),
		help:     help.New(),
		input:    input,
		viewport: viewport.New(0, 0),
		status:   "Loading history...",
	}
}

// Init loads the conversation and starts the cursor
func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		loadHistory(m.ctx, m.backend, m.userID),
	)
}

// Update handles messages for the chat page
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.send):
			return m.submit()
		case key.Matches(msg, m.keys.pageUp), key.Matches(msg, m.keys.pageDown):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := docStyle.GetFrameSize()
		m.viewport.Width = max(m.width-h-2, 1)
		m.viewport.Height = max(m.height-v-chromeHeight, minViewport)
		m.input.Width = max(m.width-h-4, 1)
		m.refresh()
		return m, nil

	case historyLoadedMsg:
		m.entries = m.entries[:0]
		for _, hm := range msg.messages {
			m.entries = append(m.entries, entry{fromUser: hm.Type != "outgoing", text: hm.Message, at: hm.Timestamp})
		}
		m.err = nil
		m.status = fmt.Sprintf("Loaded %s", pluralize(len(msg.messages), "message"))
		m.refresh()
		return m, nil

	case replyMsg:
		m.waiting = false
		m.err = nil
		m.status = ""
		if msg.reply.FileProcessed {
			m.status = "File processed"
		}
		m.entries = append(m.entries, entry{text: msg.reply.Reply, at: msg.reply.Timestamp})
		m.refresh()
		return m, nil

	case clearedMsg:
		m.waiting = false
		m.err = nil
		m.entries = nil
		m.status = fmt.Sprintf("Cleared %s", pluralize(msg.deleted, "message"))
		m.refresh()
		return m, nil

	case errMsg:
		m.waiting = false
		m.err = msg.err
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.waiting {
		return m, nil
	}
	m.input.Reset()
	m.err = nil

	switch {
	case text == clearCommand:
		m.waiting = true
		m.status = "Clearing history..."
		return m, clearHistory(m.ctx, m.backend, m.userID)

	case text == fileCommand || strings.HasPrefix(text, fileCommand+" "):
		path, message, ok := parseFileCommand(text)
		if !ok {
			m.err = fmt.Errorf("usage: %s <path> <message>", fileCommand)
			return m, nil
		}
		m.waiting = true
		m.status = "Uploading " + path + "..."
		m.entries = append(m.entries, entry{fromUser: true, text: fmt.Sprintf("[File: %s] %s", path, message), at: time.Now()})
		m.refresh()
		return m, sendFile(m.ctx, m.backend, m.userID, path, message)
	}

	m.waiting = true
	m.status = "Thinking..."
	m.entries = append(m.entries, entry{fromUser: true, text: text, at: time.Now()})
	m.refresh()
	return m, sendMessage(m.ctx, m.backend, m.userID, text)
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m ChatModel) renderEntries() string {
	if len(m.entries) == 0 {
		return helpStyle.Render("No messages yet. Say hello!")
	}

	body := lipgloss.NewStyle().Width(max(m.viewport.Width-2, 1))
	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		label := botLabelStyle.Render("Assistant")
		if e.fromUser {
			label = userLabelStyle.Render("You")
		}
		if ts := stamp(e.at); ts != "" {
			label += " " + helpStyle.Render(ts)
		}
		blocks = append(blocks, label+"\n"+body.Render(e.text))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat page
func (m ChatModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := titleStyle.Render(m.title) + " " + helpStyle.Render("as "+m.userID)

	status := statusMessageStyle(m.status)
	if m.err != nil {
		status = errorMessageStyle("Error: " + m.err.Error())
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		viewportStyle.Render(m.viewport.View()),
		status,
		"",
		m.input.View(),
		"",
		m.help.View(m),
	)
	return docStyle.Render(content)
}

// ShortHelp implements help.KeyMap
func (m ChatModel) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.send, m.keys.pageUp, m.keys.pageDown, m.keys.quit}
}

// FullHelp implements help.KeyMap
func (m ChatModel) FullHelp() [][]key.Binding {
	return [][]key.Binding{m.ShortHelp()}
}

// Entries returns the conversation shown on the page
func (m ChatModel) Entries() []client.Message {
	out := make([]client.Message, 0, len(m.entries))
	for _, e := range m.entries {
		typ := "outgoing"
		if e.fromUser {
			typ = "incoming"
		}
		out = append(out, client.Message{Message: e.text, Type: typ, Timestamp: e.at})
	}
	return out
}

// pluralize returns the count and noun, pluralized
func pluralize(count int, singular string) string {
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
