package tui

import (
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// Slash command constants.
const (
	cmdHelp  = "/help"
	cmdClear = "/clear"
	cmdNew   = "/new"
	cmdLang  = "/lang"
	cmdDoc   = "/doc"
	cmdExit  = "/exit"
	cmdQuit  = "/quit"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	NewChat    key.Binding
	NextConv   key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	CloseDoc   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		NewChat:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		NextConv:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next chat")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "clear")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		CloseDoc:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close doc")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		case 'n':
			if m.state == StateReady {
				m.newConversation(m.currentLanguage())
				m.rebuildViewportContent()
			}
			return m, nil
		}
	}

	switch k.Code {
	case tea.KeyEnter:
		// Sends are serialized: while one exchange is in flight, Enter
		// does nothing rather than racing a second one.
		if m.state == StateReady && k.Mod&tea.ModShift == 0 {
			return m.handleSubmit()
		}

	case tea.KeyTab:
		if m.state == StateReady {
			return m.selectNextConversation()
		}

	case tea.KeyUp:
		if m.state == StateReady && m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		if m.state == StateReady && m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyEscape:
		if m.state == StateDocView {
			m.state = StateReady
			m.docTitle = ""
			return m, m.input.Focus()
		}

	case tea.KeyPgUp:
		if m.state == StateDocView {
			m.docViewport.PageUp()
		} else {
			m.viewport.PageUp()
		}
		return m, nil

	case tea.KeyPgDown:
		if m.state == StateDocView {
			m.docViewport.PageDown()
		} else {
			m.viewport.PageDown()
		}
		return m, nil
	}

	// Typing is always allowed, even while a send is in flight.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	if m.state == StateReady {
		m.input.Reset()
	}
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	cur := m.current()
	if cur == nil {
		m.newConversation(m.currentLanguage())
		cur = m.current()
	}

	m.history = append(m.history, text)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	// Optimistic update: the user turn and a loading placeholder appear
	// before the gateway answers.
	m.addMessage(chatMessage{Sender: senderUser, Text: text})
	m.addMessage(chatMessage{Sender: senderAI, Text: loadingText, Loading: true})

	m.input.Reset()
	m.state = StateSending
	m.rebuildViewportContent()
	m.viewport.GotoBottom()

	// A temporary conversation sends no id; the gateway starts a new one.
	conversationID := cur.ID
	if cur.isTemp() {
		conversationID = ""
	}

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendMessage(text, cur.Language, conversationID),
	)
}

//nolint:gocyclo // One case per slash command
func (m *Model) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	m.input.Reset()

	switch cmd {
	case cmdHelp:
		m.addMessage(chatMessage{Sender: senderSystem, Text: helpText(m.languages)})

	case cmdClear:
		m.messages = nil

	case cmdNew:
		language := arg
		if language == "" {
			language = m.currentLanguage()
		}
		if !m.knownLanguage(language) {
			m.addMessage(chatMessage{Sender: senderError, Text: "Unknown language: " + language})
			break
		}
		m.newConversation(language)

	case cmdLang:
		if !m.knownLanguage(arg) {
			m.addMessage(chatMessage{Sender: senderError, Text: "Unknown language: " + arg})
			break
		}
		if cur := m.current(); cur != nil {
			cur.Language = arg
			m.addMessage(chatMessage{Sender: senderSystem, Text: "Code examples will use " + arg + "."})
		}

	case cmdDoc:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			m.addMessage(chatMessage{Sender: senderError, Text: "Usage: /doc <source number>"})
			break
		}
		id, ok := m.sourceByNumber(n)
		if !ok {
			m.addMessage(chatMessage{Sender: senderError, Text: "No such source in the last answer."})
			break
		}
		m.rebuildViewportContent()
		return m, m.loadDocument(id)

	case cmdExit, cmdQuit:
		return m, m.cleanup()

	default:
		m.addMessage(chatMessage{Sender: senderError, Text: "Unknown command: " + cmd})
	}

	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) selectNextConversation() (tea.Model, tea.Cmd) {
	if len(m.conversations) < 2 {
		return m, nil
	}
	m.currentIdx = (m.currentIdx + 1) % len(m.conversations)
	cur := m.current()

	// Temporary conversations have no server history yet.
	if cur.isTemp() {
		m.messages = nil
		m.rebuildViewportContent()
		return m, nil
	}
	m.persistState()
	return m, m.loadMessages(cur.ID)
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
	return m, nil
}

// currentLanguage returns the selected conversation's language, or the
// configured default.
func (m *Model) currentLanguage() string {
	if cur := m.current(); cur != nil && cur.Language != "" {
		return cur.Language
	}
	return m.languages[0]
}

func (m *Model) knownLanguage(language string) bool {
	for _, l := range m.languages {
		if l == language {
			return true
		}
	}
	return false
}

// sourceByNumber resolves "/doc N" against the most recent answer's
// source list (1-based).
func (m *Model) sourceByNumber(n int) (string, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.Sender == senderAI && msg.Answer != nil {
			if n > len(msg.Answer.Sources) {
				return "", false
			}
			return msg.Answer.Sources[n-1], true
		}
	}
	return "", false
}

// cleanup cancels all background work and returns the quit command.
func (m *Model) cleanup() tea.Cmd {
	m.persistState()
	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	return tea.Quit
}

func helpText(languages []string) string {
	return "Commands: " + cmdHelp + ", " + cmdClear + ", " + cmdNew + " [lang], " +
		cmdLang + " <lang>, " + cmdDoc + " <n>, " + cmdExit + "\n" +
		"Languages: " + strings.Join(languages, ", ") + "\n" +
		"Shortcuts:\n" +
		"  Enter: send message\n" +
		"  Shift+Enter: new line\n" +
		"  Tab: next conversation\n" +
		"  Ctrl+N: new conversation\n" +
		"  Ctrl+C: clear input (twice to exit)\n" +
		"  Ctrl+D: exit\n" +
		"  Up/Down: input history\n" +
		"  PgUp/PgDn: scroll\n" +
		"  Esc: close document view"
}
