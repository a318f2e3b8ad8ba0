// Package tui provides the Bubble Tea terminal front end for docpilot.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/google/uuid"

	"docpilot/internal/chatclient"
	"docpilot/internal/docstore"
	"docpilot/internal/localstate"
	"docpilot/internal/log"
)

// State represents the TUI state machine.
type State int

// TUI state machine states.
const (
	StateReady   State = iota // Awaiting user input
	StateSending              // A message is in flight to the gateway
	StateDocView              // A documentation page overlays the chat
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 200 // Maximum messages stored
	maxHistory  = 100 // Maximum input history entries
)

// tempIDPrefix marks client-side conversation placeholders. The prefix
// disappears after the first successful exchange, when the server
// assigns the durable id.
const tempIDPrefix = "temp-"

// apologyText replaces the loading placeholder when a send fails. The
// failed exchange is not retried.
const apologyText = "Sorry, I'm having trouble connecting to the server right now."

// loadingText is the placeholder shown while the agent works.
const loadingText = "Thinking..."

// Message senders for display.
const (
	senderUser   = "user"
	senderAI     = "ai"
	senderSystem = "system"
	senderError  = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// chatMessage is one displayed turn. Either Text or Answer is populated,
// never both.
type chatMessage struct {
	Sender  string
	Text    string
	Answer  *docstore.ModelAnswer
	Loading bool
}

// conversationEntry is one sidebar row. Language is a client-side
// attribute: the service only learns it as a prompt parameter.
type conversationEntry struct {
	ID           string
	LastModified time.Time
	Preview      string
	Language     string
}

// isTemp reports whether the entry still awaits its server id.
func (e conversationEntry) isTemp() bool {
	return strings.HasPrefix(e.ID, tempIDPrefix)
}

// Model is the Bubble Tea model for the docpilot terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Chat content
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	messages []chatMessage

	// Conversation sidebar
	conversations []conversationEntry
	currentIdx    int // -1 when no conversation is selected

	// Scrollable message viewport
	viewport viewport.Model

	// Documentation overlay
	docViewport viewport.Model
	docTitle    string

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Dependencies (direct, no interface)
	client     *chatclient.Client
	stateStore *localstate.Store
	languages  []string
	logger     log.Logger
	ctx        context.Context
	ctxCancel  context.CancelFunc

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// Options carries the dependencies of New.
type Options struct {
	Client    *chatclient.Client   // Required
	State     *localstate.Store    // Optional: nil disables persistence
	Languages []string             // Required: at least one
	Logger    log.Logger
}

// New creates a Model. ctx MUST be the same context passed to
// tea.WithContext() so cancellation stays consistent.
func New(ctx context.Context, opts Options) (*Model, error) {
	if opts.Client == nil {
		return nil, errors.New("tui.New: client is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if len(opts.Languages) == 0 {
		return nil, errors.New("tui.New: at least one language is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)

	// Enter submits, Shift+Enter adds newline (default behavior)
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Built-in viewport key handling is disabled; keys are routed
	// explicitly in handleKey to avoid conflicts with the textarea.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	dvp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	dvp.MouseWheelEnabled = true
	dvp.SoftWrap = true
	dvp.KeyMap = viewport.KeyMap{}

	return &Model{
		client:      opts.Client,
		stateStore:  opts.State,
		languages:   opts.Languages,
		logger:      logger,
		ctx:         ctx,
		ctxCancel:   cancel,
		input:       ta,
		spinner:     sp,
		viewport:    vp,
		docViewport: dvp,
		help:        help.New(),
		keys:        newKeyMap(),
		styles:      DefaultStyles(),
		history:     make([]string, 0, maxHistory),
		currentIdx:  -1,
		markdown:    newMarkdownRenderer(80),
		width:       80,
	}, nil
}

// Init implements tea.Model. Conversations load in the background so the
// input is usable immediately.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		m.loadConversations(),
	)
}

// addMessage appends a message and enforces the maxMessages bound.
func (m *Model) addMessage(msg chatMessage) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

// current returns the selected conversation entry, or nil.
func (m *Model) current() *conversationEntry {
	if m.currentIdx < 0 || m.currentIdx >= len(m.conversations) {
		return nil
	}
	return &m.conversations[m.currentIdx]
}

// newConversation prepends a temporary conversation in the given
// language and selects it. The id stays client-side until the first
// successful exchange.
func (m *Model) newConversation(language string) {
	entry := conversationEntry{
		ID:           tempIDPrefix + uuid.New().String(),
		LastModified: time.Now(),
		Preview:      "(new conversation)",
		Language:     language,
	}
	m.conversations = append([]conversationEntry{entry}, m.conversations...)
	m.currentIdx = 0
	m.messages = nil
}

// adoptServerID rewrites the selected temporary conversation to the
// server-assigned id. Every later reference uses the durable id.
func (m *Model) adoptServerID(serverID string) {
	cur := m.current()
	if cur == nil || !cur.isTemp() || serverID == "" {
		return
	}
	cur.ID = serverID
	cur.LastModified = time.Now()
	m.persistState()
}

// persistState saves the active conversation and language, if a state
// store is configured. Temporary ids are never persisted.
func (m *Model) persistState() {
	if m.stateStore == nil {
		return
	}
	cur := m.current()
	if cur == nil || cur.isTemp() {
		return
	}
	if err := m.stateStore.Save(&localstate.State{
		CurrentConversation: cur.ID,
		Language:            cur.Language,
	}); err != nil {
		m.logger.Warn("saving local state", "error", err)
	}
}
