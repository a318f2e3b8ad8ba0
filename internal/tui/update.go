package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"docpilot/internal/docstore"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.docViewport.SetWidth(msg.Width)
		m.docViewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4)
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		if m.state == StateDocView {
			m.docViewport, cmd = m.docViewport.Update(msg)
		} else {
			m.viewport, cmd = m.viewport.Update(msg)
		}
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateSending {
			m.rebuildViewportContent()
		}
		return m, cmd

	case conversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)

	case messagesLoadedMsg:
		return m.handleMessagesLoaded(msg)

	case sendResultMsg:
		return m.handleSendResult(msg)

	case documentLoadedMsg:
		return m.handleDocumentLoaded(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConversationsLoaded fills the sidebar. The most recent
// conversation is selected, unless persisted state names a known one.
func (m *Model) handleConversationsLoaded(msg conversationsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("loading conversations", "error", msg.err)
		m.addMessage(chatMessage{Sender: senderError, Text: "Failed to load conversations: " + msg.err.Error()})
		m.rebuildViewportContent()
		return m, nil
	}

	defaultLanguage := m.languages[0]
	savedID := ""
	if m.stateStore != nil {
		if saved, err := m.stateStore.Load(); err == nil {
			savedID = saved.CurrentConversation
			if saved.Language != "" {
				defaultLanguage = saved.Language
			}
		}
	}

	m.conversations = make([]conversationEntry, 0, len(msg.conversations))
	for _, c := range msg.conversations {
		m.conversations = append(m.conversations, conversationEntry{
			ID:           c.ID,
			LastModified: c.LastModified,
			Preview:      c.LastMessage,
			Language:     defaultLanguage,
		})
	}

	if len(m.conversations) == 0 {
		m.newConversation(defaultLanguage)
		m.rebuildViewportContent()
		return m, nil
	}

	m.currentIdx = 0
	for i, c := range m.conversations {
		if savedID != "" && c.ID == savedID {
			m.currentIdx = i
			break
		}
	}
	m.rebuildViewportContent()
	return m, m.loadMessages(m.conversations[m.currentIdx].ID)
}

// handleMessagesLoaded replaces the chat pane with a conversation's
// stored history. Stale loads for a no-longer-selected conversation are
// dropped.
func (m *Model) handleMessagesLoaded(msg messagesLoadedMsg) (tea.Model, tea.Cmd) {
	cur := m.current()
	if cur == nil || cur.ID != msg.conversationID {
		return m, nil
	}

	if msg.err != nil {
		m.logger.Warn("loading messages", "error", msg.err, "conversation_id", msg.conversationID)
		m.messages = nil
		m.addMessage(chatMessage{Sender: senderError, Text: "Failed to load messages: " + msg.err.Error()})
		m.rebuildViewportContent()
		return m, nil
	}

	m.messages = nil
	for _, item := range msg.messages {
		switch item.Sender {
		case senderUser:
			m.addMessage(chatMessage{Sender: senderUser, Text: item.Text})
		case senderAI:
			m.addMessage(chatMessage{Sender: senderAI, Answer: item.Response})
		}
	}
	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, nil
}

// handleSendResult resolves the in-flight exchange: the loading
// placeholder becomes the structured answer, or the apology on failure.
// A successful first exchange of a temporary conversation adopts the
// server-assigned id.
func (m *Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady

	if msg.err != nil {
		m.logger.Warn("send failed", "error", msg.err)
		m.replaceLoading(chatMessage{Sender: senderAI, Text: apologyText})
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()
	}

	m.replaceLoading(chatMessage{Sender: senderAI, Answer: &docstore.ModelAnswer{
		Answer:  msg.result.Answer,
		Sources: msg.result.Sources,
	}})
	m.adoptServerID(msg.result.ConversationID)

	if cur := m.current(); cur != nil {
		cur.Preview = previewOf(m.messages)
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, m.input.Focus()
}

// handleDocumentLoaded opens the documentation overlay.
func (m *Model) handleDocumentLoaded(msg documentLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.addMessage(chatMessage{Sender: senderError, Text: "Failed to load document: " + msg.err.Error()})
		m.rebuildViewportContent()
		return m, nil
	}

	m.docTitle = msg.doc.Title
	m.docViewport.SetContent(msg.doc.Body)
	m.docViewport.GotoTop()
	m.state = StateDocView
	return m, nil
}

// replaceLoading swaps the last loading placeholder for the final
// message. Appends if no placeholder remains.
func (m *Model) replaceLoading(msg chatMessage) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Loading {
			m.messages[i] = msg
			return
		}
	}
	m.addMessage(msg)
}

// previewLen bounds sidebar previews, matching the gateway's own
// conversation-list truncation.
const previewLen = 50

// previewOf returns the first user message's text, for the sidebar.
func previewOf(messages []chatMessage) string {
	for _, msg := range messages {
		if msg.Sender == senderUser {
			runes := []rune(msg.Text)
			if len(runes) > previewLen {
				return string(runes[:previewLen])
			}
			return msg.Text
		}
	}
	return ""
}
