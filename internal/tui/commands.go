package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"docpilot/internal/chatclient"
)

// sendTimeout bounds a single exchange with the gateway. Agent runs can
// take a while; the gateway itself enforces a stricter upstream timeout.
const sendTimeout = 3 * time.Minute

// conversationsLoadedMsg delivers the recent-conversations list.
type conversationsLoadedMsg struct {
	conversations []chatclient.Conversation
	err           error
}

// messagesLoadedMsg delivers the history of one conversation.
type messagesLoadedMsg struct {
	conversationID string
	messages       []chatclient.Message
	err            error
}

// sendResultMsg delivers the outcome of one sent message.
type sendResultMsg struct {
	result *chatclient.MessageResult
	err    error
}

// documentLoadedMsg delivers a parsed documentation page.
type documentLoadedMsg struct {
	doc document
	err error
}

// loadConversations fetches the sidebar content.
func (m *Model) loadConversations() tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		conversations, err := client.Conversations(ctx)
		return conversationsLoadedMsg{conversations: conversations, err: err}
	}
}

// loadMessages fetches the stored history of a conversation.
func (m *Model) loadMessages(conversationID string) tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		messages, err := client.Messages(ctx, conversationID)
		return messagesLoadedMsg{conversationID: conversationID, messages: messages, err: err}
	}
}

// sendMessage submits a prompt. conversationID is empty for temporary
// conversations, so the gateway starts a fresh one. There is no
// cancellation: the command runs to completion or timeout.
func (m *Model) sendMessage(text, language, conversationID string) tea.Cmd {
	parent := m.ctx
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, sendTimeout)
		defer cancel()
		result, err := client.SendMessage(ctx, text, language, conversationID)
		return sendResultMsg{result: result, err: err}
	}
}

// loadDocument fetches a cited documentation page and reduces it to
// readable text for the overlay.
func (m *Model) loadDocument(id string) tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		html, err := client.Document(ctx, id)
		if err != nil {
			return documentLoadedMsg{err: err}
		}
		doc, err := parseDocument(html)
		return documentLoadedMsg{doc: doc, err: err}
	}
}
