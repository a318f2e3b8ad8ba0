package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"charm.land/bubbles/v2/textarea"

	"docpilot/internal/chatclient"
	"docpilot/internal/docstore"
	"docpilot/internal/localstate"
	"docpilot/internal/log"
)

// newTestModel creates a Model with enough initialized state to drive
// Update handlers directly, without a running program.
func newTestModel() *Model {
	ta := textarea.New()
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	return &Model{
		state:      StateReady,
		input:      ta,
		history:    make([]string, 0),
		styles:     DefaultStyles(),
		keys:       newKeyMap(),
		markdown:   newMarkdownRenderer(80),
		languages:  []string{"csharp", "python", "go"},
		logger:     log.NewNop(),
		currentIdx: -1,
		client:     chatclient.New("http://127.0.0.1:1", time.Second),
		ctx:        context.Background(),
	}
}

func TestNew_ErrorOnNilClient(t *testing.T) {
	_, err := New(context.Background(), Options{Languages: []string{"go"}})
	if err == nil {
		t.Error("Expected error for nil client")
	}
}

func TestNew_ErrorOnNilContext(t *testing.T) {
	//lint:ignore SA1012 intentionally testing nil context handling
	_, err := New(nil, Options{ //nolint:staticcheck
		Client:    chatclient.New("http://127.0.0.1:1", time.Second),
		Languages: []string{"go"},
	})
	if err == nil {
		t.Error("Expected error for nil context")
	}
}

func TestNew_ErrorOnNoLanguages(t *testing.T) {
	_, err := New(context.Background(), Options{
		Client: chatclient.New("http://127.0.0.1:1", time.Second),
	})
	if err == nil {
		t.Error("Expected error for empty language list")
	}
}

func TestModel_Init(t *testing.T) {
	m, err := New(context.Background(), Options{
		Client:    chatclient.New("http://127.0.0.1:1", time.Second),
		Languages: []string{"go"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.ctxCancel()

	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return a command (blink + tick + load)")
	}
}

func TestHandleSubmit_OptimisticMessages(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("how do I create a session?")

	_, cmd := m.handleSubmit()

	if cmd == nil {
		t.Fatal("Expected send command")
	}
	if m.state != StateSending {
		t.Errorf("state = %v, want StateSending", m.state)
	}
	if len(m.messages) != 2 {
		t.Fatalf("Expected user message + placeholder, got %d messages", len(m.messages))
	}
	if m.messages[0].Sender != senderUser || m.messages[0].Text != "how do I create a session?" {
		t.Errorf("Unexpected user message: %+v", m.messages[0])
	}
	if !m.messages[1].Loading {
		t.Error("Second message should be the loading placeholder")
	}
	if m.input.Value() != "" {
		t.Error("Input should be cleared after submit")
	}
	// Submit with no conversation selected creates a temporary one
	cur := m.current()
	if cur == nil || !cur.isTemp() {
		t.Error("Expected a temporary conversation to be created")
	}
}

func TestHandleSubmit_EmptyInput(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("   ")

	_, cmd := m.handleSubmit()
	if cmd != nil {
		t.Error("Blank input should not produce a command")
	}
	if len(m.messages) != 0 {
		t.Error("Blank input should not add messages")
	}
}

func TestHandleSendResult_Success(t *testing.T) {
	m := newTestModel()
	m.newConversation("go")
	m.state = StateSending
	m.addMessage(chatMessage{Sender: senderUser, Text: "what is a document store?"})
	m.addMessage(chatMessage{Sender: senderAI, Text: loadingText, Loading: true})

	_, _ = m.handleSendResult(sendResultMsg{result: &chatclient.MessageResult{
		Answer:         "A document store holds JSON documents.",
		Sources:        []string{"docs/client-api/creating-document-store"},
		ConversationID: "chats/0001-A",
	}})

	if m.state != StateReady {
		t.Errorf("state = %v, want StateReady", m.state)
	}
	last := m.messages[len(m.messages)-1]
	if last.Loading {
		t.Error("Placeholder should have been replaced")
	}
	if last.Answer == nil || last.Answer.Answer != "A document store holds JSON documents." {
		t.Errorf("Unexpected answer: %+v", last.Answer)
	}
	if len(last.Answer.Sources) != 1 {
		t.Errorf("Sources = %v", last.Answer.Sources)
	}
	cur := m.current()
	if cur.ID != "chats/0001-A" {
		t.Errorf("Temporary id not adopted: %s", cur.ID)
	}
	if cur.Preview != "what is a document store?" {
		t.Errorf("Preview = %q", cur.Preview)
	}
}

func TestHandleSendResult_FailureShowsApology(t *testing.T) {
	m := newTestModel()
	m.newConversation("go")
	m.state = StateSending
	m.addMessage(chatMessage{Sender: senderUser, Text: "hello"})
	m.addMessage(chatMessage{Sender: senderAI, Text: loadingText, Loading: true})

	_, _ = m.handleSendResult(sendResultMsg{err: errors.New("connection refused")})

	if m.state != StateReady {
		t.Errorf("state = %v, want StateReady", m.state)
	}
	last := m.messages[len(m.messages)-1]
	if last.Text != apologyText {
		t.Errorf("Expected apology, got %q", last.Text)
	}
	// Failure keeps the temporary id: nothing to adopt
	if !m.current().isTemp() {
		t.Error("Conversation should still be temporary after a failed send")
	}
}

func TestHandleConversationsLoaded_EmptyCreatesTemp(t *testing.T) {
	m := newTestModel()

	_, cmd := m.handleConversationsLoaded(conversationsLoadedMsg{})

	if cmd != nil {
		t.Error("Empty list should not trigger a history load")
	}
	if len(m.conversations) != 1 || !m.conversations[0].isTemp() {
		t.Errorf("Expected one temporary conversation, got %+v", m.conversations)
	}
}

func TestHandleConversationsLoaded_SelectsFirst(t *testing.T) {
	m := newTestModel()

	_, cmd := m.handleConversationsLoaded(conversationsLoadedMsg{
		conversations: []chatclient.Conversation{
			{ID: "chats/0002-A", LastMessage: "newer question"},
			{ID: "chats/0001-A", LastMessage: "older question"},
		},
	})

	if cmd == nil {
		t.Fatal("Expected a loadMessages command for the selection")
	}
	if m.currentIdx != 0 {
		t.Errorf("currentIdx = %d, want 0 (newest)", m.currentIdx)
	}
	if m.conversations[0].Preview != "newer question" {
		t.Errorf("Preview = %q", m.conversations[0].Preview)
	}
}

func TestHandleConversationsLoaded_RestoresSavedSelection(t *testing.T) {
	store, err := localstate.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Save(&localstate.State{CurrentConversation: "chats/0001-A", Language: "python"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := newTestModel()
	m.stateStore = store

	_, _ = m.handleConversationsLoaded(conversationsLoadedMsg{
		conversations: []chatclient.Conversation{
			{ID: "chats/0002-A", LastMessage: "newer"},
			{ID: "chats/0001-A", LastMessage: "older"},
		},
	})

	if m.currentIdx != 1 {
		t.Errorf("currentIdx = %d, want the saved conversation", m.currentIdx)
	}
	if m.conversations[1].Language != "python" {
		t.Errorf("Language = %q, want saved language", m.conversations[1].Language)
	}
}

func TestHandleMessagesLoaded_StaleDropped(t *testing.T) {
	m := newTestModel()
	m.conversations = []conversationEntry{{ID: "chats/0002-A"}}
	m.currentIdx = 0
	m.addMessage(chatMessage{Sender: senderUser, Text: "keep me"})

	_, _ = m.handleMessagesLoaded(messagesLoadedMsg{
		conversationID: "chats/0001-A",
		messages:       []chatclient.Message{{Sender: "user", Text: "stale"}},
	})

	if len(m.messages) != 1 || m.messages[0].Text != "keep me" {
		t.Errorf("Stale load should be dropped, got %+v", m.messages)
	}
}

func TestHandleMessagesLoaded_MapsHistory(t *testing.T) {
	m := newTestModel()
	m.conversations = []conversationEntry{{ID: "chats/0001-A"}}
	m.currentIdx = 0

	_, _ = m.handleMessagesLoaded(messagesLoadedMsg{
		conversationID: "chats/0001-A",
		messages: []chatclient.Message{
			{Sender: "user", Text: "question"},
			{Sender: "ai", Response: &docstore.ModelAnswer{Answer: "answer", Sources: []string{"docs/a"}}},
		},
	})

	if len(m.messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(m.messages))
	}
	if m.messages[1].Answer == nil || m.messages[1].Answer.Answer != "answer" {
		t.Errorf("Assistant turn not mapped: %+v", m.messages[1])
	}
}

func TestHandleSlashCommands(t *testing.T) {
	tests := []struct {
		name     string
		cmd      string
		wantExit bool
		wantMsgs int // messages added on top of the seeded one
	}{
		{"help", "/help", false, 1},
		{"clear", "/clear", false, 0},
		{"exit", "/exit", true, 0},
		{"quit", "/quit", true, 0},
		{"unknown", "/unknown", false, 1},
		{"bad language", "/lang cobol", false, 1},
		{"doc without number", "/doc x", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			m.newConversation("go")
			m.messages = []chatMessage{{Sender: senderUser, Text: "hello"}}

			_, cmd := m.handleSlashCommand(tt.cmd)

			if tt.wantExit {
				if cmd == nil {
					t.Error("Expected quit command")
				}
				return
			}
			if tt.cmd == cmdClear {
				if len(m.messages) != 0 {
					t.Error("/clear should clear messages")
				}
				return
			}
			if len(m.messages) != 1+tt.wantMsgs {
				t.Errorf("Expected %d messages, got %d", 1+tt.wantMsgs, len(m.messages))
			}
		})
	}
}

func TestSlashLang_SetsConversationLanguage(t *testing.T) {
	m := newTestModel()
	m.newConversation("csharp")

	_, _ = m.handleSlashCommand("/lang python")

	if m.current().Language != "python" {
		t.Errorf("Language = %q, want python", m.current().Language)
	}
}

func TestSlashNew_PrependsConversation(t *testing.T) {
	m := newTestModel()
	m.newConversation("csharp")
	m.conversations[0].ID = "chats/0001-A"
	m.addMessage(chatMessage{Sender: senderUser, Text: "old"})

	_, _ = m.handleSlashCommand("/new go")

	if len(m.conversations) != 2 {
		t.Fatalf("Expected 2 conversations, got %d", len(m.conversations))
	}
	cur := m.current()
	if !cur.isTemp() || cur.Language != "go" {
		t.Errorf("Unexpected new conversation: %+v", cur)
	}
	if len(m.messages) != 0 {
		t.Error("New conversation should start with no messages")
	}
}

func TestSourceByNumber(t *testing.T) {
	m := newTestModel()
	m.addMessage(chatMessage{Sender: senderAI, Answer: &docstore.ModelAnswer{
		Answer:  "first",
		Sources: []string{"docs/old-a", "docs/old-b"},
	}})
	m.addMessage(chatMessage{Sender: senderAI, Answer: &docstore.ModelAnswer{
		Answer:  "latest",
		Sources: []string{"docs/new-a"},
	}})

	id, ok := m.sourceByNumber(1)
	if !ok || id != "docs/new-a" {
		t.Errorf("sourceByNumber(1) = %q, %v; want the latest answer's source", id, ok)
	}
	if _, ok := m.sourceByNumber(2); ok {
		t.Error("sourceByNumber should fail past the latest answer's source count")
	}
}

func TestNavigateHistory(t *testing.T) {
	m := newTestModel()
	m.history = []string{"first", "second"}
	m.historyIdx = len(m.history)

	_, _ = m.navigateHistory(-1)
	if m.input.Value() != "second" {
		t.Errorf("Value = %q, want second", m.input.Value())
	}
	_, _ = m.navigateHistory(-1)
	if m.input.Value() != "first" {
		t.Errorf("Value = %q, want first", m.input.Value())
	}
	_, _ = m.navigateHistory(-1) // clamped at oldest
	if m.input.Value() != "first" {
		t.Errorf("Value = %q, want first after clamp", m.input.Value())
	}
	_, _ = m.navigateHistory(1)
	_, _ = m.navigateHistory(1)
	if m.input.Value() != "" {
		t.Errorf("Value = %q, want empty past newest", m.input.Value())
	}
}

func TestReplaceLoading_AppendsWhenNoPlaceholder(t *testing.T) {
	m := newTestModel()
	m.addMessage(chatMessage{Sender: senderUser, Text: "hi"})

	m.replaceLoading(chatMessage{Sender: senderAI, Text: "late answer"})

	if len(m.messages) != 2 || m.messages[1].Text != "late answer" {
		t.Errorf("Expected append, got %+v", m.messages)
	}
}

func TestPreviewOf_TruncatesRunes(t *testing.T) {
	text := strings.Repeat("世", 60)
	msgs := []chatMessage{{Sender: senderUser, Text: text}}

	got := previewOf(msgs)
	if len([]rune(got)) != previewLen {
		t.Errorf("Preview length = %d runes, want %d", len([]rune(got)), previewLen)
	}
}

func TestAddMessage_Bounded(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxMessages+10; i++ {
		m.addMessage(chatMessage{Sender: senderUser, Text: "x"})
	}
	if len(m.messages) != maxMessages {
		t.Errorf("len(messages) = %d, want %d", len(m.messages), maxMessages)
	}
}

func TestAdoptServerID_IgnoresNonTemp(t *testing.T) {
	m := newTestModel()
	m.conversations = []conversationEntry{{ID: "chats/0001-A"}}
	m.currentIdx = 0

	m.adoptServerID("chats/0009-A")

	if m.current().ID != "chats/0001-A" {
		t.Error("Durable ids must not be rewritten")
	}
}
