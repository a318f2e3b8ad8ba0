package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"docpilot/internal/docstore"
	"docpilot/internal/log"
)

// maxMessageBytes bounds the request body of the message endpoint.
const maxMessageBytes = 64 << 10

// previewRunes is how much of the first user message the conversation
// list shows.
const previewRunes = 50

// chatHandler serves the /api/chat endpoints. It holds no state of its
// own; every request opens and closes its own docstore session.
type chatHandler struct {
	client      *docstore.Client
	defaultUser string
	logger      log.Logger
}

type messageRequest struct {
	Message        string `json:"message"`
	Language       string `json:"language"`
	ConversationID string `json:"conversationId"`
}

type messageResponse struct {
	Success  bool          `json:"success"`
	Response answerPayload `json:"response"`
}

type answerPayload struct {
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	ConversationID string   `json:"conversationId"`
}

// send handles POST /api/chat/message. An absent conversationId starts a
// new agent conversation; a present one resumes it. The answer carries
// the (possibly newly assigned) conversation id back to the client.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessageError(w, http.StatusRequestEntityTooLarge, "Message too large")
			return
		}
		writeMessageError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		writeMessageError(w, http.StatusBadRequest, "Message is required")
		return
	}

	sess, err := h.client.OpenSession(r.Context())
	if err != nil {
		h.logger.Error("opening docstore session", "error", err)
		writeMessageError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	defer sess.Close()

	prompt := req.Message
	if req.Language != "" {
		prompt += "\n\nProgramming language: " + req.Language
	}

	conv := sess.Conversation(req.ConversationID)
	conv.SetUserPrompt(prompt)
	conv.SetParameter("userId", h.defaultUser)
	conv.SetParameter("language", req.Language)

	status, err := conv.Run(r.Context())
	if err != nil {
		h.logger.Error("agent run failed", "error", err, "conversation_id", req.ConversationID)
		writeMessageError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}
	if status != docstore.StatusDone {
		// No agent actions are defined, so any status other than Done is
		// unexpected and surfaced verbatim.
		h.logger.Error("agent run returned unexpected status",
			"status", status, "conversation_id", conv.ID())
		writeMessageError(w, http.StatusInternalServerError, "Failed to process message: "+status)
		return
	}

	answer, err := conv.Answer()
	if err != nil {
		h.logger.Error("agent run produced no answer", "conversation_id", conv.ID())
		writeMessageError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Response: answerPayload{
			Answer:         answer.Answer,
			Sources:        answer.Sources,
			ConversationID: conv.ID(),
		},
	})
}

type conversationItem struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"lastModified"`
	LastMessage  string    `json:"lastMessage"`
}

type conversationsResponse struct {
	Conversations []conversationItem `json:"conversations"`
}

// listConversations handles GET /api/chat/conversations. Returns the ten
// most recent conversations for the user, newest first, each with a
// short preview of its first user message.
func (h *chatHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = h.defaultUser
	}

	sess, err := h.client.OpenSession(r.Context())
	if err != nil {
		h.logger.Error("opening docstore session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	defer sess.Close()

	summaries, err := sess.QueryConversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("querying conversations", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}

	items := make([]conversationItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, conversationItem{
			ID:           s.ID,
			LastModified: s.LastModified,
			LastMessage:  preview(s.LastMessage),
		})
	}
	writeJSON(w, http.StatusOK, conversationsResponse{Conversations: items})
}

const (
	senderUser = "user"
	senderAI   = "ai"
)

type messageItem struct {
	Sender   string                `json:"sender"`
	Text     string                `json:"text,omitempty"`
	Response *docstore.ModelAnswer `json:"response,omitempty"`
	Date     time.Time             `json:"date"`
	Tokens   int                   `json:"tokens"`
}

type messagesResponse struct {
	Messages []messageItem `json:"messages"`
}

// getMessages handles GET /api/chat/messages. Returns all stored turns of
// one conversation: user messages as plain text, assistant messages with
// their serialized answers decoded back into structured form.
func (h *chatHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invalid or missing conversation id")
		return
	}

	sess, err := h.client.OpenSession(r.Context())
	if err != nil {
		h.logger.Error("opening docstore session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	defer sess.Close()

	doc, err := sess.LoadConversation(r.Context(), id)
	if errors.Is(err, docstore.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		h.logger.Error("loading conversation", "error", err, "conversation_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	items := make([]messageItem, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		switch {
		case m.Role == docstore.RoleUser:
			items = append(items, messageItem{
				Sender: senderUser,
				Text:   m.Content,
				Date:   m.Date,
			})
		case m.Role == docstore.RoleAssistant && m.Content != "":
			var answer docstore.ModelAnswer
			if err := json.Unmarshal([]byte(m.Content), &answer); err != nil {
				h.logger.Error("decoding stored answer", "error", err, "conversation_id", id)
				writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
				return
			}
			tokens := 0
			if m.Usage != nil {
				tokens = m.Usage.TotalTokens
			}
			items = append(items, messageItem{
				Sender:   senderAI,
				Response: &answer,
				Date:     m.Date,
				Tokens:   tokens,
			})
		}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: items})
}

// preview truncates a message to the first previewRunes runes.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes])
}
