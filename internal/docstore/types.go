package docstore

import "time"

// Agent run statuses reported by the document-database service.
const (
	// StatusDone is the only status that signals a successful agent run.
	StatusDone = "Done"
)

// ModelAnswer is the structured output the docs agent produces for every
// prompt. Sources are documentation page ids the answer was grounded on.
type ModelAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Usage reports token consumption for a single agent run.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ConversationSummary is one row of a recent-conversations query.
// LastMessage carries the full text of the first user message; callers
// truncate it for display.
type ConversationSummary struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"lastModified"`
	LastMessage  string    `json:"lastMessage"`
}

// MessageUsage is the per-message token accounting the service stores on
// assistant messages.
type MessageUsage struct {
	TotalTokens int `json:"totalTokens"`
}

// ConversationMessage is a single entry in a stored conversation document.
// User messages carry plain text content; assistant messages carry a
// JSON-encoded ModelAnswer.
type ConversationMessage struct {
	Role    string        `json:"role"`
	Content string        `json:"content"`
	Date    time.Time     `json:"date"`
	Usage   *MessageUsage `json:"usage,omitempty"`
}

// Message roles as stored by the service.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationDoc is a full conversation document.
type ConversationDoc struct {
	ID           string                `json:"id"`
	UserID       string                `json:"userId"`
	LastModified time.Time             `json:"lastModified"`
	Messages     []ConversationMessage `json:"messages"`
}

// DocumentPage is a documentation page stored in the database.
type DocumentPage struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	HTMLContent  string    `json:"htmlContent"`
	LastModified time.Time `json:"lastModified"`
}

// runRequest is the body of an agent run call.
type runRequest struct {
	ConversationID string            `json:"conversationId,omitempty"`
	UserID         string            `json:"userId"`
	Prompt         string            `json:"prompt"`
	Parameters     map[string]string `json:"parameters,omitempty"`
}

// runResponse is the service's reply to an agent run call.
type runResponse struct {
	Status         string       `json:"status"`
	ConversationID string       `json:"conversationId"`
	Answer         *ModelAnswer `json:"answer"`
	Usage          *Usage       `json:"usage"`
}

// queryRequest is a raw query against the database's conversation index.
type queryRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// queryResponse wraps raw query results.
type queryResponse struct {
	Results []ConversationDoc `json:"results"`
}
