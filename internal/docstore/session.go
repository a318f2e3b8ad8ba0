package docstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// conversationsQuery selects a user's most recent conversations.
// The service evaluates it against its conversation search index.
const conversationsQuery = `from index 'Conversations/Search' where userId = $userId order by lastModified desc limit $limit`

// RecentConversationsLimit is the page size of QueryConversations.
const RecentConversationsLimit = 10

// Session is a scoped unit of work against the database. It is released
// with Close; all methods fail with ErrSessionClosed afterwards.
// A Session must not be shared across goroutines.
type Session struct {
	client *Client

	closed    atomic.Bool
	closeOnce sync.Once
}

// Close releases the session slot. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		<-s.client.slots
		s.client.logger.Debug("session closed", "open", len(s.client.slots))
	})
}

func (s *Session) check() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return nil
}

// Conversation returns a handle on an agent conversation. An empty id
// starts a new conversation on the first Run; a non-empty id continues an
// existing one.
func (s *Session) Conversation(id string) *Conversation {
	return &Conversation{session: s, id: id}
}

// QueryConversations returns the user's most recent conversations, newest
// first. LastMessage holds the untruncated first user message of each.
func (s *Session) QueryConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var result queryResponse
	resp, err := s.client.http.R().
		SetContext(ctx).
		SetBody(queryRequest{
			Query: conversationsQuery,
			Parameters: map[string]any{
				"userId": userID,
				"limit":  RecentConversationsLimit,
			},
		}).
		SetResult(&result).
		Post(s.client.baseURL + "/queries")
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("query conversations (status %d): %s", resp.StatusCode(), resp.String())
	}

	summaries := make([]ConversationSummary, 0, len(result.Results))
	for _, doc := range result.Results {
		summaries = append(summaries, ConversationSummary{
			ID:           doc.ID,
			LastModified: doc.LastModified,
			LastMessage:  firstUserMessage(doc.Messages),
		})
	}
	return summaries, nil
}

// firstUserMessage returns the content of the earliest user message.
// Conversation documents open with a system message, so this is usually
// the second entry.
func firstUserMessage(messages []ConversationMessage) string {
	for _, m := range messages {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

// LoadConversation loads a conversation document by id.
func (s *Session) LoadConversation(ctx context.Context, id string) (*ConversationDoc, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var doc ConversationDoc
	resp, err := s.client.http.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		SetResult(&doc).
		Get(s.client.baseURL + "/docs")
	if err != nil {
		return nil, fmt.Errorf("load conversation %q: %w", id, err)
	}
	if isNotFound(resp) {
		return nil, ErrConversationNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("load conversation %q (status %d): %s", id, resp.StatusCode(), resp.String())
	}
	return &doc, nil
}

// LoadDocument loads a documentation page by id.
func (s *Session) LoadDocument(ctx context.Context, id string) (*DocumentPage, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var page DocumentPage
	resp, err := s.client.http.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		SetResult(&page).
		Get(s.client.baseURL + "/docs")
	if err != nil {
		return nil, fmt.Errorf("load document %q: %w", id, err)
	}
	if isNotFound(resp) {
		return nil, ErrDocumentNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("load document %q (status %d): %s", id, resp.StatusCode(), resp.String())
	}
	if page.HTMLContent == "" {
		return nil, fmt.Errorf("load document %q: %w", id, ErrNoHTMLContent)
	}
	return &page, nil
}
