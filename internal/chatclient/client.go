// Package chatclient is the typed HTTP client for the gateway's JSON API,
// used by the terminal front end. It performs no retries and keeps no
// cache; every call maps to exactly one gateway request.
package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"docpilot/internal/docstore"
)

// Client calls the gateway's chat and docs endpoints.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		baseURL: baseURL,
	}
}

// MessageResult is the gateway's answer to a sent message.
type MessageResult struct {
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	ConversationID string   `json:"conversationId"`
}

type messageEnvelope struct {
	Success  bool          `json:"success"`
	Response MessageResult `json:"response"`
}

// Conversation is one entry of the recent-conversations list.
type Conversation struct {
	ID           string    `json:"id"`
	LastModified time.Time `json:"lastModified"`
	LastMessage  string    `json:"lastMessage"`
}

type conversationsEnvelope struct {
	Conversations []Conversation `json:"conversations"`
}

// Message is one stored turn of a conversation.
type Message struct {
	Sender   string                `json:"sender"`
	Text     string                `json:"text"`
	Response *docstore.ModelAnswer `json:"response"`
	Date     time.Time             `json:"date"`
	Tokens   int                   `json:"tokens"`
}

type messagesEnvelope struct {
	Messages []Message `json:"messages"`
}

type apiError struct {
	Error string `json:"error"`
}

// SendMessage submits a prompt. An empty conversationID starts a new
// conversation; the result carries the id to use for follow-ups.
func (c *Client) SendMessage(ctx context.Context, message, language, conversationID string) (*MessageResult, error) {
	body := map[string]string{
		"message":  message,
		"language": language,
	}
	if conversationID != "" {
		body["conversationId"] = conversationID
	}

	var result messageEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post(c.baseURL + "/api/chat/message")
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("send message", resp)
	}
	return &result.Response, nil
}

// Conversations lists the user's recent conversations, newest first.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var result conversationsEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.baseURL + "/api/chat/conversations")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("list conversations", resp)
	}
	return result.Conversations, nil
}

// Messages loads the full history of one conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var result messagesEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", conversationID).
		SetResult(&result).
		Get(c.baseURL + "/api/chat/messages")
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if resp.IsError() {
		return nil, responseError("load messages", resp)
	}
	return result.Messages, nil
}

// Document fetches the raw HTML of a documentation page.
func (c *Client) Document(ctx context.Context, id string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", id).
		Get(c.baseURL + "/api/docs")
	if err != nil {
		return "", fmt.Errorf("load document: %w", err)
	}
	if resp.IsError() {
		return "", responseError("load document", resp)
	}
	return string(resp.Body()), nil
}

// responseError turns a non-2xx gateway reply into an error, preferring
// the decoded {"error": ...} body over the raw status line.
func responseError(op string, resp *resty.Response) error {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s: %s (status %d)", op, apiErr.Error, resp.StatusCode())
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode())
}
