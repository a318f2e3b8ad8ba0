package docstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"docpilot/internal/log"
)

// Options configures a Client.
type Options struct {
	// URL is the base address of the document-database service.
	URL string
	// Database is the database name holding conversations and docs.
	Database string
	// APIKey is sent as X-API-Key on every request when non-empty.
	APIKey string
	// AgentID names the docs RAG agent inside the service.
	AgentID string
	// Timeout bounds every HTTP call.
	Timeout time.Duration
	// MaxOpenSessions bounds concurrently open sessions. Zero means 64.
	MaxOpenSessions int
}

// Client talks to one database of the document-database service.
// It is safe for concurrent use; all stateful work happens in sessions.
type Client struct {
	http    *resty.Client
	baseURL string
	agentID string
	logger  log.Logger

	// slots is a counting semaphore bounding open sessions.
	slots chan struct{}
}

const defaultMaxOpenSessions = 64

// New creates a Client for the given service and database.
func New(opts Options, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	maxOpen := opts.MaxOpenSessions
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenSessions
	}

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		httpClient.SetHeader("X-API-Key", opts.APIKey)
	}

	return &Client{
		http:    httpClient,
		baseURL: fmt.Sprintf("%s/databases/%s", opts.URL, opts.Database),
		agentID: opts.AgentID,
		logger:  logger,
		slots:   make(chan struct{}, maxOpen),
	}
}

// AgentID returns the configured docs agent id.
func (c *Client) AgentID() string {
	return c.agentID
}

// Ping verifies the service and database are reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + "/stats")
	if err != nil {
		return fmt.Errorf("docstore unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("docstore ping failed (status %d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// OpenSession acquires a session slot, blocking until one is free or the
// context is done. The caller must Close the session.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("open session: %w", ctx.Err())
	}

	c.logger.Debug("session opened", "open", len(c.slots), "cap", cap(c.slots))
	return &Session{client: c}, nil
}

// isNotFound reports whether the response is a 404.
func isNotFound(resp *resty.Response) bool {
	return resp.StatusCode() == http.StatusNotFound
}
