package config

import (
	"fmt"
	"net"
	"net/url"
)

// Validate checks the full configuration, fail-fast.
// Returns a sentinel error (wrapped with context) on the first violation.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidListenAddr, c.ListenAddr)
	}

	if err := validateHTTPURL(c.DocstoreURL); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDocstoreURL, c.DocstoreURL)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidDatabase)
	}
	if c.AgentID == "" {
		return fmt.Errorf("%w: agent id must not be empty", ErrInvalidAgentID)
	}
	if c.DefaultUser == "" {
		return fmt.Errorf("%w: default user must not be empty", ErrInvalidDefaultUser)
	}

	if c.RequestTimeout <= 0 || c.RequestTimeout > 600 {
		return fmt.Errorf("%w: request_timeout_seconds must be in (0, 600], got %d",
			ErrInvalidTimeout, c.RequestTimeout)
	}
	if c.MaxOpenSessions <= 0 {
		return fmt.Errorf("%w: max_open_sessions must be positive, got %d",
			ErrInvalidTimeout, c.MaxOpenSessions)
	}

	if err := validateHTTPURL(c.GatewayURL); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidGatewayURL, c.GatewayURL)
	}

	// The language tag is a UI affordance only; the gateway performs no
	// server-side validation against it, but the front end needs at
	// least one entry to offer.
	if len(c.Languages) == 0 {
		return ErrNoLanguages
	}

	return nil
}

// validateHTTPURL verifies the value parses as an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
