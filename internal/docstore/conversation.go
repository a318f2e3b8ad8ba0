package docstore

import (
	"context"
	"fmt"
)

// Conversation is a handle on one agent conversation within a session.
// Set a prompt, Run it, then read the answer, id and usage:
//
//	conv := sess.Conversation("")
//	conv.SetUserPrompt(prompt)
//	status, err := conv.Run(ctx)
type Conversation struct {
	session *Session
	id      string

	prompt     string
	parameters map[string]string

	answer *ModelAnswer
	usage  *Usage
}

// SetUserPrompt sets the prompt for the next Run.
func (c *Conversation) SetUserPrompt(prompt string) {
	c.prompt = prompt
}

// SetParameter binds an agent parameter for the next Run.
func (c *Conversation) SetParameter(name, value string) {
	if c.parameters == nil {
		c.parameters = map[string]string{}
	}
	c.parameters[name] = value
}

// Run sends the prompt to the agent and waits for the run to finish.
// It returns the run status; only StatusDone means the answer is usable.
// On a new conversation the service assigns the id, available via ID().
func (c *Conversation) Run(ctx context.Context) (string, error) {
	if err := c.session.check(); err != nil {
		return "", err
	}

	client := c.session.client
	var result runResponse
	resp, err := client.http.R().
		SetContext(ctx).
		SetBody(runRequest{
			ConversationID: c.id,
			UserID:         c.parameters["userId"],
			Prompt:         c.prompt,
			Parameters:     c.parameters,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("%s/agents/%s/conversations/run", client.baseURL, client.agentID))
	if err != nil {
		return "", fmt.Errorf("run agent conversation: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("run agent conversation (status %d): %s", resp.StatusCode(), resp.String())
	}

	if result.ConversationID != "" {
		c.id = result.ConversationID
	}
	c.answer = result.Answer
	c.usage = result.Usage

	client.logger.Debug("agent run finished",
		"conversation_id", c.id,
		"status", result.Status)
	return result.Status, nil
}

// ID returns the conversation id. Empty until the first successful Run of
// a new conversation.
func (c *Conversation) ID() string {
	return c.id
}

// Answer returns the structured answer of the last Run.
func (c *Conversation) Answer() (*ModelAnswer, error) {
	if c.answer == nil {
		return nil, ErrNoAnswer
	}
	return c.answer, nil
}

// Usage returns token usage of the last Run, or nil if the service did not
// report any.
func (c *Conversation) Usage() *Usage {
	return c.usage
}
