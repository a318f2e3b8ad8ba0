package docstore

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// systemPrompt steers the docs agent. The agent answers strictly from the
// documentation it retrieves through its query tools and cites the page ids
// it used.
const systemPrompt = `You are a documentation assistant for a document database.
Answer questions using only the documentation retrieved by your tools.
Prefer examples for the programming language given in the $language parameter.
Always fill the sources field with the ids of the documentation pages you used.
If the documentation does not cover the question, say so instead of guessing.`

// conversationIDPrefix is the id prefix the service assigns to persisted
// conversation documents.
const conversationIDPrefix = "chats/"

// conversationExpirationSeconds expires persisted conversations after 60 days.
const conversationExpirationSeconds = 60 * 24 * 60 * 60

// maxModelIterations bounds tool-call loops within one agent run.
const maxModelIterations = 16

// agentDefinition is the body of the agent upsert call.
type agentDefinition struct {
	ID                        string             `json:"id"`
	Name                      string             `json:"name"`
	SystemPrompt              string             `json:"systemPrompt"`
	SampleObject              *jsonschema.Schema `json:"outputSchema"`
	Parameters                []agentParameter   `json:"parameters"`
	Queries                   []agentQuery       `json:"queries"`
	Persistence               agentPersistence   `json:"persistence"`
	MaxModelIterationsPerCall int                `json:"maxModelIterationsPerCall"`
}

type agentParameter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// agentQuery is a semantic query tool the agent can call during a run.
type agentQuery struct {
	Name             string             `json:"name"`
	Description      string             `json:"description"`
	Query            string             `json:"query"`
	ParametersSchema *jsonschema.Schema `json:"parametersSchema"`
}

type agentPersistence struct {
	ConversationIDPrefix string `json:"conversationIdPrefix"`
	ExpirationSeconds    int    `json:"expirationInSec"`
}

// docsSearchInput parameterizes the agent's documentation search tools.
type docsSearchInput struct {
	SearchTerms string `json:"searchTerms" jsonschema:"phrase describing the documentation to look up"`
}

// EnsureAgent creates or updates the docs RAG agent definition on the
// service. Safe to call on every startup; the service treats it as an
// upsert.
func (c *Client) EnsureAgent(ctx context.Context) error {
	outputSchema, err := jsonschema.For[ModelAnswer](nil)
	if err != nil {
		return fmt.Errorf("build answer schema: %w", err)
	}
	searchSchema, err := jsonschema.For[docsSearchInput](nil)
	if err != nil {
		return fmt.Errorf("build search schema: %w", err)
	}

	def := agentDefinition{
		ID:           c.agentID,
		Name:         "Documentation assistant",
		SystemPrompt: systemPrompt,
		SampleObject: outputSchema,
		Parameters: []agentParameter{
			{Name: "userId", Description: "Owner of the conversation."},
			{Name: "language", Description: "Preferred programming language for code examples."},
		},
		Queries: []agentQuery{
			{
				Name:             "searchDocumentation",
				Description:      "Semantic search over documentation page bodies.",
				Query:            `from 'DocumentationPages' where vector.search(embedding.text(textContent), $searchTerms)`,
				ParametersSchema: searchSchema,
			},
			{
				Name:             "searchTitles",
				Description:      "Semantic search over documentation page titles, for locating a specific article.",
				Query:            `from 'DocumentationPages' where vector.search(embedding.text(title), $searchTerms)`,
				ParametersSchema: searchSchema,
			},
		},
		Persistence: agentPersistence{
			ConversationIDPrefix: conversationIDPrefix,
			ExpirationSeconds:    conversationExpirationSeconds,
		},
		MaxModelIterationsPerCall: maxModelIterations,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(def).
		Put(c.baseURL + "/agents")
	if err != nil {
		return fmt.Errorf("upsert agent %q: %w", c.agentID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upsert agent %q (status %d): %s", c.agentID, resp.StatusCode(), resp.String())
	}

	c.logger.Info("docs agent ready", "agent_id", c.agentID)
	return nil
}
