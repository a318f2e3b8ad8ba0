package docstore

import (
	"context"
	"fmt"
)

// conversationsIndexName is the search index QueryConversations runs
// against. EnsureIndex must have registered it before the first query.
const conversationsIndexName = "Conversations/Search"

// conversationsIndexMap projects conversation documents into the fields
// the index queries on: the owning user and the modification time.
const conversationsIndexMap = `from conv in docs.Conversations
select new {
    userId = conv.Parameters.userId,
    lastModified = MetadataFor(conv).Value<DateTime>("@last-modified")
}`

// indexDefinition is the body of the index upsert call.
type indexDefinition struct {
	Name   string                       `json:"name"`
	Maps   []string                     `json:"maps"`
	Fields map[string]indexFieldOptions `json:"fields"`
}

type indexFieldOptions struct {
	Storage string `json:"storage"`
}

// EnsureIndex creates or updates the conversation search index on the
// service. Like EnsureAgent it is an upsert, safe on every startup;
// without it QueryConversations fails against a fresh database.
func (c *Client) EnsureIndex(ctx context.Context) error {
	def := indexDefinition{
		Name: conversationsIndexName,
		Maps: []string{conversationsIndexMap},
		Fields: map[string]indexFieldOptions{
			// lastModified is stored so the index can order and return
			// it without loading the documents.
			"lastModified": {Storage: "Yes"},
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(def).
		Put(c.baseURL + "/indexes")
	if err != nil {
		return fmt.Errorf("upsert index %q: %w", conversationsIndexName, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upsert index %q (status %d): %s", conversationsIndexName, resp.StatusCode(), resp.String())
	}

	c.logger.Info("conversation index ready", "index", conversationsIndexName)
	return nil
}
