// Package docstore is the HTTP client for the external document-database
// service that hosts the documentation corpus and its AI agent.
//
// All RAG work (retrieval, prompting, generation, conversation persistence)
// happens inside that service; this package only drives its REST API:
//
//   - agent conversations (start or continue, run a prompt, read the answer)
//   - conversation queries (recent conversations for a user)
//   - document loads (conversation documents and documentation pages)
//
// Work is session-scoped: callers acquire a Session from the Client, perform
// their reads and agent runs through it, and release it with Close. The
// Client bounds the number of concurrently open sessions.
package docstore
