package docstore

import "errors"

// Sentinel errors for docstore operations. Callers distinguish them with
// errors.Is() to map onto HTTP status codes.
var (
	// ErrConversationNotFound indicates the requested conversation document
	// does not exist in the database.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrDocumentNotFound indicates the requested documentation page does
	// not exist in the database.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNoHTMLContent indicates the documentation page exists but carries
	// no rendered HTML body.
	ErrNoHTMLContent = errors.New("document has no HTML content")

	// ErrSessionClosed indicates an operation on a session after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoAnswer indicates Run completed without producing a model answer.
	ErrNoAnswer = errors.New("agent returned no answer")
)
