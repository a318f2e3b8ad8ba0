package gateway

import (
	"errors"
	"net/http"

	"docpilot/internal/docstore"
	"docpilot/internal/log"
)

// docsHandler serves raw documentation pages.
type docsHandler struct {
	client *docstore.Client
	logger log.Logger
}

// getDocument handles GET /api/docs. Resolves an opaque document id to
// the page's stored HTML, served as-is for the front end to render.
func (h *docsHandler) getDocument(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invalid or missing document id")
		return
	}

	sess, err := h.client.OpenSession(r.Context())
	if err != nil {
		h.logger.Error("opening docstore session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch document")
		return
	}
	defer sess.Close()

	page, err := sess.LoadDocument(r.Context(), id)
	if errors.Is(err, docstore.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	if errors.Is(err, docstore.ErrNoHTMLContent) {
		writeError(w, http.StatusNotFound, "Document has no HTML content")
		return
	}
	if err != nil {
		h.logger.Error("loading document", "error", err, "document_id", id)
		writeError(w, http.StatusInternalServerError, "Failed to fetch document")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page.HTMLContent)); err != nil {
		h.logger.Debug("failed to write document body", "error", err)
	}
}
