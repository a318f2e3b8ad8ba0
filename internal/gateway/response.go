package gateway

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// writeJSON writes a JSON response with the given status code.
// Uses buffer-first strategy so headers are only sent after successful
// encoding; an encode failure still yields a clean 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		slog.Debug("failed to write response body", "error", err)
	}
}

// errorResponse is the error body of the non-chat endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// messageErrorResponse is the error body of the message endpoint, which
// additionally carries an explicit success flag.
type messageErrorResponse struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// writeError writes the flat {"error": ...} body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeMessageError writes the message endpoint's error body.
func writeMessageError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageErrorResponse{Error: message, Success: false})
}
