package gateway

// Contract tests pin the externally visible JSON shapes. Front ends and
// reverse proxies depend on these exact bodies; changes here are breaking.

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyKeys(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// The message endpoint's error body always carries success:false beside
// the error string.
func TestContract_MessageErrorShape(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := postMessage(t, handler, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	m := bodyKeys(t, rec)
	assert.Len(t, m, 2)
	assert.Equal(t, false, m["success"])
	assert.IsType(t, "", m["error"])
}

// Every other endpoint's error body is the bare {"error": "..."} object.
func TestContract_FlatErrorShape(t *testing.T) {
	_, handler := newTestGateway(t)

	paths := []string{
		"/api/chat/messages",
		"/api/docs",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			m := bodyKeys(t, rec)
			assert.Len(t, m, 1)
			assert.IsType(t, "", m["error"])
		})
	}
}

// Success body of the message endpoint: success flag plus the response
// object with answer, sources and the conversation id.
func TestContract_MessageSuccessShape(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := postMessage(t, handler, `{"message":"hi","language":"csharp"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	m := bodyKeys(t, rec)
	assert.Equal(t, true, m["success"])
	resp, ok := m["response"].(map[string]any)
	require.True(t, ok, "response must be an object")
	for _, key := range []string{"answer", "sources", "conversationId"} {
		assert.Contains(t, resp, key)
	}
}

// JSON responses are sent with explicit length and nosniff, so clients
// never have to guess at framing or content type.
func TestContract_JSONResponseHeaders(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/conversations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
}

// Upstream status text passes through the 500 body verbatim.
func TestContract_UpstreamStatusPassThrough(t *testing.T) {
	fake, handler := newTestGateway(t)
	fake.RunStatus = "Expired"

	rec := postMessage(t, handler, `{"message":"hi","language":"csharp"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasSuffix(bodyKeys(t, rec)["error"].(string), ": Expired"))
}
