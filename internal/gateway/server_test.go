package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docpilot/internal/docstore"
	"docpilot/internal/testutil"
)

// newTestGateway wires a gateway to an in-memory fake of the
// document-database service.
func newTestGateway(t *testing.T) (*testutil.FakeRAG, http.Handler) {
	t.Helper()

	fake := testutil.NewFakeRAG()
	t.Cleanup(fake.Close)

	client := docstore.New(docstore.Options{
		URL:             fake.URL(),
		Database:        "Docs",
		AgentID:         "docpilot-docs-rag-agent",
		Timeout:         5 * time.Second,
		MaxOpenSessions: 8,
	}, testutil.NewTestLogger(t))

	srv, err := NewServer(ServerConfig{
		Logger:      testutil.NewTestLogger(t),
		Client:      client,
		DefaultUser: "users/default",
		RateBurst:   1000,
	})
	require.NoError(t, err)
	return fake, srv.Handler()
}

func TestNewServer_RequiresClient(t *testing.T) {
	_, err := NewServer(ServerConfig{DefaultUser: "users/default"})
	assert.Error(t, err)
}

func TestNewServer_RequiresDefaultUser(t *testing.T) {
	fake := testutil.NewFakeRAG()
	t.Cleanup(fake.Close)
	client := docstore.New(docstore.Options{URL: fake.URL(), Database: "Docs", AgentID: "a"}, nil)

	_, err := NewServer(ServerConfig{Client: client})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestReady_UpstreamDown(t *testing.T) {
	fake := testutil.NewFakeRAG()
	url := fake.URL()
	fake.Close()

	client := docstore.New(docstore.Options{
		URL: url, Database: "Docs", AgentID: "a", Timeout: time.Second,
	}, nil)
	srv, err := NewServer(ServerConfig{Client: client, DefaultUser: "users/default"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDMiddleware_Generates(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestRequestIDMiddleware_ReusesValid(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	want := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", want)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, want, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_RejectsInvalid(t *testing.T) {
	handler := requestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-ID")
	assert.NotEqual(t, "not-a-uuid", got)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}

func TestSecurityHeaders(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/conversations", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(testutil.NewTestLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	_, handler := newTestGateway(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/chat/message", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
