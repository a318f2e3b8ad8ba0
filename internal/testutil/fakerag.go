// Package testutil provides test helpers, chiefly an in-memory fake of the
// external document-database service. The fake speaks the same REST surface
// the real service does, so tests exercise the production client unchanged.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"docpilot/internal/docstore"
)

// FakeRAG is an in-memory stand-in for the document-database service and
// its AI agent. Answers are canned: every run replies with AnswerText and
// AnswerSources under status RunStatus.
type FakeRAG struct {
	Server *httptest.Server

	mu            sync.Mutex
	nextID        int
	conversations map[string]*docstore.ConversationDoc
	documents     map[string]docstore.DocumentPage
	agentDefined  bool
	indexes       map[string]bool

	// RunStatus is returned by every agent run. Defaults to "Done".
	RunStatus string
	// AnswerText and AnswerSources form the canned model answer.
	AnswerText    string
	AnswerSources []string
	// RunDelay makes each run sleep before answering, for race tests.
	RunDelay time.Duration
	// FailRuns makes the run endpoint return HTTP 500.
	FailRuns bool
}

// NewFakeRAG starts the fake service. The caller owns Server and must call
// Close (or rely on t.Cleanup).
func NewFakeRAG() *FakeRAG {
	f := &FakeRAG{
		conversations: map[string]*docstore.ConversationDoc{},
		documents:     map[string]docstore.DocumentPage{},
		indexes:       map[string]bool{},
		RunStatus:     docstore.StatusDone,
		AnswerText:    "canned answer",
		AnswerSources: []string{"DocumentationPages/1"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /databases/{db}/stats", f.handleStats)
	mux.HandleFunc("PUT /databases/{db}/agents", f.handleUpsertAgent)
	mux.HandleFunc("PUT /databases/{db}/indexes", f.handleUpsertIndex)
	mux.HandleFunc("POST /databases/{db}/agents/{agent}/conversations/run", f.handleRun)
	mux.HandleFunc("POST /databases/{db}/queries", f.handleQuery)
	mux.HandleFunc("GET /databases/{db}/docs", f.handleDoc)

	f.Server = httptest.NewServer(mux)
	return f
}

// Close shuts the fake service down.
func (f *FakeRAG) Close() {
	f.Server.Close()
}

// URL returns the fake service's base address.
func (f *FakeRAG) URL() string {
	return f.Server.URL
}

// AddDocument seeds a documentation page.
func (f *FakeRAG) AddDocument(page docstore.DocumentPage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[page.ID] = page
}

// AddConversation seeds a conversation document.
func (f *FakeRAG) AddConversation(doc docstore.ConversationDoc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := doc
	f.conversations[doc.ID] = &stored
}

// ConversationCount reports how many conversations the fake holds.
func (f *FakeRAG) ConversationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conversations)
}

// AgentDefined reports whether an agent upsert has been received.
func (f *FakeRAG) AgentDefined() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agentDefined
}

// IndexDefined reports whether an index upsert named name has been received.
func (f *FakeRAG) IndexDefined(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexes[name]
}

func (f *FakeRAG) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (f *FakeRAG) handleUpsertAgent(w http.ResponseWriter, r *http.Request) {
	var def map[string]any
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.agentDefined = true
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"id": def["id"]})
}

func (f *FakeRAG) handleUpsertIndex(w http.ResponseWriter, r *http.Request) {
	var def struct {
		Name string   `json:"name"`
		Maps []string `json:"maps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if def.Name == "" || len(def.Maps) == 0 {
		http.Error(w, "index definition needs a name and at least one map", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.indexes[def.Name] = true
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"index": def.Name})
}

type runRequest struct {
	ConversationID string            `json:"conversationId"`
	UserID         string            `json:"userId"`
	Prompt         string            `json:"prompt"`
	Parameters     map[string]string `json:"parameters"`
}

func (f *FakeRAG) handleRun(w http.ResponseWriter, r *http.Request) {
	if f.FailRuns {
		http.Error(w, "agent backend unavailable", http.StatusInternalServerError)
		return
	}
	if f.RunDelay > 0 {
		time.Sleep(f.RunDelay)
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	doc, ok := f.conversations[req.ConversationID]
	if !ok {
		f.nextID++
		doc = &docstore.ConversationDoc{
			ID:     fmt.Sprintf("chats/%04d", f.nextID),
			UserID: req.UserID,
			Messages: []docstore.ConversationMessage{
				{Role: "system", Content: "docs assistant", Date: time.Now().UTC()},
			},
		}
		f.conversations[doc.ID] = doc
	}

	answer := docstore.ModelAnswer{Answer: f.AnswerText, Sources: f.AnswerSources}
	answerJSON, _ := json.Marshal(answer)
	now := time.Now().UTC()
	doc.Messages = append(doc.Messages,
		docstore.ConversationMessage{Role: docstore.RoleUser, Content: req.Prompt, Date: now},
		docstore.ConversationMessage{
			Role:    docstore.RoleAssistant,
			Content: string(answerJSON),
			Date:    now,
			Usage:   &docstore.MessageUsage{TotalTokens: 42},
		},
	)
	doc.LastModified = now
	status := f.RunStatus
	conversationID := doc.ID
	f.mu.Unlock()

	resp := map[string]any{
		"status":         status,
		"conversationId": conversationID,
		"answer":         answer,
		"usage":          docstore.Usage{PromptTokens: 10, CompletionTokens: 32, TotalTokens: 42},
	}
	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	Query      string         `json:"query"`
	Parameters map[string]any `json:"parameters"`
}

func (f *FakeRAG) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, _ := req.Parameters["userId"].(string)
	limit := docstore.RecentConversationsLimit
	if v, ok := req.Parameters["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	f.mu.Lock()
	results := make([]docstore.ConversationDoc, 0, len(f.conversations))
	for _, doc := range f.conversations {
		if doc.UserID == userID {
			results = append(results, *doc)
		}
	}
	f.mu.Unlock()

	// Newest first, bounded by the query limit.
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if results[j].LastModified.After(results[i].LastModified) {
				results[i], results[j] = results[j], results[i]
			}
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (f *FakeRAG) handleDoc(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.conversations[id]; ok {
		writeJSON(w, http.StatusOK, doc)
		return
	}
	if page, ok := f.documents[id]; ok {
		writeJSON(w, http.StatusOK, page)
		return
	}
	http.Error(w, "document not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
