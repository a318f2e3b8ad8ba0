// Package gateway provides the JSON HTTP gateway between chat front ends
// and the external document-database service.
//
// # Architecture
//
// The gateway is deliberately thin: it validates input, acquires a scoped
// docstore session per request, forwards the work to the service's AI
// agent or document store, and shapes the reply. All RAG state lives in
// the external service; the gateway keeps no per-request state beyond the
// session handle, which is released on every exit path.
//
// Routing uses Go 1.22+ method patterns with a layered middleware stack:
//
//	Recovery → RequestID → Tracing → Logging → CORS → RateLimit → Routes
//
// Health probes (/health, /ready) bypass the middleware stack via a
// top-level mux.
//
// # Endpoints
//
// Chat:
//   - POST /api/chat/message: send a prompt to the docs agent
//   - GET  /api/chat/conversations: recent conversations, newest first
//   - GET  /api/chat/messages: full history of one conversation
//
// Documentation:
//   - GET /api/docs: raw HTML of a documentation page
//
// Probes (no middleware):
//   - GET /health: returns {"status":"ok"}
//   - GET /ready: pings the document-database service
//
// # Error Handling
//
// Errors are flat JSON. The message endpoint answers
// {"error": "...", "success": false}; every other endpoint answers
// {"error": "..."}. 400 marks missing or invalid input, 404 marks
// unknown conversations or documents, 500 marks upstream failure with
// the upstream status passed through. The gateway never retries.
//
// # Security
//
// The middleware stack enforces:
//   - Per-IP rate limiting (token bucket, golang.org/x/time/rate)
//   - CORS with explicit origin allowlist (rs/cors)
//   - Security headers (nosniff, X-Frame-Options)
package gateway
