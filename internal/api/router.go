package api

import (
	"net/http"

	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/journal"
	"github.com/revittco/pealink/internal/store"
	"github.com/revittco/pealink/internal/workflow"
)

// RouterDeps holds the dependencies needed by the HTTP API router.
type RouterDeps struct {
	Store     store.Store
	Bus       *journal.Bus           // optional; enables SSE request stream
	Sender    Sender                 // optional; enables POST /api/v1/commands
	Pending   func() int             // optional; reported by the health check
	Workflows *workflow.Orchestrator // optional; requires Page
	Page      *host.Page
	Editor    http.Handler // optional; websocket editor endpoint
}

// NewRouter creates an http.Handler with all API routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	health := &healthHandler{db: deps.Store, pending: deps.Pending}
	mux.HandleFunc("GET /api/v1/health", health.check)

	rh := &requestHandler{store: deps.Store}
	mux.HandleFunc("GET /api/v1/requests", rh.query)
	mux.HandleFunc("GET /api/v1/requests/stats", rh.stats)

	if deps.Bus != nil {
		sse := &requestSSEHandler{bus: deps.Bus, store: deps.Store}
		mux.HandleFunc("GET /api/v1/requests/stream", sse.stream)
	}

	eh := &exportHandler{store: deps.Store}
	mux.HandleFunc("GET /api/v1/exports", eh.list)
	mux.HandleFunc("GET /api/v1/exports/{id}", eh.get)
	mux.HandleFunc("DELETE /api/v1/exports/{id}", eh.delete)

	if deps.Sender != nil {
		ch := &commandHandler{ch: deps.Sender}
		mux.HandleFunc("POST /api/v1/commands", ch.send)
	}

	if deps.Workflows != nil && deps.Page != nil {
		wh := &workflowHandler{orch: deps.Workflows, page: deps.Page}
		mux.HandleFunc("POST /api/v1/workflows/{name}", wh.run)
		mux.HandleFunc("POST /api/v1/galleries/{id}", wh.setGallery)
		mux.HandleFunc("GET /api/v1/page", wh.html)
	}

	// Apply middleware chain: CORS -> RequestID -> Logging -> origin checks -> mux
	var handler http.Handler = mux
	handler = requireJSONContentTypeMiddleware(handler)
	handler = browserOriginProtectionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(handler)

	if deps.Editor == nil {
		return handler
	}

	// The editor websocket checks origins itself against its own patterns.
	root := http.NewServeMux()
	root.Handle("/editor", requestIDMiddleware(loggingMiddleware(deps.Editor)))
	root.Handle("/", handler)
	return root
}
