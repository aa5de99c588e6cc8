package api

import (
	"context"
	"net/http"
	"time"
)

var startTime = time.Now()

// Version is reported by the health endpoint.
var Version = "0.1.0"

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int    `json:"uptime_seconds"`
	Database      string `json:"database"`
	Schema        int    `json:"schema_version,omitempty"`
	Pending       int    `json:"pending_requests"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int, error)
}

type healthHandler struct {
	db      pinger
	pending func() int // optional
}

func (h *healthHandler) check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int(time.Since(startTime).Seconds()),
		Database:      "ok",
	}
	if h.pending != nil {
		resp.Pending = h.pending()
	}
	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		} else if sv, ok := h.db.(schemaVersioner); ok {
			resp.Schema, _ = sv.SchemaVersion(ctx)
		}
	}
	writeJSON(w, status, resp)
}
