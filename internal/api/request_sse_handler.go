package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/revittco/pealink/internal/journal"
	"github.com/revittco/pealink/internal/store"
)

const (
	sseHeartbeat = 15 * time.Second
	maxBacklog   = 500
)

type requestSSEHandler struct {
	bus   *journal.Bus
	store store.RequestStore
}

// stream sends journalled requests as server-sent events. With ?backlog=N
// the N most recent matching records are replayed first, oldest first.
func (h *requestSSEHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{Command: q.Get("command"), Status: q.Get("status")}
	backlog := 0
	if v := q.Get("backlog"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid backlog")
			return
		}
		backlog = min(n, maxBacklog)
	}

	// Subscribe before reading the backlog so nothing recorded in between
	// is lost. Records seen in both are sent once.
	ch := h.bus.Subscribe(filter)
	defer h.bus.Unsubscribe(ch)

	var replay []store.RequestRecord
	if backlog > 0 && h.store != nil {
		f := store.RequestFilter{Limit: backlog}
		if filter.Command != "" {
			f.Command = &filter.Command
		}
		if filter.Status != "" {
			f.Status = &filter.Status
		}
		recs, _, err := h.store.QueryRequestRecords(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		slices.Reverse(recs)
		replay = recs
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sent := make(map[string]bool, len(replay))
	for i := range replay {
		writeRequestEvent(w, &replay[i])
		sent[replay[i].ID] = true
	}
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if sent[rec.ID] {
				delete(sent, rec.ID)
				continue
			}
			writeRequestEvent(w, rec)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		}
	}
}

func writeRequestEvent(w http.ResponseWriter, rec *store.RequestRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: request\nid: %s\ndata: %s\n\n", rec.ID, data)
}
