package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/revittco/pealink/internal/store"
)

type requestHandler struct {
	store store.RequestStore
}

func (h *requestHandler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RequestFilter{
		Limit:  50,
		Offset: 0,
	}

	if v := q.Get("command"); v != "" {
		filter.Command = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if t, ok := parseTimeParam(q.Get("after")); ok {
		filter.After = &t
	}
	if t, ok := parseTimeParam(q.Get("before")); ok {
		filter.Before = &t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	records, total, err := h.store.QueryRequestRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query request records")
		return
	}

	if records == nil {
		records = []store.RequestRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   records,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// stats summarises the journal over a window, the last 24 hours unless
// after/before are given.
func (h *requestHandler) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	before := time.Now().UTC()
	if t, ok := parseTimeParam(q.Get("before")); ok {
		before = t
	}
	after := before.Add(-24 * time.Hour)
	if t, ok := parseTimeParam(q.Get("after")); ok {
		after = t
	}

	stats, err := h.store.GetRequestStats(r.Context(), after, before)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute request stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseTimeParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
