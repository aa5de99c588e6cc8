package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/revittco/pealink/internal/store"
)

type exportHandler struct {
	store store.ExportStore
}

func (h *exportHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ExportFilter{Limit: 50}
	if v := q.Get("workflow"); v != "" {
		filter.Workflow = &v
	}
	if v := q.Get("target"); v != "" {
		filter.Target = &v
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

	exports, err := h.store.ListExports(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list exports")
		return
	}
	if exports == nil {
		exports = []store.Export{}
	}
	writeJSON(w, http.StatusOK, exports)
}

// get serves the export's image.
func (h *exportHandler) get(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.GetExport(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "export not found")
		return
	case errors.Is(err, store.ErrSealed):
		writeError(w, http.StatusConflict, "export is sealed and no age identity is configured")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to get export")
		return
	}

	w.Header().Set("Content-Type", e.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", e.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Data)
}

func (h *exportHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteExport(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete export")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
