package api

import (
	"errors"
	"net/http"

	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
	"github.com/revittco/pealink/internal/workflow"
)

type workflowRequest struct {
	Gallery         string `json:"gallery,omitempty"`
	Tab             string `json:"tab,omitempty"`
	ControlNet      bool   `json:"controlnet,omitempty"`
	Unit            int    `json:"unit,omitempty"`
	ActiveLayerOnly *bool  `json:"active_layer_only,omitempty"`
}

type galleryRequest struct {
	Name    string `json:"name,omitempty"`
	DataURL string `json:"data_url"`
}

type workflowHandler struct {
	orch *workflow.Orchestrator
	page *host.Page
}

func (h *workflowHandler) run(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	if req.ActiveLayerOnly != nil {
		if err := h.page.SetActiveLayerOnly(*req.ActiveLayerOnly); err != nil {
			writeErrorDetail(w, http.StatusInternalServerError, "failed to set active layer only", err.Error())
			return
		}
	}

	ctx := r.Context()
	var err error
	switch name := r.PathValue("name"); name {
	case "open-in-editor":
		err = h.orch.OpenInEditor(ctx, req.Gallery)
	case "send-to-tab":
		err = h.orch.SendToTab(ctx, req.Tab, req.ControlNet, req.Unit)
	case "inpaint-selection":
		err = h.orch.InpaintSelection(ctx)
	case "controlnet-mask":
		err = h.orch.SendImageAndMaskToControlNet(ctx, req.Tab, req.Unit)
	default:
		writeError(w, http.StatusNotFound, "unknown workflow "+name)
		return
	}
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"active_tab": h.page.ActiveTab(),
	})
}

func (h *workflowHandler) setGallery(w http.ResponseWriter, r *http.Request) {
	var req galleryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Name == "" {
		req.Name = "image.png"
	}
	f, err := imageio.DecodeDataURL(req.DataURL, req.Name)
	if err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid data_url", err.Error())
		return
	}
	if err := h.page.SetGalleryImage(r.PathValue("id"), f); err != nil {
		if errors.Is(err, host.ErrNotFound) {
			writeError(w, http.StatusNotFound, "gallery not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to set gallery image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// html serves the current host page markup.
func (h *workflowHandler) html(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.page.HTML()))
}

func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrUnknownTab):
		writeErrorDetail(w, http.StatusBadRequest, "invalid tab", err.Error())
	case errors.Is(err, workflow.ErrTargetNotFound):
		writeErrorDetail(w, http.StatusNotFound, "host target not found", err.Error())
	case errors.Is(err, workflow.ErrNoSelection):
		writeErrorDetail(w, http.StatusConflict, "no selection in active document", err.Error())
	case errors.Is(err, script.ErrRemote):
		writeErrorDetail(w, http.StatusUnprocessableEntity, "editor reported an error", err.Error())
	default:
		writeSendError(w, err)
	}
}
