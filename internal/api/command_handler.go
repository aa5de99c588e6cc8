package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
)

// Sender sends one command to the editor. *channel.Channel satisfies it.
type Sender interface {
	SendCommand(ctx context.Context, cmd channel.Command) (channel.Response, error)
}

type commandRequest struct {
	Command string `json:"command,omitempty"` // catalogue name
	Script  string `json:"script,omitempty"`  // raw script, instead of command
	Message string `json:"message,omitempty"` // alert and echo
	DataURL string `json:"data_url,omitempty"`
	AsSmart bool   `json:"as_smart,omitempty"`
	Minify  bool   `json:"minify,omitempty"`
}

type payloadResponse struct {
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	MIME    string `json:"mime,omitempty"`
	DataURL string `json:"data_url,omitempty"`
	Size    int    `json:"size"`
}

type commandResponse struct {
	Command   string            `json:"command"`
	Payloads  []payloadResponse `json:"payloads"`
	LatencyMs int64             `json:"latency_ms"`
}

type commandHandler struct {
	ch Sender
}

func (h *commandHandler) send(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	cmd, err := buildCommand(req)
	if err != nil {
		writeErrorDetail(w, http.StatusBadRequest, "invalid command", err.Error())
		return
	}
	if req.Minify {
		if cmd, err = script.Minify(cmd); err != nil {
			writeErrorDetail(w, http.StatusBadRequest, "script does not compile", err.Error())
			return
		}
	}

	start := time.Now()
	resp, err := h.ch.SendCommand(r.Context(), cmd)
	if err != nil {
		writeSendError(w, err)
		return
	}
	if err := script.RemoteError(resp); err != nil {
		writeErrorDetail(w, http.StatusUnprocessableEntity, "editor reported an error", err.Error())
		return
	}

	out := commandResponse{
		Command:   cmd.Kind(),
		Payloads:  make([]payloadResponse, 0, len(resp)),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for _, p := range resp {
		pr := payloadResponse{Kind: p.Kind.String(), Size: p.Size()}
		if p.Kind == channel.KindBinary {
			pr.MIME = imageio.Sniff(p.Data)
			pr.DataURL = imageio.DataURL(pr.MIME, p.Data)
		} else {
			pr.Text = p.Text
		}
		out.Payloads = append(out.Payloads, pr)
	}
	writeJSON(w, http.StatusOK, out)
}

func buildCommand(req commandRequest) (channel.Command, error) {
	switch {
	case req.Script != "" && req.Command != "":
		return nil, errors.New("command and script are mutually exclusive")
	case req.Script != "":
		return script.Raw{Source: req.Script}, nil
	}
	switch req.Command {
	case "":
		return nil, errors.New("command or script is required")
	case "alert":
		return script.Alert{Message: req.Message}, nil
	case "echo":
		return script.Echo{Message: req.Message}, nil
	case "open":
		if _, err := imageio.DecodeDataURL(req.DataURL, "open"); err != nil {
			return nil, err
		}
		return script.Open{DataURL: req.DataURL, AsSmart: req.AsSmart}, nil
	default:
		return script.Named(req.Command)
	}
}

// writeSendError maps channel failures to HTTP statuses.
func writeSendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, channel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeErrorDetail(w, http.StatusGatewayTimeout, "editor did not answer in time", err.Error())
	case errors.Is(err, channel.ErrClosed), errors.Is(err, channel.ErrAborted):
		writeErrorDetail(w, http.StatusServiceUnavailable, "editor channel unavailable", err.Error())
	case errors.Is(err, context.Canceled):
		writeErrorDetail(w, 499, "request cancelled", err.Error())
	default:
		writeErrorDetail(w, http.StatusBadGateway, "failed to send command", err.Error())
	}
}
