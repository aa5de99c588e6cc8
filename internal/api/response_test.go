package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/script"
	"github.com/revittco/pealink/internal/workflow"
)

func TestDecodeCommandRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    commandRequest
		wantErr bool
	}{
		{name: "catalogue", body: `{"command":"size"}`, want: commandRequest{Command: "size"}},
		{name: "raw minified", body: `{"script":"app.echoToOE(1);","minify":true}`, want: commandRequest{Script: "app.echoToOE(1);", Minify: true}},
		{name: "open", body: `{"command":"open","data_url":"data:image/png;base64,AA==","as_smart":true}`, want: commandRequest{Command: "open", DataURL: "data:image/png;base64,AA==", AsSmart: true}},
		{name: "unknown field", body: `{"command":"size","format":"jpg"}`, wantErr: true},
		{name: "two values", body: `{"command":"size"}{"command":"save"}`, wantErr: true},
		{name: "not json", body: `size`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(tt.body))
			var got commandRequest
			err := decodeJSON(req, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, decoded %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriteSendError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("save: %w", channel.ErrTimeout), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{channel.ErrClosed, http.StatusServiceUnavailable},
		{fmt.Errorf("size: %w", channel.ErrAborted), http.StatusServiceUnavailable},
		{context.Canceled, 499},
		{errors.New("post message: broken pipe"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeSendError(rr, tt.err)
		if rr.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rr.Code, tt.want)
		}
		var body errorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: decode body: %v", tt.err, err)
		}
		if body.Error == "" || body.Details != tt.err.Error() {
			t.Errorf("%v: body = %+v", tt.err, body)
		}
	}
}

func TestWriteWorkflowError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: sketch", workflow.ErrUnknownTab), http.StatusBadRequest},
		{fmt.Errorf("%w: mode_txt2img", workflow.ErrTargetNotFound), http.StatusNotFound},
		{workflow.ErrNoSelection, http.StatusConflict},
		{fmt.Errorf("open: %w: bad image", script.ErrRemote), http.StatusUnprocessableEntity},
		{fmt.Errorf("document_size: %w", channel.ErrTimeout), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeWorkflowError(rr, tt.err)
		if rr.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rr.Code, tt.want)
		}
	}
}
