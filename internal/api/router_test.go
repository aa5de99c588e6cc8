package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/editor"
	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/journal"
	"github.com/revittco/pealink/internal/store"
	"github.com/revittco/pealink/internal/store/sqlite"
	"github.com/revittco/pealink/internal/window"
	"github.com/revittco/pealink/internal/workflow"
)

type testServer struct {
	db   *sqlite.DB
	ed   *editor.Editor
	page *host.Page
	h    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.New(ctx, t.TempDir()+"/api.db")
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bus := journal.NewBus()
	rec := journal.NewRecorder(db, bus, nil)

	ed := editor.New(editor.Options{Width: 64, Height: 48})
	w := window.New(nil)
	t.Cleanup(w.Close)
	frame := window.NewFrame(w, ed)
	t.Cleanup(frame.Close)
	ch := channel.New(frame, w, channel.WithTimeout(5*time.Second), channel.WithObserver(rec.Observe))
	t.Cleanup(ch.Close)

	page, err := host.NewPage(host.Options{})
	if err != nil {
		t.Fatal(err)
	}
	orch := workflow.New(ch, page, workflow.WithExports(db), workflow.WithUITimeout(100*time.Millisecond))

	return &testServer{
		db:   db,
		ed:   ed,
		page: page,
		h: NewRouter(RouterDeps{
			Store:     db,
			Bus:       bus,
			Sender:    ch,
			Pending:   ch.Pending,
			Workflows: orch,
			Page:      page,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return imageio.DataURL("image/png", buf.Bytes())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp healthResponse
	decodeBody(t, rr, &resp)
	if resp.Status != "ok" || resp.Database != "ok" || resp.Pending != 0 || resp.Schema != 2 {
		t.Fatalf("health = %+v", resp)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestSendCommand(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/v1/commands", `{"command":"size"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rr.Code, rr.Body)
	}
	var resp commandResponse
	decodeBody(t, rr, &resp)
	if resp.Command != "document_size" || len(resp.Payloads) != 1 || resp.Payloads[0].Text != "64,48" {
		t.Fatalf("resp = %+v", resp)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/commands", `{"command":"save"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status = %d", rr.Code)
	}
	decodeBody(t, rr, &resp)
	if len(resp.Payloads) != 1 || resp.Payloads[0].Kind != "binary" || resp.Payloads[0].MIME != "image/png" {
		t.Fatalf("save resp = %+v", resp.Payloads)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/requests?command=document_size", "")
	var list struct {
		Data  []store.RequestRecord `json:"data"`
		Total int                   `json:"total"`
	}
	decodeBody(t, rr, &list)
	if list.Total != 1 || list.Data[0].Status != store.StatusSuccess {
		t.Fatalf("journal = %+v", list)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/requests/stats", "")
	var stats store.RequestStats
	decodeBody(t, rr, &stats)
	if stats.TotalRequests != 2 || stats.SuccessCount != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSendCommandErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"unknown field", `{"command":"size","extra":1}`, http.StatusBadRequest},
		{"both", `{"command":"size","script":"1"}`, http.StatusBadRequest},
		{"empty", `{}`, http.StatusBadRequest},
		{"unknown command", `{"command":"explode"}`, http.StatusBadRequest},
		{"bad open", `{"command":"open","data_url":"nope"}`, http.StatusBadRequest},
		{"minify syntax", `{"script":"app.echoToOE(","minify":true}`, http.StatusBadRequest},
		{"remote error", `{"script":"undefinedThing.call()"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/v1/commands", tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(`{"command":"size"}`))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	s.h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text/plain status = %d", rr.Code)
	}
}

func TestWorkflowEndpoints(t *testing.T) {
	s := newTestServer(t)

	body := `{"name":"gen.png","data_url":"` + pngDataURL(t, 16, 16) + `"}`
	if rr := s.do(t, http.MethodPost, "/api/v1/galleries/txt2img_gallery", body); rr.Code != http.StatusNoContent {
		t.Fatalf("gallery status = %d %s", rr.Code, rr.Body)
	}
	if rr := s.do(t, http.MethodPost, "/api/v1/galleries/nope", body); rr.Code != http.StatusNotFound {
		t.Fatalf("missing gallery status = %d", rr.Code)
	}

	rr := s.do(t, http.MethodPost, "/api/v1/workflows/open-in-editor", `{"gallery":"txt2img_gallery"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("open status = %d %s", rr.Code, rr.Body)
	}
	if n := len(s.ed.ActiveDocument().Layers); n != 2 {
		t.Fatalf("layers = %d", n)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/workflows/send-to-tab", `{"tab":"img2img"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("send status = %d %s", rr.Code, rr.Body)
	}

	rr = s.do(t, http.MethodPost, "/api/v1/workflows/inpaint-selection", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("inpaint without selection status = %d", rr.Code)
	}
	rr = s.do(t, http.MethodPost, "/api/v1/workflows/send-to-tab", `{"tab":"txt2img"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing target status = %d", rr.Code)
	}
	rr = s.do(t, http.MethodPost, "/api/v1/workflows/dance", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown workflow status = %d", rr.Code)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/exports?workflow="+workflow.WorkflowSendToTab, "")
	var exports []store.Export
	decodeBody(t, rr, &exports)
	if len(exports) != 1 || exports[0].Target != "mode_img2img" {
		t.Fatalf("exports = %+v", exports)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/exports/"+exports[0].ID, "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("download status = %d type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if w, h, err := imageio.Dimensions(rr.Body.Bytes()); err != nil || w != 64 || h != 48 {
		t.Fatalf("download dims = %dx%d err %v", w, h, err)
	}

	if rr := s.do(t, http.MethodDelete, "/api/v1/exports/"+exports[0].ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if rr := s.do(t, http.MethodGet, "/api/v1/exports/"+exports[0].ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted status = %d", rr.Code)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/page", "")
	if !strings.Contains(rr.Body.String(), host.EditorFrameID) {
		t.Fatal("page html missing editor frame")
	}
}

func TestRequestStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/requests/stream?command=echo", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	for _, body := range []string{`{"command":"size"}`, `{"command":"echo","message":"hi"}`} {
		post, err := http.Post(srv.URL+"/api/v1/commands", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		post.Body.Close()
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line, ok := strings.CutPrefix(sc.Text(), "data: ")
		if !ok {
			continue
		}
		var rec store.RequestRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatal(err)
		}
		if rec.Command != "echo" || rec.Script != `app.echoToOE("hi");` {
			t.Fatalf("streamed record = %+v", rec)
		}
		return
	}
	t.Fatalf("stream ended: %v", sc.Err())
}

func TestRequestStreamBacklog(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.h)
	defer srv.Close()

	post := func(body string) {
		t.Helper()
		resp, err := http.Post(srv.URL+"/api/v1/commands", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}
	post(`{"command":"echo","message":"first"}`)
	post(`{"command":"size"}`)
	post(`{"command":"echo","message":"second"}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/requests/stream?command=echo&backlog=10", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	post(`{"command":"echo","message":"live"}`)

	want := []string{
		`app.echoToOE("first");`,
		`app.echoToOE("second");`,
		`app.echoToOE("live");`,
	}
	var got []string
	var lastID string
	sc := bufio.NewScanner(resp.Body)
	for len(got) < len(want) && sc.Scan() {
		line := sc.Text()
		if id, ok := strings.CutPrefix(line, "id: "); ok {
			lastID = id
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var rec store.RequestRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			t.Fatal(err)
		}
		if rec.ID != lastID {
			t.Fatalf("event id %q does not match record %q", lastID, rec.ID)
		}
		got = append(got, rec.Script)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events (%v), scan err %v", len(got), got, sc.Err())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRequestStreamBadBacklog(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/api/v1/requests/stream?backlog=-1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSendCommandMinify(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/api/v1/commands",
		`{"script":"var   greeting = 'hi' ;\n app.echoToOE( greeting + '!' );","minify":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body)
	}
	var resp commandResponse
	decodeBody(t, rr, &resp)
	if resp.Command != "raw" || len(resp.Payloads) != 1 || resp.Payloads[0].Text != "hi!" {
		t.Fatalf("resp = %+v", resp)
	}

	rr = s.do(t, http.MethodGet, "/api/v1/requests?command=raw", "")
	var list struct {
		Data []store.RequestRecord `json:"data"`
	}
	decodeBody(t, rr, &list)
	if len(list.Data) != 1 || strings.Contains(list.Data[0].Script, "  ") {
		t.Fatalf("journalled script not minified: %+v", list.Data)
	}
}
