package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newChainRouter builds a router with only the editor mount and the always
// present routes, so middleware behaviour can be checked without an editor
// channel.
func newChainRouter(t *testing.T, editor http.Handler) http.Handler {
	t.Helper()
	return NewRouter(RouterDeps{Editor: editor})
}

func TestAPIMiddlewareChain(t *testing.T) {
	h := newChainRouter(t, nil)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{name: "local origin", method: http.MethodGet, path: "/api/v1/health",
			headers: map[string]string{"Origin": "http://localhost:5173"}, want: http.StatusOK},
		{name: "editor origin rejected", method: http.MethodGet, path: "/api/v1/health",
			headers: map[string]string{"Origin": "https://www.photopea.com"}, want: http.StatusForbidden},
		{name: "cross-site fetch", method: http.MethodGet, path: "/api/v1/health",
			headers: map[string]string{"Sec-Fetch-Site": "cross-site"}, want: http.StatusForbidden},
		{name: "command as text", method: http.MethodPost, path: "/api/v1/commands", body: `{"command":"size"}`,
			headers: map[string]string{"Content-Type": "text/plain"}, want: http.StatusUnsupportedMediaType},
		{name: "bodiless workflow post", method: http.MethodPost, path: "/api/v1/workflows/inpaint-selection",
			want: http.StatusNotFound},
		{name: "local preflight", method: http.MethodOptions, path: "/api/v1/commands",
			headers: map[string]string{"Origin": "http://127.0.0.1:8080"}, want: http.StatusNoContent},
		{name: "foreign preflight", method: http.MethodOptions, path: "/api/v1/commands",
			headers: map[string]string{"Origin": "https://evil.example"}, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, "http://localhost"+tt.path, body)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body)
			}
			if rr.Header().Get("X-Request-ID") == "" && tt.method != http.MethodOptions {
				t.Fatal("missing request id")
			}
		})
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	h := newChainRouter(t, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "http://localhost/api/v1/health", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
	for k, v := range want {
		if got := rr.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if csp := rr.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self' data:") {
		t.Errorf("csp = %q", csp)
	}
}

func TestEditorRouteSkipsAPIChecks(t *testing.T) {
	var reached bool
	editor := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if r.Context().Value(requestIDKey) == nil {
			t.Error("editor request has no request id")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := newChainRouter(t, editor)

	// The editor origin would be rejected by the API chain.
	req := httptest.NewRequest(http.MethodPost, "http://localhost/editor", strings.NewReader("app.echoToOE(1);"))
	req.Header.Set("Origin", "https://www.photopea.com")
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !reached || rr.Code != http.StatusNoContent {
		t.Fatalf("reached = %v, status = %d", reached, rr.Code)
	}
	if rr.Header().Get("X-Frame-Options") != "" {
		t.Fatal("editor route got API security headers")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("editor route missing request id")
	}
}

func TestStatusWriterHijackUnsupported(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := sw.Hijack(); err == nil {
		t.Fatal("expected hijack error from recorder")
	}
	if sw.status != http.StatusOK {
		t.Fatalf("status changed to %d on failed hijack", sw.status)
	}
}
