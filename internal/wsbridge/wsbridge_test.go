package wsbridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/editor"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
)

func newTestConn(t *testing.T, ed *editor.Editor, opts ...Option) *Conn {
	t.Helper()
	srv := httptest.NewServer(Handler(ed, opts...))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestChannelOverWebsocket(t *testing.T) {
	conn := newTestConn(t, editor.New(editor.Options{Width: 120, Height: 80}))
	ch := channel.New(conn, conn, channel.WithTimeout(5*time.Second))
	defer ch.Close()
	ctx := context.Background()

	resp, err := ch.SendCommand(ctx, script.DocumentSize{})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if resp.Text() != "120,80" {
		t.Fatalf("size = %q", resp.Text())
	}

	resp, err = ch.SendCommand(ctx, script.Save{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, ok := resp.Bytes()
	if !ok {
		t.Fatalf("save reply has no binary payload: %v", resp)
	}
	if w, h, err := imageio.Dimensions(data); err != nil || w != 120 || h != 80 {
		t.Fatalf("dimensions = %d,%d,%v", w, h, err)
	}

	resp, err = ch.SendCommand(ctx, script.Rasterize{})
	if err != nil || len(resp) != 0 {
		t.Fatalf("rasterize = %v, %v", resp, err)
	}
	if ch.Pending() != 0 {
		t.Fatalf("pending = %d", ch.Pending())
	}
}

func TestPipelinedRequests(t *testing.T) {
	conn := newTestConn(t, editor.New(editor.Options{}))
	ch := channel.New(conn, conn, channel.WithTimeout(5*time.Second))
	defer ch.Close()

	type out struct {
		text string
		err  error
	}
	results := make([]chan out, 5)
	for i := range results {
		results[i] = make(chan out, 1)
		go func(i int) {
			resp, err := ch.SendCommand(context.Background(), script.Echo{Message: strings.Repeat("x", i+1)})
			results[i] <- out{resp.Text(), err}
		}(i)
	}
	for i, rc := range results {
		o := <-rc
		if o.err != nil {
			t.Fatalf("send %d: %v", i, o.err)
		}
		if o.text != strings.Repeat("x", i+1) {
			t.Fatalf("result %d = %q", i, o.text)
		}
	}
}

func TestPostAfterClose(t *testing.T) {
	conn := newTestConn(t, editor.New(editor.Options{}))
	if err := conn.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
	}
	if err := conn.PostMessage("app.echoToOE(1);", "*"); err == nil {
		t.Fatal("expected error posting on a closed connection")
	}
}

func TestScriptOverReadLimit(t *testing.T) {
	conn := newTestConn(t, editor.New(editor.Options{}), WithReadLimit(64))
	ch := channel.New(conn, conn, channel.WithTimeout(2*time.Second))
	defer ch.Close()

	resp, err := ch.SendCommand(context.Background(), script.Echo{Message: "small"})
	if err != nil || resp.Text() != "small" {
		t.Fatalf("small script = %v, %v", resp, err)
	}

	go func() {
		_, _ = ch.SendCommand(context.Background(), script.Echo{Message: strings.Repeat("x", 200)})
	}()
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("server kept a connection that sent an oversized script")
	}
	if conn.Err() == nil {
		t.Fatal("expected the close reason")
	}
}
