package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
)

func run(t *testing.T, e *Editor, cmd script.Command) channel.Response {
	t.Helper()
	var got []channel.Payload
	e.Execute(cmd.Script(), func(p channel.Payload) { got = append(got, p) })
	if len(got) == 0 || !got[len(got)-1].IsTerminator() {
		t.Fatalf("%s: reply did not end with terminator: %v", cmd.Kind(), got)
	}
	return channel.Response(got[:len(got)-1])
}

func TestDocumentSize(t *testing.T) {
	e := New(Options{Width: 640, Height: 480})
	resp := run(t, e, script.DocumentSize{})
	if resp.Text() != "640,480" {
		t.Fatalf("size = %q", resp.Text())
	}
	w, h, err := script.ParseSize(resp)
	if err != nil || w != 640 || h != 480 {
		t.Fatalf("ParseSize = %d,%d,%v", w, h, err)
	}
}

func TestSelectionExists(t *testing.T) {
	e := New(Options{})
	if script.ParseBool(run(t, e, script.SelectionExists{})) {
		t.Fatal("fresh document should have no selection")
	}
	run(t, e, script.Raw{Source: "app.activeDocument.selection.selectAll();"})
	if !script.ParseBool(run(t, e, script.SelectionExists{})) {
		t.Fatal("expected selection after selectAll")
	}
	run(t, e, script.Raw{Source: "app.activeDocument.selection.deselect();"})
	if script.ParseBool(run(t, e, script.SelectionExists{})) {
		t.Fatal("expected no selection after deselect")
	}
}

func TestSaveProducesImage(t *testing.T) {
	e := New(Options{Width: 32, Height: 16})
	data, err := script.ParseImage(run(t, e, script.Save{}))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	w, h, err := imageio.Dimensions(data)
	if err != nil || w != 32 || h != 16 {
		t.Fatalf("dimensions = %d,%d,%v", w, h, err)
	}

	jpg, err := script.ParseImage(run(t, e, script.Save{Format: script.JPG}))
	if err != nil {
		t.Fatalf("save jpg: %v", err)
	}
	if imageio.Sniff(jpg) != "image/jpeg" {
		t.Fatalf("mime = %s", imageio.Sniff(jpg))
	}
}

func TestMaskFromSelection(t *testing.T) {
	e := New(Options{Width: 40, Height: 40})
	e.Do(func(d *Document) { d.Select(image.Rect(10, 10, 30, 30)) })

	if resp := run(t, e, script.CreateMaskFromSelection{}); len(resp) != 0 {
		t.Fatalf("create mask replied %v", resp)
	}
	doc := e.ActiveDocument()
	if len(doc.Layers) != 2 || doc.Active().Name != "TempMaskLayer" {
		t.Fatalf("layers = %d, active = %q", len(doc.Layers), doc.Active().Name)
	}

	data, err := script.ParseImage(run(t, e, script.ExportActiveLayer{Format: script.PNG}))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, _ := img.At(20, 20).RGBA(); r>>8 != 255 {
		t.Fatalf("inside selection r = %d, want 255", r>>8)
	}
	if r, _, _, a := img.At(2, 2).RGBA(); r != 0 || a>>8 != 255 {
		t.Fatalf("outside selection = r %d a %d, want opaque black", r, a>>8)
	}
	for _, l := range doc.Layers {
		if !l.Visible {
			t.Fatalf("layer %q left hidden after export", l.Name)
		}
	}

	run(t, e, script.RemoveActiveLayer{})
	if len(doc.Layers) != 1 || doc.Active().Name != "Background" {
		t.Fatalf("after remove: layers = %d active = %q", len(doc.Layers), doc.Active().Name)
	}
}

func TestMaskWithoutSelectionFillsLayer(t *testing.T) {
	e := New(Options{Width: 8, Height: 8})
	run(t, e, script.CreateMaskFromSelection{})
	doc := e.ActiveDocument()
	// The selection object is never null, so the script still adds a layer
	// and fills it entirely with the last color.
	if len(doc.Layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(doc.Layers))
	}
	if c := doc.Active().Pix.RGBAAt(0, 0); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("fill = %v, want white", c)
	}
}

func TestOpen(t *testing.T) {
	e := New(Options{Width: 64, Height: 64})

	src := image.NewRGBA(image.Rect(0, 0, 16, 8))
	src.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	url := imageio.DataURL("image/png", buf.Bytes())

	run(t, e, script.Open{DataURL: url, AsSmart: true})
	doc := e.ActiveDocument()
	if e.Documents() != 1 || len(doc.Layers) != 2 || !doc.Active().Smart {
		t.Fatalf("smart open: docs=%d layers=%d", e.Documents(), len(doc.Layers))
	}
	run(t, e, script.Rasterize{})
	if doc.Active().Smart {
		t.Fatal("rasterize should clear smart flag")
	}

	run(t, e, script.Open{DataURL: url})
	if e.Documents() != 2 {
		t.Fatalf("documents = %d, want 2", e.Documents())
	}
	if resp := run(t, e, script.DocumentSize{}); resp.Text() != "16,8" {
		t.Fatalf("new document size = %q", resp.Text())
	}
}

func TestScriptErrors(t *testing.T) {
	e := New(Options{ScriptTimeout: 50 * time.Millisecond})

	resp := run(t, e, script.Raw{Source: "noSuchFunction();"})
	if len(resp) != 1 || !strings.HasPrefix(resp[0].Text, "error: ReferenceError") {
		t.Fatalf("resp = %v", resp)
	}

	resp = run(t, e, script.Raw{Source: "while (true) {}"})
	if len(resp) != 1 || !strings.Contains(resp[0].Text, "script timeout") {
		t.Fatalf("resp = %v", resp)
	}

	// The runtime is usable after an interrupt.
	if resp := run(t, e, script.Echo{Message: "ok"}); resp.Text() != "ok" {
		t.Fatalf("echo after timeout = %v", resp)
	}

	resp = run(t, e, script.Raw{Source: `app.activeDocument.saveToOE("gif");`})
	if err := script.RemoteError(resp); err == nil {
		t.Fatal("expected remote error for gif export")
	}
}

func TestAlertAndEcho(t *testing.T) {
	e := New(Options{})
	run(t, e, script.Alert{Message: "No selection in active document!"})
	run(t, e, script.Raw{Source: `app.echo("hello");`})
	if got := e.Alerts(); len(got) != 1 || got[0] != "No selection in active document!" {
		t.Fatalf("alerts = %v", got)
	}
	if got := e.Echoes(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("echoes = %v", got)
	}
}

func TestServeInOrder(t *testing.T) {
	e := New(Options{})
	in := make(chan string, 3)
	in <- script.Echo{Message: "one"}.Script()
	in <- script.Echo{Message: "two"}.Script()
	in <- script.Rasterize{}.Script()
	close(in)

	var got []string
	err := e.Serve(context.Background(), in, func(p channel.Payload) {
		got = append(got, p.Text)
	})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	want := []string{"one", "done", "two", "done", "done"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("replies = %v, want %v", got, want)
	}
}
