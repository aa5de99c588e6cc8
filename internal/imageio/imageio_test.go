package imageio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDataURLRoundTrip(t *testing.T) {
	data := testPNG(t, 3, 2)
	u := DataURL("", data)
	if u[:22] != "data:image/png;base64," {
		t.Fatalf("prefix = %q", u[:22])
	}

	f, err := DecodeDataURL(u, "out.png")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Name != "out.png" || f.MIME != "image/png" || !bytes.Equal(f.Data, data) {
		t.Fatalf("file = %s %s %d bytes", f.Name, f.MIME, len(f.Data))
	}

	w, h, err := Dimensions(f.Data)
	if err != nil || w != 3 || h != 2 {
		t.Fatalf("dimensions = %d,%d,%v", w, h, err)
	}
}

func TestDecodeDataURLVariants(t *testing.T) {
	f, err := DecodeDataURL("data:,hello%20world", "t.txt")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.MIME != "text/plain" || string(f.Data) != "hello world" {
		t.Fatalf("file = %q %q", f.MIME, f.Data)
	}

	if _, err := DecodeDataURL("https://example.com/a.png", "a"); !errors.Is(err, ErrNotDataURL) {
		t.Fatalf("err = %v, want ErrNotDataURL", err)
	}
	if _, err := DecodeDataURL("data:image/png;base64,@@@", "a"); err == nil {
		t.Fatal("expected base64 error")
	}
}

func TestFileToDataURL(t *testing.T) {
	f := NewFile("a.png", testPNG(t, 1, 1))
	if f.MIME != "image/png" {
		t.Fatalf("mime = %q", f.MIME)
	}
	u, err := FileToDataURL(context.Background(), f)
	if err != nil {
		t.Fatalf("to data url: %v", err)
	}
	if u != DataURL("image/png", f.Data) {
		t.Fatal("mismatch with DataURL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FileToDataURL(ctx, f); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
}
