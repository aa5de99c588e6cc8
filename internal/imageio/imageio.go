// Package imageio converts images between data URLs, files and raw bytes.
package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"net/http"
	"net/url"
	"strings"
)

// ErrNotDataURL is returned when a string is not a data: URL.
var ErrNotDataURL = errors.New("not a data URL")

// File is an in-memory file as handed to host file inputs.
type File struct {
	Name string
	MIME string
	Data []byte
}

// NewFile builds a File, sniffing the MIME type from data.
func NewFile(name string, data []byte) File {
	return File{Name: name, MIME: Sniff(data), Data: data}
}

// DataURL encodes data as a base64 data URL.
func DataURL(mime string, data []byte) string {
	if mime == "" {
		mime = Sniff(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a data URL into a File named name.
func DecodeDataURL(s, name string) (File, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return File{}, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return File{}, fmt.Errorf("%w: missing comma", ErrNotDataURL)
	}

	mime := "text/plain"
	isBase64 := false
	if meta != "" {
		parts := strings.Split(meta, ";")
		if parts[0] != "" {
			mime = parts[0]
		}
		for _, p := range parts[1:] {
			if p == "base64" {
				isBase64 = true
			}
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return File{}, fmt.Errorf("decode base64: %w", err)
			}
		}
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return File{}, fmt.Errorf("unescape data: %w", err)
		}
		data = []byte(unescaped)
	}
	return File{Name: name, MIME: mime, Data: data}, nil
}

// FileToDataURL encodes f as a data URL. Large files are encoded off the
// caller's goroutine so ctx can cut the wait short.
func FileToDataURL(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out := make(chan string, 1)
	go func() { out <- DataURL(f.MIME, f.Data) }()
	select {
	case s := <-out:
		return s, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Sniff returns the MIME type of data.
func Sniff(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}

// Dimensions returns the pixel size of an encoded PNG or JPEG image.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Decode decodes an encoded PNG or JPEG image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
