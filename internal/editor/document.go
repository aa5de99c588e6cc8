package editor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
)

// ErrLastLayer is returned when removing the only layer of a document.
var ErrLastLayer = errors.New("cannot remove the last layer")

// Layer is a raster layer. Pixels always cover the whole document.
type Layer struct {
	Name    string
	Visible bool
	Smart   bool
	Pix     *image.RGBA
}

// Document is an open editor document. Layers are ordered top first.
type Document struct {
	Name   string
	Width  int
	Height int
	Layers []*Layer

	active    *Layer
	selection *image.Alpha // nil when nothing is selected
}

// NewDocument creates a document with one opaque background layer.
func NewDocument(name string, w, h int, bg color.Color) *Document {
	d := &Document{Name: name, Width: w, Height: h}
	l := d.newLayer("Background")
	draw.Draw(l.Pix, l.Pix.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	d.Layers = []*Layer{l}
	d.active = l
	return d
}

// NewDocumentFromImage creates a document sized to img holding it as the
// only layer.
func NewDocumentFromImage(name string, img image.Image) *Document {
	b := img.Bounds()
	d := &Document{Name: name, Width: b.Dx(), Height: b.Dy()}
	l := d.newLayer("Background")
	draw.Draw(l.Pix, l.Pix.Bounds(), img, b.Min, draw.Src)
	d.Layers = []*Layer{l}
	d.active = l
	return d
}

func (d *Document) newLayer(name string) *Layer {
	return &Layer{
		Name:    name,
		Visible: true,
		Pix:     image.NewRGBA(image.Rect(0, 0, d.Width, d.Height)),
	}
}

func (d *Document) indexOf(l *Layer) int {
	for i, it := range d.Layers {
		if it == l {
			return i
		}
	}
	return -1
}

// Active returns the active layer.
func (d *Document) Active() *Layer {
	return d.active
}

// SetActive makes l the active layer if it belongs to d.
func (d *Document) SetActive(l *Layer) bool {
	if d.indexOf(l) < 0 {
		return false
	}
	d.active = l
	return true
}

// AddLayer inserts an empty layer above the active one and activates it.
func (d *Document) AddLayer(name string) *Layer {
	l := d.newLayer(name)
	i := d.indexOf(d.active)
	if i < 0 {
		i = 0
	}
	d.Layers = append(d.Layers[:i], append([]*Layer{l}, d.Layers[i:]...)...)
	d.active = l
	return l
}

// PlaceImage adds img as a new layer anchored at the top-left corner.
func (d *Document) PlaceImage(name string, img image.Image, smart bool) *Layer {
	l := d.AddLayer(name)
	l.Smart = smart
	draw.Draw(l.Pix, l.Pix.Bounds(), img, img.Bounds().Min, draw.Src)
	return l
}

// RemoveLayer deletes l. The layer below it, or else the new top layer,
// becomes active.
func (d *Document) RemoveLayer(l *Layer) error {
	i := d.indexOf(l)
	if i < 0 {
		return fmt.Errorf("layer %q is not in document %q", l.Name, d.Name)
	}
	if len(d.Layers) == 1 {
		return ErrLastLayer
	}
	d.Layers = append(d.Layers[:i], d.Layers[i+1:]...)
	if d.active == l {
		if i >= len(d.Layers) {
			i = len(d.Layers) - 1
		}
		d.active = d.Layers[i]
	}
	return nil
}

// Select replaces the selection with r, clipped to the canvas.
func (d *Document) Select(r image.Rectangle) {
	canvas := image.Rect(0, 0, d.Width, d.Height)
	r = r.Canon().Intersect(canvas)
	if r.Empty() {
		d.selection = nil
		return
	}
	m := image.NewAlpha(canvas)
	draw.Draw(m, r, image.Opaque, image.Point{}, draw.Src)
	d.selection = m
}

// SelectAll selects the whole canvas.
func (d *Document) SelectAll() {
	d.Select(image.Rect(0, 0, d.Width, d.Height))
}

// Deselect clears the selection.
func (d *Document) Deselect() {
	d.selection = nil
}

// InvertSelection flips the selection mask. Without a selection it is a
// no-op.
func (d *Document) InvertSelection() {
	if d.selection == nil {
		return
	}
	for i, a := range d.selection.Pix {
		d.selection.Pix[i] = 255 - a
	}
}

// SelectionBounds returns the bounding box of the selected pixels.
func (d *Document) SelectionBounds() (image.Rectangle, bool) {
	if d.selection == nil {
		return image.Rectangle{}, false
	}
	m := d.selection
	var r image.Rectangle
	found := false
	for y := 0; y < d.Height; y++ {
		row := m.Pix[y*m.Stride : y*m.Stride+d.Width]
		for x, a := range row {
			if a == 0 {
				continue
			}
			px := image.Rect(x, y, x+1, y+1)
			if !found {
				r, found = px, true
				continue
			}
			r = r.Union(px)
		}
	}
	return r, found
}

// Fill paints c into the active layer inside the selection, or everywhere
// when nothing is selected.
func (d *Document) Fill(c color.RGBA) {
	l := d.active
	if l == nil {
		return
	}
	src := image.NewUniform(c)
	if d.selection == nil {
		draw.Draw(l.Pix, l.Pix.Bounds(), src, image.Point{}, draw.Src)
		return
	}
	draw.DrawMask(l.Pix, l.Pix.Bounds(), src, image.Point{}, d.selection, image.Point{}, draw.Over)
}

// Composite flattens the visible layers.
func (d *Document) Composite() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for i := len(d.Layers) - 1; i >= 0; i-- {
		l := d.Layers[i]
		if !l.Visible {
			continue
		}
		draw.Draw(out, out.Bounds(), l.Pix, image.Point{}, draw.Over)
	}
	return out
}

// Encode flattens the document and encodes it as png or jpg.
func (d *Document) Encode(format string) ([]byte, error) {
	img := d.Composite()
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "jpg", "jpeg":
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, image.Point{}, draw.Over)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: 92}); err != nil {
			return nil, fmt.Errorf("encode jpg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}
