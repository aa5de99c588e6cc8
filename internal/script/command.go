// Package script holds the catalogue of commands sent to the remote editor
// and the single place where they are turned into script text.
package script

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/revittco/pealink/internal/channel"
)

// Format is an export file format accepted by saveToOE.
type Format string

const (
	PNG Format = "png"
	JPG Format = "jpg"
)

// ParseFormat validates an export format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPG, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// MIME returns the content type the editor produces for f.
func (f Format) MIME() string {
	if f == JPG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) orDefault() Format {
	if f == "" {
		return PNG
	}
	return f
}

// Command is a remote editor command. Every variant implements
// channel.Command.
type Command = channel.Command

// DocumentSize replies with "width,height" of the active document.
type DocumentSize struct{}

func (DocumentSize) Kind() string   { return "document_size" }
func (DocumentSize) Script() string { return activeDocumentSize }

// SelectionExists replies with "true" or "false".
type SelectionExists struct{}

func (SelectionExists) Kind() string   { return "selection_exists" }
func (SelectionExists) Script() string { return selectionExists }

// ExportActiveLayer hides every layer but the active one, exports, and
// restores visibility. Replies with the encoded image.
type ExportActiveLayer struct {
	Format Format
}

func (ExportActiveLayer) Kind() string { return "export_active_layer" }
func (c ExportActiveLayer) Script() string {
	return fmt.Sprintf(exportSelectedLayerOnly, Quote(string(c.Format.orDefault())))
}

// CreateMaskFromSelection adds a "TempMaskLayer" that is white inside the
// selection and black outside it, and makes it the active layer.
type CreateMaskFromSelection struct{}

func (CreateMaskFromSelection) Kind() string   { return "create_mask" }
func (CreateMaskFromSelection) Script() string { return createMaskFromSelection }

// Save exports the flattened document. Replies with the encoded image.
type Save struct {
	Format Format
}

func (Save) Kind() string { return "save" }
func (c Save) Script() string {
	return fmt.Sprintf("app.activeDocument.saveToOE(%s);", Quote(string(c.Format.orDefault())))
}

// Open loads an image from a data URL. With AsSmart it is placed into the
// active document; otherwise a new document is created.
type Open struct {
	DataURL string
	AsSmart bool
}

func (Open) Kind() string { return "open" }
func (c Open) Script() string {
	return fmt.Sprintf("app.open(%s, null, %t);", Quote(c.DataURL), c.AsSmart)
}

// Rasterize rasterizes the active layer.
type Rasterize struct{}

func (Rasterize) Kind() string   { return "rasterize" }
func (Rasterize) Script() string { return "app.activeDocument.activeLayer.rasterize();" }

// RemoveActiveLayer deletes the active layer.
type RemoveActiveLayer struct{}

func (RemoveActiveLayer) Kind() string   { return "remove_layer" }
func (RemoveActiveLayer) Script() string { return "app.activeDocument.activeLayer.remove();" }

// Alert shows a message inside the editor.
type Alert struct {
	Message string
}

func (Alert) Kind() string     { return "alert" }
func (c Alert) Script() string { return fmt.Sprintf("alert(%s);", Quote(c.Message)) }

// Echo replies with Message.
type Echo struct {
	Message string
}

func (Echo) Kind() string     { return "echo" }
func (c Echo) Script() string { return fmt.Sprintf("app.echoToOE(%s);", Quote(c.Message)) }

// Raw sends Source unchanged.
type Raw struct {
	Source string
}

func (Raw) Kind() string     { return "raw" }
func (c Raw) Script() string { return c.Source }

// Export returns the export command for the active-layer-only setting.
func Export(activeLayerOnly bool, f Format) Command {
	if activeLayerOnly {
		return ExportActiveLayer{Format: f}
	}
	return Save{Format: f}
}

// Quote returns s as a script string literal.
func Quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail.
		panic(err)
	}
	return string(b)
}

var named = map[string]func() Command{
	"size":         func() Command { return DocumentSize{} },
	"selection":    func() Command { return SelectionExists{} },
	"save":         func() Command { return Save{Format: PNG} },
	"save-jpg":     func() Command { return Save{Format: JPG} },
	"export-layer": func() Command { return ExportActiveLayer{Format: PNG} },
	"mask":         func() Command { return CreateMaskFromSelection{} },
	"rasterize":    func() Command { return Rasterize{} },
	"remove-layer": func() Command { return RemoveActiveLayer{} },
}

// Named looks up a parameterless catalogue command by name.
func Named(name string) (Command, error) {
	fn, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("unknown command %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return fn(), nil
}

// Names lists the catalogue command names.
func Names() []string {
	out := make([]string, 0, len(named))
	for n := range named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
