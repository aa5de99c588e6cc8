package host

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/revittco/pealink/internal/imageio"
)

const fileInput = `input[@type='file']`

// GalleryImage returns the first image shown in the gallery.
func (p *Page) GalleryImage(galleryID string) (imageio.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gallery, err := p.byID(galleryID)
	if err != nil {
		return imageio.File{}, err
	}
	img, err := p.find(gallery, ".//img")
	if err != nil {
		return imageio.File{}, fmt.Errorf("gallery %s is empty: %w", galleryID, err)
	}
	src, _ := attr(img, "src")
	name, _ := attr(img, "alt")
	if name == "" {
		name = "image.png"
	}
	f, err := imageio.DecodeDataURL(src, name)
	if err != nil {
		return imageio.File{}, fmt.Errorf("gallery %s image: %w", galleryID, err)
	}
	return f, nil
}

// SetGalleryImage replaces the gallery contents with f.
func (p *Page) SetGalleryImage(galleryID string, f imageio.File) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	gallery, err := p.byID(galleryID)
	if err != nil {
		return err
	}
	for c := gallery.FirstChild; c != nil; {
		next := c.NextSibling
		gallery.RemoveChild(c)
		c = next
	}
	gallery.AppendChild(&html.Node{
		Type: html.ElementNode,
		Data: "img",
		Attr: []html.Attribute{
			{Key: "src", Val: imageio.DataURL(f.MIME, f.Data)},
			{Key: "alt", Val: f.Name},
		},
	})
	p.mutated(gallery, false)
	return nil
}

// FileInput returns the first file input inside the element with
// containerID.
func (p *Page) FileInput(containerID string) (*html.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	container, err := p.byID(containerID)
	if err != nil {
		return nil, err
	}
	return p.find(container, ".//"+fileInput)
}

// InjectFile sets the input's file and fires a change notification.
func (p *Page) InjectFile(input *html.Node, f imageio.File) error {
	p.mu.Lock()
	if input == nil || input.Data != "input" {
		p.mu.Unlock()
		return fmt.Errorf("%w: file input", ErrNotFound)
	}
	if typ, _ := attr(input, "type"); typ != "file" {
		p.mu.Unlock()
		return fmt.Errorf("element is an input of type %q, not file", typ)
	}
	p.files[input] = f
	setAttr(input, "data-filename", f.Name)
	p.mutated(input, false)
	ev := ChangeEvent{InputID: nearestID(input), File: f}
	listeners := slices.Clone(p.onChange)
	p.mu.Unlock()

	p.logger.Debug("file injected", "input", ev.InputID, "name", f.Name, "bytes", len(f.Data))
	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

// InputFile returns the file held by the first file input inside
// containerID.
func (p *Page) InputFile(containerID string) (imageio.File, bool) {
	input, err := p.FileInput(containerID)
	if err != nil {
		return imageio.File{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[input]
	return f, ok
}

func (p *Page) checkbox(id string) (*html.Node, error) {
	container, err := p.byID(id)
	if err != nil {
		return nil, err
	}
	return p.find(container, ".//input[@type='checkbox']")
}

// ActiveLayerOnly reports whether only the active layer should be sent
// back from the editor.
func (p *Page) ActiveLayerOnly() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	box, err := p.checkbox(ActiveLayerOnlyID)
	if err != nil {
		return false
	}
	_, checked := attr(box, "checked")
	return checked
}

// SetActiveLayerOnly ticks or clears the active-layer-only checkbox.
func (p *Page) SetActiveLayerOnly(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	box, err := p.checkbox(ActiveLayerOnlyID)
	if err != nil {
		return err
	}
	if on {
		setAttr(box, "checked", "")
	} else {
		removeAttr(box, "checked")
	}
	p.mutated(box, false)
	return nil
}

// Frame height bounds of the editor iframe slider.
const (
	MinFrameHeight = 512
	MaxFrameHeight = 2160
)

// SetFrameHeight moves the height slider and resizes the editor iframe.
// The value is clamped to the slider range.
func (p *Page) SetFrameHeight(px int) (int, error) {
	px = max(MinFrameHeight, min(MaxFrameHeight, px))

	p.mu.Lock()
	defer p.mu.Unlock()
	container, err := p.byID(FrameHeightSliderID)
	if err != nil {
		return 0, err
	}
	slider, err := p.find(container, ".//input[@type='range']")
	if err != nil {
		return 0, err
	}
	frame, err := p.byID(EditorFrameID)
	if err != nil {
		return 0, err
	}
	setAttr(slider, "value", strconv.Itoa(px))
	setAttr(frame, "style", fmt.Sprintf("height: %dpx", px))
	p.mutated(slider, false)
	p.mutated(frame, false)
	return px, nil
}

// ScriptContainerID returns the id of the script container holding the
// ControlNet panel for tab. Only txt2img has its own; every other tab uses
// the img2img panel.
func ScriptContainerID(tab string) string {
	if tab == TabTxt2Img {
		return "txt2img_script_container"
	}
	return "img2img_script_container"
}

func controlNetPrefix(tab string) string {
	if tab == TabTxt2Img {
		return TabTxt2Img
	}
	return TabImg2Img
}

// SelectControlNetUnit clicks the unit tab for index inside tab's
// ControlNet panel and reports whether it did. Panels with a single unit
// have no tabs; out of range indexes leave the selection alone.
func (p *Page) SelectControlNetUnit(tab string, index int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	panel, err := p.controlNetPanel(tab)
	if err != nil {
		return false, err
	}
	tabs := htmlquery.Find(panel, "./"+tabNav+"/button")
	if len(tabs) < 2 || index < 0 || index >= len(tabs) {
		return false, nil
	}
	p.selectButton(tabs, tabs[index])
	return true, nil
}

// ControlNetSlot returns the image or mask file input of ControlNet unit
// index for tab.
func (p *Page) ControlNetSlot(tab string, index int, mask bool) (*html.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	panel, err := p.controlNetPanel(tab)
	if err != nil {
		return nil, err
	}
	kind := "input_image"
	if mask {
		kind = "mask_image"
	}
	id := fmt.Sprintf("%s_controlnet_ControlNet-%d_%s", controlNetPrefix(tab), index, kind)
	return p.find(panel, fmt.Sprintf(".//*[@id='%s']//%s", id, fileInput))
}

// controlNetPanel must be called with p.mu held.
func (p *Page) controlNetPanel(tab string) (*html.Node, error) {
	container, err := p.byID(ScriptContainerID(tab))
	if err != nil {
		return nil, err
	}
	return p.find(container, ".//div[@id='controlnet']")
}
