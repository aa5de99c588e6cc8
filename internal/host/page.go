// Package host models the WebUI page that embeds the editor: tabs,
// galleries, file inputs and the ControlNet panels, held as an HTML tree
// and queried with XPath.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/revittco/pealink/internal/imageio"
)

// ErrNotFound is returned when a page element cannot be located.
var ErrNotFound = errors.New("element not found")

// Tab ids understood by SwitchTab, which also accepts tab button labels.
const (
	TabTxt2Img = "txt2img"
	TabImg2Img = "img2img"
	TabExtras  = "extras"
	TabEditor  = "photopea_embed"
)

// Element ids used by the editor integration.
const (
	EditorFrameID       = "webui-photopea-iframe"
	ActiveLayerOnlyID   = "photopea-use-active-layer-only"
	FrameHeightSliderID = "photopeaIframeSlider"
	InpaintBaseID       = "img_inpaint_base"
	InpaintMaskID       = "img_inpaint_mask"
	InpaintUploadLabel  = "Inpaint upload"
)

// Options controls the generated page.
type Options struct {
	// ControlNet adds ControlNet panels to the txt2img and img2img script
	// containers.
	ControlNet bool
	// ControlNetUnits is the number of ControlNet units per panel.
	ControlNetUnits int
	EditorURL       string
	Logger          *slog.Logger
}

// ChangeEvent reports a file injected into an input.
type ChangeEvent struct {
	// InputID is the id of the nearest ancestor of the input carrying one.
	InputID string
	File    imageio.File
}

// Page is the host document. All methods are safe for concurrent use.
type Page struct {
	mu        sync.Mutex
	root      *html.Node
	opts      Options
	logger    *slog.Logger
	files     map[*html.Node]imageio.File
	observers []*Observer
	onChange  []func(ChangeEvent)
	onClick   map[*html.Node]func()
}

// NewPage builds the page markup and parses it.
func NewPage(opts Options) (*Page, error) {
	if opts.ControlNetUnits <= 0 {
		opts.ControlNetUnits = 1
	}
	if opts.EditorURL == "" {
		opts.EditorURL = "https://www.photopea.com/"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	root, err := html.Parse(strings.NewReader(markup(opts)))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{
		root:    root,
		opts:    opts,
		logger:  opts.Logger.With("component", "host"),
		files:   make(map[*html.Node]imageio.File),
		onClick: make(map[*html.Node]func()),
	}, nil
}

// HTML renders the current document.
func (p *Page) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return htmlquery.OutputHTML(p.root, true)
}

// OnChange registers fn for file injections.
func (p *Page) OnChange(fn func(ChangeEvent)) {
	p.mu.Lock()
	p.onChange = append(p.onChange, fn)
	p.mu.Unlock()
}

func (p *Page) byID(id string) (*html.Node, error) {
	if strings.ContainsAny(id, `'"`) {
		return nil, fmt.Errorf("%w: #%s", ErrNotFound, id)
	}
	return p.find(p.root, fmt.Sprintf("//*[@id='%s']", id))
}

func (p *Page) find(top *html.Node, xpath string) (*html.Node, error) {
	n, err := htmlquery.Query(top, xpath)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", xpath, err)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, xpath)
	}
	return n, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func setClass(n *html.Node, class string, on bool) {
	v, _ := attr(n, "class")
	var out []string
	for _, c := range strings.Fields(v) {
		if c != class {
			out = append(out, c)
		}
	}
	if on {
		out = append(out, class)
	}
	if len(out) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(out, " "))
}

func nearestID(n *html.Node) string {
	for ; n != nil; n = n.Parent {
		if id, ok := attr(n, "id"); ok {
			return id
		}
	}
	return ""
}

func contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
