package host

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const tabNav = `div[contains(concat(' ', normalize-space(@class), ' '), ' tab-nav ')]`

func text(n *html.Node) string {
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// SwitchTab shows the top-level tab with the given id or button label.
func (p *Page) SwitchTab(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	buttons := htmlquery.Find(p.root, "//div[@id='tabs']/"+tabNav+"/button")
	var target *html.Node
	for _, b := range buttons {
		id, _ := attr(b, "data-tab")
		if id == name || text(b) == name {
			target = b
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: tab %q", ErrNotFound, name)
	}

	for _, b := range buttons {
		setClass(b, "selected", b == target)
		id, _ := attr(b, "data-tab")
		content, err := p.byID("tab_" + id)
		if err != nil {
			continue
		}
		if b == target {
			removeAttr(content, "style")
			p.mutated(content, true)
		} else {
			setAttr(content, "style", "display: none")
		}
	}
	p.mutated(target, false)
	p.logger.Debug("switched tab", "tab", name)
	return nil
}

// ActiveTab returns the id of the visible top-level tab.
func (p *Page) ActiveTab() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range htmlquery.Find(p.root, "//div[@id='tabs']/"+tabNav+"/button") {
		if hasClass(b, "selected") {
			id, _ := attr(b, "data-tab")
			return id
		}
	}
	return ""
}

// SwitchSubTab clicks the tab button labelled label inside rootID.
func (p *Page) SwitchSubTab(rootID, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	root, err := p.byID(rootID)
	if err != nil {
		return err
	}
	buttons := htmlquery.Find(root, ".//"+tabNav+"/button")
	for _, b := range buttons {
		if text(b) == label {
			p.selectButton(buttons, b)
			return nil
		}
	}
	return fmt.Errorf("%w: tab %q in #%s", ErrNotFound, label, rootID)
}

// SubTab returns the label of the selected tab button inside rootID.
func (p *Page) SubTab(rootID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	root, err := p.byID(rootID)
	if err != nil {
		return "", err
	}
	for _, b := range htmlquery.Find(root, ".//"+tabNav+"/button") {
		if hasClass(b, "selected") {
			return text(b), nil
		}
	}
	return "", fmt.Errorf("%w: selected tab in #%s", ErrNotFound, rootID)
}

// selectButton must be called with p.mu held.
func (p *Page) selectButton(group []*html.Node, target *html.Node) {
	for _, b := range group {
		setClass(b, "selected", b == target)
	}
	p.mutated(target, false)
}

// AddButton appends a button to the element with containerID. Clicking it
// runs fn.
func (p *Page) AddButton(containerID, id, title, label string, fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.byID(id); err == nil {
		return fmt.Errorf("button #%s already exists", id)
	}
	container, err := p.byID(containerID)
	if err != nil {
		return err
	}
	btn := &html.Node{
		Type: html.ElementNode,
		Data: "button",
		Attr: []html.Attribute{
			{Key: "id", Val: id},
			{Key: "title", Val: title},
			{Key: "style", Val: "display: flex"},
		},
	}
	btn.AppendChild(&html.Node{Type: html.TextNode, Data: label})
	container.AppendChild(btn)
	p.onClick[btn] = fn
	p.mutated(container, false)
	return nil
}

// Click runs the handler of the button with the given id.
func (p *Page) Click(id string) error {
	p.mu.Lock()
	btn, err := p.byID(id)
	var fn func()
	if err == nil {
		fn = p.onClick[btn]
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if fn != nil {
		fn()
	}
	return nil
}
