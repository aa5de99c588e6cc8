package host

import (
	"context"
	"sync"

	"golang.org/x/net/html"
)

// Observer fires once, on the first mutation inside its root after it was
// created.
type Observer struct {
	page  *Page
	root  *html.Node
	fired chan struct{}
	once  sync.Once
}

// Observe starts watching the subtree of the element with rootID. Take the
// observer before triggering the change it is meant to see.
func (p *Page) Observe(rootID string) (*Observer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	root, err := p.byID(rootID)
	if err != nil {
		return nil, err
	}
	o := &Observer{page: p, root: root, fired: make(chan struct{})}
	p.observers = append(p.observers, o)
	return o, nil
}

// Wait blocks until the observer fires or ctx ends. The observer is
// disconnected either way.
func (o *Observer) Wait(ctx context.Context) error {
	select {
	case <-o.fired:
		return nil
	case <-ctx.Done():
		o.Disconnect()
		return ctx.Err()
	}
}

// Disconnect stops the observer without waiting for it.
func (o *Observer) Disconnect() {
	o.page.mu.Lock()
	o.page.disconnect(o)
	o.page.mu.Unlock()
}

// WaitForMutation resolves after the next mutation under rootID.
func (p *Page) WaitForMutation(ctx context.Context, rootID string) error {
	o, err := p.Observe(rootID)
	if err != nil {
		return err
	}
	return o.Wait(ctx)
}

// disconnect must be called with p.mu held.
func (p *Page) disconnect(o *Observer) {
	for i, it := range p.observers {
		if it == o {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// mutated fires observers whose subtree contains n. With render set, n was
// re-rendered, so observers rooted anywhere below n fire as well. Must be
// called with p.mu held.
func (p *Page) mutated(n *html.Node, render bool) {
	kept := p.observers[:0]
	for _, o := range p.observers {
		if contains(o.root, n) || (render && contains(n, o.root)) {
			o.once.Do(func() { close(o.fired) })
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(p.observers); i++ {
		p.observers[i] = nil
	}
	p.observers = kept
}
