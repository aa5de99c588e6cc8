//go:build js && wasm

package window

import (
	"errors"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/revittco/pealink/internal/channel"
)

// BrowserWindow is the page's global window object.
type BrowserWindow struct {
	mu     sync.Mutex
	frames []*BrowserFrame
	funcs  []js.Func
}

// NewBrowserWindow wraps js.Global().
func NewBrowserWindow() *BrowserWindow {
	return &BrowserWindow{}
}

// BrowserFrame is an iframe's content window.
type BrowserFrame struct {
	iframe js.Value
}

// Frame looks up an iframe by CSS selector and registers it as a known
// message source.
func (w *BrowserWindow) Frame(selector string) (*BrowserFrame, error) {
	el := js.Global().Get("document").Call("querySelector", selector)
	if el.IsNull() || el.IsUndefined() {
		return nil, fmt.Errorf("iframe %q not found", selector)
	}
	f := &BrowserFrame{iframe: el}
	w.mu.Lock()
	w.frames = append(w.frames, f)
	w.mu.Unlock()
	return f, nil
}

// PostMessage calls contentWindow.postMessage(msg, targetOrigin).
func (f *BrowserFrame) PostMessage(msg, targetOrigin string) error {
	cw := f.iframe.Get("contentWindow")
	if cw.IsNull() || cw.IsUndefined() {
		return errors.New("iframe has no content window")
	}
	cw.Call("postMessage", msg, targetOrigin)
	return nil
}

// foreign stands in for message sources that are not registered frames.
type foreign struct{}

func (foreign) PostMessage(string, string) error { return errors.New("foreign source") }

// AddMessageListener subscribes fn to the window "message" event.
func (w *BrowserWindow) AddMessageListener(fn func(channel.MessageEvent)) {
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		fn(channel.MessageEvent{Source: w.source(ev.Get("source")), Data: payload(ev.Get("data"))})
		return nil
	})
	w.mu.Lock()
	w.funcs = append(w.funcs, cb)
	w.mu.Unlock()
	js.Global().Call("addEventListener", "message", cb)
}

func (w *BrowserWindow) source(src js.Value) channel.Endpoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, f := range w.frames {
		if src.Equal(f.iframe.Get("contentWindow")) {
			return f
		}
	}
	return foreign{}
}

func payload(data js.Value) channel.Payload {
	if data.Type() == js.TypeString {
		return channel.Text(data.String())
	}
	if data.InstanceOf(js.Global().Get("ArrayBuffer")) {
		arr := js.Global().Get("Uint8Array").New(data)
		b := make([]byte, arr.Length())
		js.CopyBytesToGo(b, arr)
		return channel.Binary(b)
	}
	return channel.Text(js.Global().Get("String").Invoke(data).String())
}

// Close removes the registered listeners.
func (w *BrowserWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, cb := range w.funcs {
		js.Global().Call("removeEventListener", "message", cb)
		cb.Release()
	}
	w.funcs = nil
}
