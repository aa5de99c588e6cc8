// Package window provides the host side of the cross-context message
// channel: a Window whose message listeners run one event at a time, and a
// Frame hosting an editor that answers PostMessage calls.
package window

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/editor"
)

// Window is an in-process host window. Dispatched events are delivered to
// every listener in registration order on a single goroutine.
type Window struct {
	mu        sync.RWMutex
	listeners []func(channel.MessageEvent)
	events    *loop
	logger    *slog.Logger
}

// New starts a window event loop.
func New(logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	return &Window{
		events: startLoop(),
		logger: logger.With("component", "window"),
	}
}

// AddMessageListener subscribes fn to message events.
func (w *Window) AddMessageListener(fn func(channel.MessageEvent)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Dispatch queues ev for delivery. Events posted after Close are dropped.
func (w *Window) Dispatch(ev channel.MessageEvent) {
	ok := w.events.post(func() {
		w.mu.RLock()
		ls := slices.Clone(w.listeners)
		w.mu.RUnlock()
		for _, fn := range ls {
			fn(ev)
		}
	})
	if !ok {
		w.logger.Debug("window closed, message dropped", "payload", ev.Data.String())
	}
}

// Close stops the event loop.
func (w *Window) Close() {
	w.events.close()
}

// Frame is an embedded remote context. Messages posted to it run as
// editor scripts in arrival order; replies are dispatched to the parent
// window with the frame as their source.
type Frame struct {
	parent *Window
	editor *editor.Editor
	origin string
	inbox  *loop
	logger *slog.Logger

	closeOnce sync.Once
}

// FrameOption configures a Frame.
type FrameOption func(*Frame)

// WithOrigin sets the frame's origin. Messages posted with a target origin
// other than "*" or this origin are dropped.
func WithOrigin(origin string) FrameOption {
	return func(f *Frame) { f.origin = origin }
}

// WithFrameLogger sets the frame logger.
func WithFrameLogger(l *slog.Logger) FrameOption {
	return func(f *Frame) { f.logger = l }
}

// NewFrame embeds ed in parent.
func NewFrame(parent *Window, ed *editor.Editor, opts ...FrameOption) *Frame {
	f := &Frame{
		parent: parent,
		editor: ed,
		origin: "https://www.photopea.com",
		inbox:  startLoop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	f.logger = f.logger.With("component", "frame", "origin", f.origin)
	return f
}

// PostMessage queues msg for execution. Like the browser, a mismatched
// target origin drops the message without an error.
func (f *Frame) PostMessage(msg, targetOrigin string) error {
	if targetOrigin != "*" && targetOrigin != f.origin {
		f.logger.Debug("target origin mismatch, message dropped", "target_origin", targetOrigin)
		return nil
	}
	ok := f.inbox.post(func() {
		f.editor.Execute(msg, func(p channel.Payload) {
			f.parent.Dispatch(channel.MessageEvent{Source: f, Data: p})
		})
	})
	if !ok {
		f.logger.Debug("frame closed, message dropped")
	}
	return nil
}

// Editor returns the editor running in the frame.
func (f *Frame) Editor() *editor.Editor {
	return f.editor
}

// Close stops executing posted messages. Queued scripts are discarded.
func (f *Frame) Close() {
	f.closeOnce.Do(f.inbox.close)
}
