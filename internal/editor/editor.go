// Package editor is an in-process stand-in for the remote image editor. It
// runs command scripts in a JavaScript runtime against a small layered
// document model and answers like the real editor does: zero or more
// payloads followed by the "done" terminator.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/revittco/pealink/internal/channel"
)

// Options configures an Editor.
type Options struct {
	// Size of the initial blank document.
	Width  int
	Height int

	ScriptTimeout time.Duration // 0 disables the limit
	Logger        *slog.Logger
}

// Editor executes scripts one at a time.
type Editor struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	opts   Options
	logger *slog.Logger

	docs   []*Document
	active *Document
	alerts []string
	echoes []string
	seq    int

	reply  func(channel.Payload)
	docObj map[*Document]*goja.Object
	lyrObj map[*Layer]*goja.Object
	selObj map[*Document]*goja.Object
}

// New creates an editor with one blank white document open.
func New(opts Options) *Editor {
	if opts.Width <= 0 {
		opts.Width = 512
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Editor{
		vm:     goja.New(),
		opts:   opts,
		logger: opts.Logger.With("component", "editor"),
		docObj: make(map[*Document]*goja.Object),
		lyrObj: make(map[*Layer]*goja.Object),
		selObj: make(map[*Document]*goja.Object),
	}
	e.openDocument(NewDocument(e.nextName(), opts.Width, opts.Height, color.White))
	e.install()
	return e
}

func (e *Editor) nextName() string {
	e.seq++
	return fmt.Sprintf("Untitled-%d", e.seq)
}

func (e *Editor) openDocument(d *Document) {
	e.docs = append(e.docs, d)
	e.active = d
}

// Execute runs src to completion, passing every reply to reply and finally
// the terminator. Script failures are reported as an "error: ..." text
// payload before the terminator.
func (e *Editor) Execute(src string, reply func(channel.Payload)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reply = reply
	defer func() { e.reply = nil }()

	if e.opts.ScriptTimeout > 0 {
		t := time.AfterFunc(e.opts.ScriptTimeout, func() {
			e.vm.Interrupt("script timeout")
		})
		defer func() {
			t.Stop()
			e.vm.ClearInterrupt()
		}()
	}

	if _, err := e.vm.RunString(src); err != nil {
		msg := scriptError(err)
		e.logger.Warn("script failed", "error", msg)
		reply(channel.Text("error: " + msg))
	}
	reply(channel.Text(channel.Terminator))
}

func scriptError(err error) string {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return fmt.Sprint(ie.Value())
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.Value().String()
	}
	return err.Error()
}

// Serve executes scripts from in, in order, until ctx ends or in closes.
// Each script's full reply sequence is delivered before the next starts.
func (e *Editor) Serve(ctx context.Context, in <-chan string, reply func(channel.Payload)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case src, ok := <-in:
			if !ok {
				return nil
			}
			e.Execute(src, reply)
		}
	}
}

func (e *Editor) emit(p channel.Payload) {
	if e.reply != nil {
		e.reply(p)
	}
}

// ActiveDocument returns the active document, or nil.
func (e *Editor) ActiveDocument() *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Documents returns the number of open documents.
func (e *Editor) Documents() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.docs)
}

// Alerts returns the messages shown with alert(), oldest first.
func (e *Editor) Alerts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.alerts...)
}

// Echoes returns the messages written with app.echo(), oldest first.
func (e *Editor) Echoes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.echoes...)
}

// Do runs fn against the editor state while holding its lock.
func (e *Editor) Do(fn func(active *Document)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.active)
}
