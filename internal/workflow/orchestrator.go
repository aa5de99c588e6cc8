// Package workflow drives multi-step exchanges between the host page and
// the remote editor: opening gallery images in the editor and sending
// exports, masks included, back to the host's inputs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/host"
	"github.com/revittco/pealink/internal/imageio"
	"github.com/revittco/pealink/internal/script"
	"github.com/revittco/pealink/internal/store"
)

// Sender sends one command and waits for its whole response.
// *channel.Channel satisfies it.
type Sender interface {
	SendCommand(ctx context.Context, cmd channel.Command) (channel.Response, error)
}

// ExportSink records images handed to the host. store.ExportStore
// satisfies it.
type ExportSink interface {
	CreateExport(ctx context.Context, e *store.Export) error
}

const defaultUITimeout = 2 * time.Second

// Orchestrator runs workflows. A workflow's commands are sent one after the
// other; separate workflows may run concurrently and still get their own
// responses.
type Orchestrator struct {
	ch        Sender
	page      *host.Page
	exports   ExportSink
	logger    *slog.Logger
	uiTimeout time.Duration
	minify    bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExports records every image injected into the host.
func WithExports(s ExportSink) Option {
	return func(o *Orchestrator) { o.exports = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithUITimeout bounds each wait for the host page to update. A wait that
// times out is logged and the workflow continues.
func WithUITimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.uiTimeout = d }
}

// WithMinify compiles every command script before it is sent.
func WithMinify(on bool) Option {
	return func(o *Orchestrator) { o.minify = on }
}

// New creates an Orchestrator sending through ch and acting on page.
func New(ch Sender, page *host.Page, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ch:        ch,
		page:      page,
		logger:    slog.Default(),
		uiTimeout: defaultUITimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "workflow")
	return o
}

// send sends cmd and turns a remote error marker into an error.
func (o *Orchestrator) send(ctx context.Context, cmd channel.Command) (channel.Response, error) {
	if o.minify {
		compiled, err := script.Minify(cmd)
		if err != nil {
			return nil, err
		}
		cmd = compiled
	}
	resp, err := o.ch.SendCommand(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	if err := script.RemoteError(resp); err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	return resp, nil
}

// alert shows msg in the editor. Failures are only logged.
func (o *Orchestrator) alert(ctx context.Context, msg string) {
	if _, err := o.send(ctx, script.Alert{Message: msg}); err != nil {
		o.logger.Warn("alert failed", "message", msg, "error", err)
	}
}

// exportImage saves the document, or only its active layer when the host
// asks for that.
func (o *Orchestrator) exportImage(ctx context.Context, name string) (imageio.File, error) {
	cmd := script.Export(o.page.ActiveLayerOnly(), script.PNG)
	resp, err := o.send(ctx, cmd)
	if err != nil {
		return imageio.File{}, err
	}
	data, err := script.ParseImage(resp)
	if err != nil {
		return imageio.File{}, fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	return imageio.File{Name: name, MIME: script.PNG.MIME(), Data: data}, nil
}

// selectionExists asks the editor whether the active document has a
// selection and alerts with msg when it does not.
func (o *Orchestrator) selectionExists(ctx context.Context, msg string) error {
	resp, err := o.send(ctx, script.SelectionExists{})
	if err != nil {
		return err
	}
	if !script.ParseBool(resp) {
		o.alert(ctx, msg)
		return ErrNoSelection
	}
	return nil
}

// extractMask turns the selection into a temporary mask layer, exports it
// and removes the layer again, whatever the export outcome.
func (o *Orchestrator) extractMask(ctx context.Context) (imageio.File, error) {
	if _, err := o.send(ctx, script.CreateMaskFromSelection{}); err != nil {
		return imageio.File{}, err
	}

	resp, exportErr := o.send(ctx, script.ExportActiveLayer{Format: script.PNG})

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.uiTimeout)
	defer cancel()
	if _, err := o.send(cleanupCtx, script.RemoveActiveLayer{}); err != nil {
		o.logger.Warn("remove mask layer", "error", err)
		if exportErr == nil {
			return imageio.File{}, err
		}
	}

	if exportErr != nil {
		return imageio.File{}, exportErr
	}
	data, err := script.ParseImage(resp)
	if err != nil {
		return imageio.File{}, fmt.Errorf("export mask: %w", err)
	}
	return imageio.File{Name: maskName, MIME: script.PNG.MIME(), Data: data}, nil
}

// settle observes rootID, runs action and, if it reports a change, waits
// for the page to update under rootID.
func (o *Orchestrator) settle(ctx context.Context, rootID string, action func() (bool, error)) error {
	obs, err := o.page.Observe(rootID)
	if err != nil {
		return o.targetErr(rootID, err)
	}
	changed, err := action()
	if err != nil || !changed {
		obs.Disconnect()
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, o.uiTimeout)
	defer cancel()
	if err := obs.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.logger.Warn("no page update observed", "root", rootID, "timeout", o.uiTimeout)
	}
	return nil
}

// inject puts f into input and records the export.
func (o *Orchestrator) inject(ctx context.Context, workflow, target string, input inputFinder, f imageio.File) error {
	node, err := input()
	if err != nil {
		return o.targetErr(target, err)
	}
	if err := o.page.InjectFile(node, f); err != nil {
		return o.targetErr(target, err)
	}
	o.logger.Info("image sent to host", "workflow", workflow, "target", target, "name", f.Name, "bytes", len(f.Data))
	o.record(ctx, workflow, target, f)
	return nil
}

// record stores f in the export sink. Failures are only logged.
func (o *Orchestrator) record(ctx context.Context, workflow, target string, f imageio.File) {
	if o.exports == nil {
		return
	}
	e := &store.Export{
		Workflow: workflow,
		Target:   target,
		Name:     f.Name,
		MIME:     f.MIME,
		Data:     f.Data,
	}
	if w, h, err := imageio.Dimensions(f.Data); err == nil {
		e.Width, e.Height = w, h
	}
	if err := o.exports.CreateExport(ctx, e); err != nil {
		o.logger.Warn("record export", "workflow", workflow, "target", target, "error", err)
	}
}

// targetErr wraps host lookup failures in ErrTargetNotFound.
func (o *Orchestrator) targetErr(target string, err error) error {
	if !errors.Is(err, host.ErrNotFound) || errors.Is(err, ErrTargetNotFound) {
		return err
	}
	o.logger.Error("host target not found", "target", target, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrTargetNotFound, target, err)
}
