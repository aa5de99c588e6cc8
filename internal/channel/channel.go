// Package channel implements request/response messaging with a remote
// scripting context that only offers a raw message channel.
//
// Requests are answered strictly in send order. Every inbound message from
// the remote goes to the oldest pending request, which accumulates payloads
// until it sees the "done" terminator.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Endpoint is the handle of the remote context's window. Implementations
// must be comparable; the channel filters inbound events by identity.
type Endpoint interface {
	PostMessage(msg string, targetOrigin string) error
}

// MessageEvent is one inbound message from the host's event source.
type MessageEvent struct {
	Source Endpoint
	Data   Payload
}

// EventSource is the host's cross-context message event source.
type EventSource interface {
	AddMessageListener(fn func(MessageEvent))
}

// Command is anything that serializes to remote script text.
type Command interface {
	Kind() string
	Script() string
}

// Channel owns the pending-request queue and the listener for a single
// remote context connection.
type Channel struct {
	remote       Endpoint
	events       EventSource
	targetOrigin string
	timeout      time.Duration
	recovery     Recovery
	observer     func(Event)
	logger       *slog.Logger

	listenOnce sync.Once
	listening  atomic.Bool

	sendMu    sync.Mutex // enqueue+transmit is atomic across senders
	deliverMu sync.Mutex // one inbound message at a time
	closed    bool       // guarded by sendMu

	queue *requestQueue
}

// Option configures a Channel.
type Option func(*Channel)

// WithTimeout bounds how long Send waits for the terminator. Zero waits
// forever.
func WithTimeout(d time.Duration) Option {
	return func(c *Channel) { c.timeout = d }
}

// WithRecovery sets the queue policy applied when a request is abandoned.
func WithRecovery(r Recovery) Option {
	return func(c *Channel) { c.recovery = r }
}

// WithObserver registers a hook for request lifecycle events.
func WithObserver(fn func(Event)) Option {
	return func(c *Channel) { c.observer = fn }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

// WithTargetOrigin overrides the "*" target origin used for postMessage.
func WithTargetOrigin(origin string) Option {
	return func(c *Channel) { c.targetOrigin = origin }
}

// New creates a channel to remote, receiving replies from events.
func New(remote Endpoint, events EventSource, opts ...Option) *Channel {
	c := &Channel{
		remote:       remote,
		events:       events,
		targetOrigin: "*",
		recovery:     RecoverDrain,
		queue:        newRequestQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Listen subscribes the demultiplexer to the event source. It is safe to
// call repeatedly; only the first call subscribes.
func (c *Channel) Listen() {
	c.listenOnce.Do(func() {
		c.events.AddMessageListener(c.dispatch)
		c.listening.Store(true)
	})
}

// Listening reports whether the demultiplexer is subscribed.
func (c *Channel) Listening() bool {
	return c.listening.Load()
}

// Pending returns the number of requests waiting for their terminator.
func (c *Channel) Pending() int {
	return c.queue.len()
}

// dispatch routes an inbound message to the head of the queue. It does not
// inspect the payload or dequeue; that is the handler's job.
func (c *Channel) dispatch(ev MessageEvent) {
	if ev.Source != c.remote {
		return
	}

	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	p := c.queue.head()
	if p == nil {
		c.logger.Debug("dropping unsolicited message", "payload", ev.Data.String())
		return
	}
	p.handle(ev.Data)
}

// Send transmits command to the remote context and waits until the
// terminator for it arrives, returning every payload received before it.
//
// Send only fails when ctx ends, the channel timeout elapses, the channel is
// closed, or the message cannot be posted. Remote error markers come back as
// ordinary payloads.
func (c *Channel) Send(ctx context.Context, command string) (Response, error) {
	return c.send(ctx, "raw", command)
}

// SendCommand serializes cmd and sends it.
func (c *Channel) SendCommand(ctx context.Context, cmd Command) (Response, error) {
	return c.send(ctx, cmd.Kind(), cmd.Script())
}

func (c *Channel) send(ctx context.Context, label, command string) (Response, error) {
	c.Listen()

	p := &pending{
		ID:      uuid.NewString(),
		Command: label,
		Result:  make(chan result, 1),
	}
	var acc Response
	p.handle = func(msg Payload) {
		if msg.IsTerminator() {
			if c.queue.dequeueHead(p) {
				p.finish(acc, nil)
			}
			return
		}
		acc = append(acc, msg)
	}

	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		c.sendMu.Unlock()
		return nil, err
	}
	p.Sent = time.Now()
	c.queue.enqueue(p)
	if err := c.remote.PostMessage(command, c.targetOrigin); err != nil {
		c.queue.remove(p)
		c.sendMu.Unlock()
		c.observe(Event{Type: EventFailed, ID: p.ID, Command: label, Err: err})
		return nil, fmt.Errorf("post message: %w", err)
	}
	c.sendMu.Unlock()

	c.logger.Debug("request sent", "request_id", p.ID, "command", label)
	c.observe(Event{Type: EventSent, ID: p.ID, Command: label, Script: command})

	return c.wait(ctx, p)
}

func (c *Channel) wait(ctx context.Context, p *pending) (Response, error) {
	var timeout <-chan time.Time
	if c.timeout > 0 {
		t := time.NewTimer(c.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case res := <-p.Result:
		return c.complete(p, res)
	case <-ctx.Done():
		return c.giveUp(p, ctx.Err())
	case <-timeout:
		return c.giveUp(p, fmt.Errorf("%w after %s", ErrTimeout, c.timeout))
	}
}

func (c *Channel) complete(p *pending, res result) (Response, error) {
	ev := Event{
		Type:     EventCompleted,
		ID:       p.ID,
		Command:  p.Command,
		Latency:  time.Since(p.Sent),
		Payloads: len(res.Resp),
		Bytes:    res.Resp.Size(),
		Err:      res.Err,
	}
	if res.Err != nil {
		ev.Type = EventFailed
	}
	c.observe(ev)
	return res.Resp, res.Err
}

// giveUp abandons p unless its result raced in first. Once p has left the
// queue its result is already on the way, so that result wins.
func (c *Channel) giveUp(p *pending, err error) (Response, error) {
	select {
	case res := <-p.Result:
		return c.complete(p, res)
	default:
	}

	if !c.abandon(p, err) {
		return c.complete(p, <-p.Result)
	}
	c.observe(Event{
		Type:    EventAbandoned,
		ID:      p.ID,
		Command: p.Command,
		Latency: time.Since(p.Sent),
		Err:     err,
	})
	return nil, err
}

// abandon applies the recovery policy to p. It reports false when p was no
// longer queued, meaning it completed or the channel closed first.
func (c *Channel) abandon(p *pending, cause error) bool {
	switch c.recovery {
	case RecoverDropHead:
		if c.queue.dequeueHead(p) {
			break
		}
		if !c.queue.contains(p) {
			return false
		}
		// Not the head: earlier requests still own the next replies.
	case RecoverAbortAll:
		drained, ok := c.queue.drainIfQueued(p)
		if !ok {
			return false
		}
		for _, other := range drained {
			if other != p {
				other.finish(nil, ErrAborted)
			}
		}
	default:
		// p stays queued and keeps consuming until its own terminator.
		if !c.queue.contains(p) {
			return false
		}
	}

	c.logger.Warn("abandoning request",
		"request_id", p.ID, "command", p.Command,
		"recovery", c.recovery.String(), "error", cause)
	return true
}

// Close fails every pending request with ErrClosed. Later Sends fail too.
func (c *Channel) Close() {
	c.sendMu.Lock()
	c.closed = true
	c.sendMu.Unlock()

	for _, p := range c.queue.drain() {
		p.finish(nil, ErrClosed)
	}
}

func (c *Channel) observe(ev Event) {
	if c.observer != nil {
		c.observer(ev)
	}
}
