package wsbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/revittco/pealink/internal/channel"
)

// Conn is a client connection to a served editor. It is both the remote
// endpoint and the event source of a channel.Channel.
type Conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []func(channel.MessageEvent)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Dial connects to the editor websocket at url.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial editor %s: %w", url, err)
	}
	ws.SetReadLimit(defaultReadLimit)
	if logger == nil {
		logger = slog.Default()
	}

	c := &Conn{
		ws:     ws,
		logger: logger.With("component", "wsbridge", "url", url),
		done:   make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.readLoop()
	return c, nil
}

// PostMessage sends msg as a text frame. The target origin has no meaning
// on a websocket and is ignored.
func (c *Conn) PostMessage(msg, _ string) error {
	select {
	case <-c.done:
		return fmt.Errorf("post message: %w", c.Err())
	default:
	}
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, []byte(msg)); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// AddMessageListener subscribes fn to inbound frames. Listeners run on the
// connection's reader goroutine, one frame at a time.
func (c *Conn) AddMessageListener(fn func(channel.MessageEvent)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		typ, data, err := c.ws.Read(c.ctx)
		if err != nil {
			c.err = err
			c.logger.Debug("reader stopped", "error", err)
			return
		}
		p := channel.Text(string(data))
		if typ == websocket.MessageBinary {
			p = channel.Binary(data)
		}
		ev := channel.MessageEvent{Source: c, Data: p}

		c.mu.RLock()
		ls := c.listeners
		c.mu.RUnlock()
		for _, fn := range ls {
			fn(ev)
		}
	}
}

// Done is closed when the connection stops reading.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that stopped the reader, once Done is closed.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close closes the websocket and waits for the reader to exit.
func (c *Conn) Close() error {
	err := c.ws.Close(websocket.StatusNormalClosure, "")
	c.cancel()
	<-c.done
	return err
}
