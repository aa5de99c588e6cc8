// Package wsbridge carries the editor message channel over a websocket.
// Text frames from the client are scripts; the server answers with one
// frame per reply payload, text or binary, ending with the terminator.
package wsbridge

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/editor"
)

const (
	defaultReadLimit    = 64 << 20
	defaultPingInterval = 30 * time.Second
	writeTimeout        = 10 * time.Second
)

// Option configures the server handler.
type Option func(*server)

// WithOriginPatterns allows cross-origin clients matching patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *server) { s.origins = patterns }
}

// WithReadLimit caps the size of an inbound script frame.
func WithReadLimit(n int64) Option {
	return func(s *server) { s.readLimit = n }
}

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *server) { s.logger = l }
}

type server struct {
	editor       *editor.Editor
	origins      []string
	readLimit    int64
	pingInterval time.Duration
	logger       *slog.Logger
}

// Handler serves ed to websocket clients. Scripts from one connection run
// in arrival order; connections share the editor.
func Handler(ed *editor.Editor, opts ...Option) http.Handler {
	s := &server{
		editor:       ed,
		readLimit:    defaultReadLimit,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "wsbridge")
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(s.readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	remote := r.RemoteAddr
	s.logger.Info("editor client connected", "remote", remote)
	defer s.logger.Info("editor client disconnected", "remote", remote)

	scripts := make(chan string, 64)
	go func() {
		defer close(scripts)
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				s.logger.Debug("client read stopped", "remote", remote, "error", err)
				return
			}
			if typ != websocket.MessageText {
				s.logger.Debug("ignoring binary frame from client", "bytes", len(data))
				continue
			}
			select {
			case scripts <- string(data):
			case <-ctx.Done():
				return
			}
		}
	}()
	go s.keepAlive(ctx, cancel, conn)

	var werr error
	reply := func(p channel.Payload) {
		if werr != nil {
			return
		}
		if werr = writePayload(ctx, conn, p); werr != nil {
			s.logger.Warn("write reply failed", "remote", remote, "error", werr)
			cancel()
		}
	}
	if err := s.editor.Serve(ctx, scripts, reply); err != nil && werr == nil && r.Context().Err() == nil {
		s.logger.Debug("editor session ended", "remote", remote, "error", err)
	}
}

// keepAlive pings the client until ctx ends, cancelling the session when a
// ping goes unanswered.
func (s *server) keepAlive(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				cancel()
				return
			}
		}
	}
}

func writePayload(ctx context.Context, conn *websocket.Conn, p channel.Payload) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if p.Kind == channel.KindBinary {
		return conn.Write(ctx, websocket.MessageBinary, p.Data)
	}
	return conn.Write(ctx, websocket.MessageText, []byte(p.Text))
}
