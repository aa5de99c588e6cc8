package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/revittco/pealink/internal/channel"
	"github.com/revittco/pealink/internal/store"
)

const insertTimeout = 5 * time.Second

// Recorder turns channel lifecycle events into request records. Register
// Observe with channel.WithObserver.
type Recorder struct {
	store  store.RequestStore
	bus    *Bus
	logger *slog.Logger

	mu      sync.Mutex
	scripts map[string]string
}

// NewRecorder creates a Recorder. The bus parameter is optional (nil-safe).
func NewRecorder(s store.RequestStore, bus *Bus, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:   s,
		bus:     bus,
		logger:  logger,
		scripts: make(map[string]string),
	}
}

// Observe handles one lifecycle event.
func (r *Recorder) Observe(ev channel.Event) {
	if ev.Type == channel.EventSent {
		r.mu.Lock()
		r.scripts[ev.ID] = RedactScript(ev.Script)
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	script := r.scripts[ev.ID]
	delete(r.scripts, ev.ID)
	r.mu.Unlock()

	rec := &store.RequestRecord{
		ID:           ev.ID,
		Timestamp:    time.Now().UTC().Add(-ev.Latency),
		Command:      ev.Command,
		Script:       script,
		Status:       statusFor(ev.Type),
		LatencyMs:    int(ev.Latency.Milliseconds()),
		Payloads:     ev.Payloads,
		ResponseSize: ev.Bytes,
	}
	if ev.Err != nil {
		rec.ErrorMessage = ev.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := r.store.InsertRequestRecord(ctx, rec); err != nil {
		r.logger.Error("insert request record", "request_id", ev.ID, "error", err)
		return
	}
	if r.bus == nil {
		return
	}
	if n := r.bus.Publish(rec); n > 0 {
		r.logger.Debug("request stream subscribers lagging", "request_id", ev.ID, "dropped", n)
	}
}

// Pending reports how many sent requests have not been recorded yet.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts)
}

func statusFor(t channel.EventType) string {
	switch t {
	case channel.EventCompleted:
		return store.StatusSuccess
	case channel.EventAbandoned:
		return store.StatusAbandoned
	default:
		return store.StatusError
	}
}
