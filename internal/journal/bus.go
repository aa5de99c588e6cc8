package journal

import (
	"sync"

	"github.com/revittco/pealink/internal/store"
)

// subscriberBuffer is how many records a subscriber may lag behind before
// it starts missing them.
const subscriberBuffer = 64

// Filter selects the records a subscriber receives. Empty fields match
// everything.
type Filter struct {
	Command string
	Status  string
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec *store.RequestRecord) bool {
	return (f.Command == "" || rec.Command == f.Command) &&
		(f.Status == "" || rec.Status == f.Status)
}

type subscription struct {
	ch     chan *store.RequestRecord
	filter Filter
}

// Bus delivers newly journalled requests to live subscribers, such as the
// SSE request stream.
type Bus struct {
	mu   sync.RWMutex
	subs map[<-chan *store.RequestRecord]*subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[<-chan *store.RequestRecord]*subscription)}
}

// Subscribe returns a channel of records matching f. Release it with
// Unsubscribe.
func (b *Bus) Subscribe(f Filter) <-chan *store.RequestRecord {
	s := &subscription{ch: make(chan *store.RequestRecord, subscriberBuffer), filter: f}
	b.mu.Lock()
	b.subs[s.ch] = s
	b.mu.Unlock()
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan *store.RequestRecord) {
	b.mu.Lock()
	if s, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(s.ch)
	}
	b.mu.Unlock()
}

// Publish offers rec to every matching subscriber without blocking and
// returns how many of them were too far behind to take it.
func (b *Bus) Publish(rec *store.RequestRecord) (dropped int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.filter.Match(rec) {
			continue
		}
		select {
		case s.ch <- rec:
		default:
			dropped++
		}
	}
	return dropped
}
