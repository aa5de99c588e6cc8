package channel

import (
	"slices"
	"sync"
	"time"
)

// result is the outcome delivered to a waiting Send.
type result struct {
	Resp Response
	Err  error
}

// pending represents one in-flight request awaiting its terminator.
type pending struct {
	ID      string
	Command string // command label for logs and journal
	Sent    time.Time
	Result  chan result

	handle func(Payload)
	once   sync.Once
}

func (p *pending) finish(resp Response, err error) {
	p.once.Do(func() {
		p.Result <- result{Resp: resp, Err: err}
	})
}

// requestQueue is the FIFO of pending requests. The head is the only entry
// eligible to consume the next inbound message.
type requestQueue struct {
	mu    sync.Mutex
	items []*pending
}

func newRequestQueue() *requestQueue {
	return &requestQueue{}
}

func (q *requestQueue) enqueue(p *pending) {
	q.mu.Lock()
	q.items = append(q.items, p)
	q.mu.Unlock()
}

func (q *requestQueue) head() *pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// dequeueHead removes p if it is still the head.
func (q *requestQueue) dequeueHead(p *pending) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.items[0] != p {
		return false
	}
	q.items[0] = nil
	q.items = q.items[1:]
	return true
}

// remove deletes p wherever it sits in the queue.
func (q *requestQueue) remove(p *pending) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it == p {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *requestQueue) contains(p *pending) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Contains(q.items, p)
}

// drainIfQueued empties the queue only while p is still in it.
func (q *requestQueue) drainIfQueued(p *pending) ([]*pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !slices.Contains(q.items, p) {
		return nil, false
	}
	out := q.items
	q.items = nil
	return out, true
}

// drain empties the queue and returns what it held, oldest first.
func (q *requestQueue) drain() []*pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *requestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
