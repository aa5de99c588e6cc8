package channel

import (
	"fmt"
	"strings"
	"time"
)

// EventType names a request lifecycle transition.
type EventType string

const (
	EventSent      EventType = "sent"
	EventCompleted EventType = "completed"
	EventAbandoned EventType = "abandoned"
	EventFailed    EventType = "failed"
)

// Event describes one request lifecycle transition, reported to the
// observer registered with WithObserver.
type Event struct {
	Type     EventType
	ID       string
	Command  string
	Script   string // set on EventSent only
	Latency  time.Duration
	Payloads int
	Bytes    int
	Err      error
}

// Recovery decides what happens to the queue when a request is abandoned
// because its context ended or the channel timeout elapsed.
type Recovery int

const (
	// RecoverDrain leaves the abandoned request at its place in the queue.
	// It keeps consuming messages until its own terminator, so later
	// requests stay aligned with a remote that still answers.
	RecoverDrain Recovery = iota

	// RecoverDropHead removes the abandoned request if it is the head. A
	// request abandoned behind others stays queued and drains as with
	// RecoverDrain, so replies owed to earlier requests keep their owners.
	RecoverDropHead

	// RecoverAbortAll fails every pending request with ErrAborted.
	RecoverAbortAll
)

func (r Recovery) String() string {
	switch r {
	case RecoverDrain:
		return "drain"
	case RecoverDropHead:
		return "drop"
	case RecoverAbortAll:
		return "abort"
	default:
		return "unknown"
	}
}

// ParseRecovery parses the names returned by Recovery.String.
func ParseRecovery(s string) (Recovery, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drain":
		return RecoverDrain, nil
	case "drop":
		return RecoverDropHead, nil
	case "abort":
		return RecoverAbortAll, nil
	default:
		return RecoverDrain, fmt.Errorf("unknown recovery policy %q", s)
	}
}
