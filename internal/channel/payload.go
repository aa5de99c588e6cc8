package channel

import (
	"fmt"
	"strings"
)

// Terminator is the text payload the remote context sends after the last
// message of every response.
const Terminator = "done"

// Kind distinguishes text payloads from binary ones.
type Kind int

const (
	KindText Kind = iota
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Payload is the body of one message crossing the channel.
type Payload struct {
	Kind Kind
	Text string
	Data []byte
}

// Text returns a text payload.
func Text(s string) Payload {
	return Payload{Kind: KindText, Text: s}
}

// Binary returns a binary payload.
func Binary(b []byte) Payload {
	return Payload{Kind: KindBinary, Data: b}
}

// IsTerminator reports whether p ends a response sequence.
func (p Payload) IsTerminator() bool {
	return p.Kind == KindText && p.Text == Terminator
}

// Size returns the payload length in bytes.
func (p Payload) Size() int {
	if p.Kind == KindBinary {
		return len(p.Data)
	}
	return len(p.Text)
}

func (p Payload) String() string {
	if p.Kind == KindBinary {
		return fmt.Sprintf("<binary %d bytes>", len(p.Data))
	}
	return p.Text
}

// Response is the ordered sequence of payloads received for one request,
// terminator excluded.
type Response []Payload

// First returns the first payload of the response.
func (r Response) First() (Payload, bool) {
	if len(r) == 0 {
		return Payload{}, false
	}
	return r[0], true
}

// Text returns the first payload's text, or "" if it is missing or binary.
func (r Response) Text() string {
	p, ok := r.First()
	if !ok || p.Kind != KindText {
		return ""
	}
	return strings.TrimSpace(p.Text)
}

// Bytes returns the data of the first binary payload in the response.
func (r Response) Bytes() ([]byte, bool) {
	for _, p := range r {
		if p.Kind == KindBinary {
			return p.Data, true
		}
	}
	return nil, false
}

// Size returns the total byte count across all payloads.
func (r Response) Size() int {
	n := 0
	for _, p := range r {
		n += p.Size()
	}
	return n
}
