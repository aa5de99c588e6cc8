package channel

import "errors"

var (
	// ErrTimeout is returned by Send when the channel timeout elapses before
	// the terminator arrives.
	ErrTimeout = errors.New("request timed out")

	// ErrAborted is returned to requests failed by the RecoverAbortAll policy.
	ErrAborted = errors.New("request aborted")

	// ErrClosed is returned once the channel has been closed.
	ErrClosed = errors.New("channel closed")
)
