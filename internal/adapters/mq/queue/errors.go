package queue

import "errors"

var (
	// ErrClosed indicates an operation against a closed queue.
	ErrClosed = errors.New("queue closed")
)
