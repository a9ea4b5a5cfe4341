package service

import "errors"

var (
	// ErrNoSource indicates a run was started without a row source.
	ErrNoSource = errors.New("experiment has no source")
	// ErrEnqueue indicates the build queue rejected a task.
	ErrEnqueue = errors.New("failed to enqueue matrix build")
)
