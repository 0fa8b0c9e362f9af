package queue

import "errors"

// Common errors returned by the queue package.
var (
	// ErrQueueFull is returned by Enqueue when the number of queued and
	// processing operations has reached the configured capacity.
	ErrQueueFull = errors.New("operation queue is full")

	// ErrNotFound is returned when no record exists for the given ID.
	// A reaped record is indistinguishable from one that never existed.
	ErrNotFound = errors.New("operation not found")

	// ErrNotCancellable is returned by Cancel when the operation is no
	// longer queued. In-flight and terminal operations cannot be cancelled
	// because the executor has no abort hook.
	ErrNotCancellable = errors.New("operation is not queued and cannot be cancelled")

	// ErrTimeout marks operations whose executor invocation did not finish
	// within the configured deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrServiceUnavailable marks operations failed because the render
	// session could not be initialized.
	ErrServiceUnavailable = errors.New("render service unavailable")
)
