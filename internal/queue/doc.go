// Package queue implements the asynchronous operation queue that fronts
// the single browser render session. Callers enqueue render operations and
// poll for status; a single cooperative drain loop executes them in strict
// arrival order, one at a time, with timeout enforcement, cancellation of
// queued operations, and periodic cleanup of expired terminal records.
//
// The queue is purely in-memory: records do not survive a process restart.
package queue
