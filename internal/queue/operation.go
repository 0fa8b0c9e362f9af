package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of an operation.
type Status string

// Possible operation status values.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is a final state.
// Terminal operations never change status again and are
// eventually removed by the cleanup sweep.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Input holds the parameters an operation is executed with.
// The scheduler treats it as opaque and only forwards it to the Executor.
type Input struct {
	// AssetRef identifies the source asset the render session works on.
	AssetRef string

	// Instruction is the free-text edit instruction for this render.
	Instruction string

	// Options carries executor-specific settings (resolution, format, etc.).
	Options map[string]string
}

// Result is the payload produced by a completed operation.
type Result struct {
	// ArtifactURL points at the rendered artifact.
	ArtifactURL string

	// Metadata carries any additional executor-reported details.
	Metadata map[string]string
}

// Operation is the record tracked for one submitted render request.
// Records are created by Enqueue, mutated only by the scheduler and
// Cancel, and deleted by the cleanup sweep once terminal and expired.
type Operation struct {
	ID        uuid.UUID
	Status    Status
	Input     Input
	Progress  string
	Result    *Result
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Receipt is returned by Enqueue and tells the caller where their
// operation landed in the pending queue.
type Receipt struct {
	ID uuid.UUID

	// Position is the 1-based position in the pending queue at admission time.
	Position int

	// QueueLength is the pending queue length after admission.
	QueueLength int
}

// StatusSnapshot is a point-in-time view of a single operation.
// Result is set only when completed; Error only when failed;
// QueuePosition only while still queued.
type StatusSnapshot struct {
	ID            uuid.UUID
	Status        Status
	QueuePosition *int
	QueueLength   int
	Progress      string
	Result        *Result
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary is the compact per-operation view used by Overview.
type Summary struct {
	ID        uuid.UUID
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overview describes the whole queue for operational visibility.
type Overview struct {
	// QueueLength is the number of operations waiting to execute.
	QueueLength int

	// ProcessingID is the operation currently executing, if any.
	ProcessingID *uuid.UUID

	// Ready reports whether the executor's backing session is initialized.
	Ready bool

	// Operations lists known records most-recent-first, bounded by the
	// configured overview limit.
	Operations []Summary
}

// Executor is the boundary to the component that performs the actual
// slow render work. The scheduler knows nothing about how the artifact
// is produced beyond this contract.
// Version: 1.0
type Executor interface {
	// Init prepares the executor's backing resource (the browser render
	// session). It must be safe to call again after a failure.
	Init(ctx context.Context) error

	// Execute runs one render operation. The progress callback may be
	// invoked any number of times with a human-readable stage marker.
	// Execute has no abort channel beyond ctx; implementations should
	// treat ctx cancellation as best effort.
	Execute(ctx context.Context, input Input, progress func(string)) (*Result, error)
}
