package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/clipflow-api/internal/events"
	"github.com/phrazzld/clipflow-api/internal/redact"
)

// SchedulerConfig holds configuration for the operation scheduler.
type SchedulerConfig struct {
	// Capacity is the maximum number of operations that may be queued or
	// processing at once. Enqueue fails with ErrQueueFull beyond it.
	Capacity int

	// OperationTimeout bounds how long the scheduler waits for a single
	// executor invocation. When it fires the operation is failed and the
	// queue moves on; the executor's side effects are NOT torn down and
	// may continue in the background.
	OperationTimeout time.Duration

	// CleanupInterval is how often the cleanup sweep runs.
	CleanupInterval time.Duration

	// Retention is how long terminal records are kept before the sweep
	// deletes them.
	Retention time.Duration

	// OverviewLimit bounds the record list returned by Overview.
	OverviewLimit int

	// InitRetryBackoff is the minimum time between session initialization
	// attempts after a failure, so a persistently dead executor does not
	// cause a hot loop.
	InitRetryBackoff time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Capacity:         10,
		OperationTimeout: 5 * time.Minute,
		CleanupInterval:  60 * time.Second,
		Retention:        30 * time.Minute,
		OverviewLimit:    20,
		InitRetryBackoff: 5 * time.Second,
	}
}

// Scheduler owns the operation records and the pending queue, and drains
// the queue through the Executor one operation at a time. The render
// session behind the Executor is stateful and single-use, so execution
// concurrency is fixed at exactly one; Enqueue, Status and Cancel never
// wait on the Executor.
type Scheduler struct {
	mu      sync.Mutex
	ops     map[uuid.UUID]*Operation
	pending []uuid.UUID

	// current is the ID of the operation being executed, or uuid.Nil.
	current uuid.UUID

	// draining is true while a drain goroutine is running. Guarded by mu
	// so two drain passes can never start concurrently.
	draining bool

	// ready tracks whether the executor's backing session is initialized.
	// initDone is non-nil while an initialization attempt is in flight;
	// it is closed when the attempt finishes so concurrent callers share
	// one attempt instead of each starting their own.
	ready      bool
	initDone   chan struct{}
	lastInitAt time.Time

	executor Executor
	emitter  events.Emitter
	cfg      SchedulerConfig
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the given executor. The emitter may
// be nil, in which case no lifecycle events are published.
func NewScheduler(
	executor Executor,
	cfg SchedulerConfig,
	emitter events.Emitter,
	logger *slog.Logger,
) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if cfg.Capacity <= 0 {
		logger.Warn("invalid queue capacity specified, using default",
			"specified_capacity", cfg.Capacity,
			"default_capacity", defaults.Capacity)
		cfg.Capacity = defaults.Capacity
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaults.CleanupInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaults.Retention
	}
	if cfg.OverviewLimit <= 0 {
		cfg.OverviewLimit = defaults.OverviewLimit
	}
	if cfg.InitRetryBackoff <= 0 {
		cfg.InitRetryBackoff = defaults.InitRetryBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		ops:      make(map[uuid.UUID]*Operation),
		executor: executor,
		emitter:  emitter,
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the periodic cleanup sweep.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.reaperLoop()

	s.logger.Info("scheduler started",
		"capacity", s.cfg.Capacity,
		"operation_timeout", s.cfg.OperationTimeout,
		"cleanup_interval", s.cfg.CleanupInterval,
		"retention", s.cfg.Retention)
}

// Stop shuts the scheduler down: the cleanup sweep exits, any in-flight
// executor wait is abandoned, and further Enqueue calls are rejected.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Enqueue admits a new operation. It fails with ErrQueueFull when the
// number of queued and processing operations is at capacity; otherwise it
// creates the record, appends it to the pending queue and kicks off a
// drain pass if none is running. It never blocks on the Executor.
func (s *Scheduler) Enqueue(ctx context.Context, input Input) (Receipt, error) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: scheduler stopped", ErrServiceUnavailable)
	}

	active := len(s.pending)
	if s.current != uuid.Nil {
		active++
	}
	if active >= s.cfg.Capacity {
		s.mu.Unlock()
		return Receipt{}, fmt.Errorf("%w: capacity %d reached", ErrQueueFull, s.cfg.Capacity)
	}

	now := time.Now()
	op := &Operation{
		ID:        uuid.New(),
		Status:    StatusQueued,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.ops[op.ID] = op
	s.pending = append(s.pending, op.ID)

	receipt := Receipt{
		ID:          op.ID,
		Position:    len(s.pending),
		QueueLength: len(s.pending),
	}

	if !s.draining {
		s.draining = true
		s.wg.Add(1)
		go s.drain()
	}
	s.mu.Unlock()

	s.logger.Debug("operation enqueued",
		"operation_id", op.ID,
		"queue_position", receipt.Position,
		"queue_length", receipt.QueueLength)
	s.emit(ctx, op.ID, StatusQueued, "")

	return receipt, nil
}

// Status returns a snapshot of the operation with the given ID. It is a
// pure read and never mutates the record. A record deleted by the cleanup
// sweep reports ErrNotFound exactly like one that never existed.
func (s *Scheduler) Status(id uuid.UUID) (*StatusSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[id]
	if !ok {
		return nil, ErrNotFound
	}

	snap := &StatusSnapshot{
		ID:          op.ID,
		Status:      op.Status,
		QueueLength: len(s.pending),
		Progress:    op.Progress,
		Error:       op.Error,
		CreatedAt:   op.CreatedAt,
		UpdatedAt:   op.UpdatedAt,
	}
	if op.Status == StatusQueued {
		for i, pid := range s.pending {
			if pid == id {
				pos := i + 1
				snap.QueuePosition = &pos
				break
			}
		}
	}
	if op.Status == StatusCompleted {
		snap.Result = op.Result
	}
	return snap, nil
}

// Cancel removes a queued operation from the pending queue and fails it.
// Operations that are already processing or terminal cannot be cancelled;
// the executor has no abort hook.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if op.Status != StatusQueued {
		s.mu.Unlock()
		return fmt.Errorf("%w: status is %s", ErrNotCancellable, op.Status)
	}

	for i, pid := range s.pending {
		if pid == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	op.Status = StatusFailed
	op.Error = "cancelled by user"
	op.UpdatedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("operation cancelled", "operation_id", id)
	s.emit(ctx, id, StatusFailed, "cancelled by user")
	return nil
}

// Ready reports whether the executor's backing session is initialized.
// It never triggers initialization itself.
func (s *Scheduler) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Overview returns the queue-wide view: pending length, the currently
// processing operation, readiness, and up to limit record summaries,
// most recent first. A non-positive limit uses the configured default.
func (s *Scheduler) Overview(limit int) Overview {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = s.cfg.OverviewLimit
	}

	overview := Overview{
		QueueLength: len(s.pending),
		Ready:       s.ready,
	}
	if s.current != uuid.Nil {
		current := s.current
		overview.ProcessingID = &current
	}

	summaries := make([]Summary, 0, len(s.ops))
	for _, op := range s.ops {
		summaries = append(summaries, Summary{
			ID:        op.ID,
			Status:    op.Status,
			CreatedAt: op.CreatedAt,
			UpdatedAt: op.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	overview.Operations = summaries

	return overview
}

// drain consumes the pending queue one operation at a time until it is
// empty. Exactly one drain goroutine runs at a time; Enqueue starts one
// only when none is running.
func (s *Scheduler) drain() {
	defer s.wg.Done()

	if err := s.ensureReady(s.ctx); err != nil {
		// A dead render session cannot service any queued work; fail the
		// whole cohort rather than silently retaining it.
		s.failPending(err)
		return
	}

	for {
		s.mu.Lock()
		if s.ctx.Err() != nil || len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}

		id := s.pending[0]
		s.pending = s.pending[1:]
		op := s.ops[id]
		op.Status = StatusProcessing
		op.UpdatedAt = time.Now()
		s.current = id
		input := op.Input
		s.mu.Unlock()

		s.logger.Info("processing operation", "operation_id", id)
		s.emit(s.ctx, id, StatusProcessing, "")

		result, err := s.execute(id, input)

		s.mu.Lock()
		op.UpdatedAt = time.Now()
		if err != nil {
			op.Status = StatusFailed
			// The record is served verbatim to pollers; executor and
			// planner errors can carry hosts, URLs and key material.
			op.Error = redact.String(err.Error())
		} else {
			op.Status = StatusCompleted
			op.Result = result
		}
		s.current = uuid.Nil
		status := op.Status
		detail := op.Error
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("operation failed", "operation_id", id, "error", err)
		} else {
			s.logger.Info("operation completed", "operation_id", id)
		}
		s.emit(s.ctx, id, status, detail)
	}
}

// execOutcome carries an executor invocation's result across the timeout race.
type execOutcome struct {
	result *Result
	err    error
}

// execute runs one executor invocation, racing it against the configured
// deadline. When the deadline fires only the wait is abandoned: the
// context handed to the executor is cancelled, but any side effects the
// executor cannot stop (bridge-side renders, partial file writes) may
// continue after the operation is already marked failed.
func (s *Scheduler) execute(id uuid.UUID, input Input) (*Result, error) {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.OperationTimeout)
	defer cancel()

	outcome := make(chan execOutcome, 1)
	go func() {
		result, err := s.executor.Execute(ctx, input, func(marker string) {
			s.setProgress(id, marker)
		})
		outcome <- execOutcome{result: result, err: err}
	}()

	select {
	case out := <-outcome:
		if out.err != nil {
			return nil, out.err
		}
		if out.result == nil {
			return nil, errors.New("executor returned no result")
		}
		return out.result, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, s.cfg.OperationTimeout)
		}
		return nil, fmt.Errorf("%w: scheduler shutting down", ErrServiceUnavailable)
	}
}

// setProgress records a progress marker for an operation. Writes arriving
// after the operation left the processing state (a late executor losing
// the timeout race) are dropped.
func (s *Scheduler) setProgress(id uuid.UUID, marker string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[id]
	if !ok || op.Status != StatusProcessing {
		return
	}
	op.Progress = marker
	op.UpdatedAt = time.Now()
}

// ensureReady makes sure the executor's backing session is initialized.
// If an initialization attempt is already in flight the caller waits for
// that attempt's outcome instead of starting a second one. A failed
// attempt leaves ready false; the next call retries, subject to the
// configured backoff.
func (s *Scheduler) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return nil
	}

	if ch := s.initDone; ch != nil {
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ready {
			return nil
		}
		return ErrServiceUnavailable
	}

	if !s.lastInitAt.IsZero() && time.Since(s.lastInitAt) < s.cfg.InitRetryBackoff {
		s.mu.Unlock()
		return fmt.Errorf("%w: initialization recently failed", ErrServiceUnavailable)
	}

	ch := make(chan struct{})
	s.initDone = ch
	s.mu.Unlock()

	s.logger.Info("initializing render session")
	err := s.executor.Init(ctx)

	s.mu.Lock()
	s.lastInitAt = time.Now()
	s.ready = err == nil
	s.initDone = nil
	close(ch)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("render session initialization failed", "error", err)
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	s.logger.Info("render session ready")
	return nil
}

// failPending fails every currently queued operation with a fixed
// service-unavailable error and empties the pending queue.
func (s *Scheduler) failPending(cause error) {
	s.mu.Lock()
	failed := make([]uuid.UUID, 0, len(s.pending))
	now := time.Now()
	for _, id := range s.pending {
		op, ok := s.ops[id]
		if !ok {
			continue
		}
		op.Status = StatusFailed
		op.Error = ErrServiceUnavailable.Error()
		op.UpdatedAt = now
		failed = append(failed, id)
	}
	s.pending = s.pending[:0]
	s.draining = false
	s.mu.Unlock()

	if len(failed) > 0 {
		s.logger.Error("failed queued operations, render session unavailable",
			"count", len(failed),
			"error", cause)
	}
	for _, id := range failed {
		s.emit(s.ctx, id, StatusFailed, ErrServiceUnavailable.Error())
	}
}

// reaperLoop periodically deletes expired terminal records.
func (s *Scheduler) reaperLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.reap(time.Now())
		}
	}
}

// reap deletes terminal records whose last update is older than the
// retention window. Deletion is silent and irreversible.
func (s *Scheduler) reap(now time.Time) int {
	s.mu.Lock()
	removed := 0
	for id, op := range s.ops {
		if op.Status.Terminal() && now.Sub(op.UpdatedAt) > s.cfg.Retention {
			delete(s.ops, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("expired operation records removed", "count", removed)
	}
	return removed
}

// emit publishes a lifecycle event if an emitter is configured. Event
// handling failures never affect queue state.
func (s *Scheduler) emit(ctx context.Context, id uuid.UUID, status Status, detail string) {
	if s.emitter == nil {
		return
	}
	event := events.NewOperationEvent(id, string(status), detail)
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit operation event",
			"operation_id", id,
			"error", err)
	}
}
