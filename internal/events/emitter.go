package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface
// that stores registered handlers in memory and dispatches events to them.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered new event handler", "handler_count", len(e.handlers))
}

// Emit publishes the given event to all registered handlers. If any
// handler returns an error, the event is still sent to all other handlers
// and the first error encountered is returned.
func (e *InMemoryEmitter) Emit(ctx context.Context, event *OperationEvent) error {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"operation_id", event.OperationID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LogHandler is a Handler that writes every operation transition to the
// structured log. It is the default handler registered by the server.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler writing to the given logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{
		logger: logger.With("component", "operation_log_handler"),
	}
}

// HandleEvent logs the transition. It never returns an error.
func (h *LogHandler) HandleEvent(ctx context.Context, event *OperationEvent) error {
	attrs := []any{
		"operation_id", event.OperationID,
		"status", event.Status,
	}
	if event.Detail != "" {
		attrs = append(attrs, "detail", event.Detail)
	}
	h.logger.InfoContext(ctx, "operation status changed", attrs...)
	return nil
}
