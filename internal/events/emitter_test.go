package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHandler is a Handler with an injectable handling function.
type mockHandler struct {
	HandleFn func(ctx context.Context, event *OperationEvent) error
	received []*OperationEvent
}

func (h *mockHandler) HandleEvent(ctx context.Context, event *OperationEvent) error {
	h.received = append(h.received, event)
	if h.HandleFn != nil {
		return h.HandleFn(ctx, event)
	}
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewOperationEvent(t *testing.T) {
	t.Parallel()

	opID := uuid.New()
	event := NewOperationEvent(opID, "failed", "cancelled by user")

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, opID, event.OperationID)
	assert.Equal(t, "failed", event.Status)
	assert.Equal(t, "cancelled by user", event.Detail)
	assert.False(t, event.At.IsZero())
}

func TestInMemoryEmitter_Emit(t *testing.T) {
	t.Parallel()

	t.Run("no handlers registered", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(newTestLogger())
		err := emitter.Emit(context.Background(), NewOperationEvent(uuid.New(), "queued", ""))
		assert.NoError(t, err)
	})

	t.Run("dispatches to all handlers", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(newTestLogger())
		first := &mockHandler{}
		second := &mockHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event := NewOperationEvent(uuid.New(), "processing", "")
		err := emitter.Emit(context.Background(), event)

		require.NoError(t, err)
		require.Len(t, first.received, 1)
		require.Len(t, second.received, 1)
		assert.Equal(t, event.ID, first.received[0].ID)
	})

	t.Run("handler error does not stop dispatch", func(t *testing.T) {
		t.Parallel()

		emitter := NewInMemoryEmitter(newTestLogger())
		handlerErr := errors.New("handler failed")
		failing := &mockHandler{
			HandleFn: func(ctx context.Context, event *OperationEvent) error {
				return handlerErr
			},
		}
		healthy := &mockHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		err := emitter.Emit(context.Background(), NewOperationEvent(uuid.New(), "completed", ""))

		assert.ErrorIs(t, err, handlerErr)
		assert.Len(t, healthy.received, 1, "later handlers should still receive the event")
	})
}

func TestLogHandler_HandleEvent(t *testing.T) {
	t.Parallel()

	handler := NewLogHandler(newTestLogger())
	err := handler.HandleEvent(context.Background(), NewOperationEvent(uuid.New(), "failed", "timed out"))
	assert.NoError(t, err)
}
