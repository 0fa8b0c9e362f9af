package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/clipflow-api/internal/api/shared"
	"github.com/phrazzld/clipflow-api/internal/queue"
)

// OperationQueue is the scheduler surface the API layer depends on.
// Version: 1.0
type OperationQueue interface {
	// Enqueue admits a new operation and returns its admission receipt.
	Enqueue(ctx context.Context, input queue.Input) (queue.Receipt, error)

	// Status returns a point-in-time snapshot of one operation.
	Status(id uuid.UUID) (*queue.StatusSnapshot, error)

	// Cancel removes a still-queued operation.
	Cancel(ctx context.Context, id uuid.UUID) error

	// Ready reports whether the backing render session is initialized.
	Ready() bool

	// Overview describes the queue as a whole, listing at most limit records.
	Overview(limit int) queue.Overview
}

// Default and maximum number of records returned by ListOperations.
const (
	defaultOverviewLimit = 20
	maxOverviewLimit     = 100
)

// OperationHandler holds the dependencies for the operation endpoints.
type OperationHandler struct {
	scheduler OperationQueue
	validator *validator.Validate
	logger    *slog.Logger
}

// NewOperationHandler creates a new OperationHandler with its dependencies.
func NewOperationHandler(scheduler OperationQueue, logger *slog.Logger) *OperationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationHandler{
		scheduler: scheduler,
		validator: validator.New(),
		logger:    logger.With("component", "operation_handler"),
	}
}

// EnqueueOperation handles POST /api/operations.
// It validates the request, admits the operation, and responds 202 with
// the operation ID the client polls with.
func (h *OperationHandler) EnqueueOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.With(slog.String("trace_id", shared.GetTraceID(ctx)))

	var req EnqueueOperationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	receipt, err := h.scheduler.Enqueue(ctx, queue.Input{
		AssetRef:    req.AssetRef,
		Instruction: req.Instruction,
		Options:     req.Options,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("operation enqueued",
		slog.String("operation_id", receipt.ID.String()),
		slog.Int("position", receipt.Position),
		slog.Int("queue_length", receipt.QueueLength))

	shared.RespondWithJSON(w, r, http.StatusAccepted, EnqueueOperationResponse{
		OperationID: receipt.ID.String(),
		Status:      string(queue.StatusQueued),
		Position:    receipt.Position,
		QueueLength: receipt.QueueLength,
	})
}

// GetOperationStatus handles GET /api/operations/{id}.
func (h *OperationHandler) GetOperationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.operationID(w, r)
	if !ok {
		return
	}

	snap, err := h.scheduler.Status(id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newStatusResponse(snap))
}

// CancelOperation handles DELETE /api/operations/{id}.
// Only operations still waiting in the queue can be cancelled; anything
// already processing or finished responds 409.
func (h *OperationHandler) CancelOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.operationID(w, r)
	if !ok {
		return
	}

	if err := h.scheduler.Cancel(ctx, id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("operation cancelled",
		slog.String("trace_id", shared.GetTraceID(ctx)),
		slog.String("operation_id", id.String()),
		slog.String("client", shared.GetClient(ctx)))

	shared.RespondWithJSON(w, r, http.StatusOK, CancelOperationResponse{
		OperationID: id.String(),
		Status:      "cancelled",
	})
}

// ListOperations handles GET /api/operations.
// The optional limit parameter bounds how many records are returned.
func (h *OperationHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	limit := defaultOverviewLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxOverviewLimit {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newOverviewResponse(h.scheduler.Overview(limit)))
}

// operationID extracts and parses the {id} URL parameter. On failure it
// writes the error response and returns ok=false.
func (h *OperationHandler) operationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid operation ID")
		return uuid.Nil, false
	}
	return id, true
}
