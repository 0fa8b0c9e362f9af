package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/clipflow-api/internal/queue"
)

// EnqueueOperationRequest is the request body for submitting an operation.
type EnqueueOperationRequest struct {
	AssetRef    string            `json:"asset_ref"   validate:"required,max=512"`
	Instruction string            `json:"instruction" validate:"required,max=4096"`
	Options     map[string]string `json:"options"     validate:"omitempty,max=32"`
}

// EnqueueOperationResponse acknowledges an accepted operation.
type EnqueueOperationResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
	Position    int    `json:"position"`
	QueueLength int    `json:"queue_length"`
}

// OperationResultResponse is the result payload of a completed operation.
type OperationResultResponse struct {
	ArtifactURL string            `json:"artifact_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// OperationStatusResponse is a point-in-time view of a single operation.
// Position is present only while queued, Result only when completed, and
// Error only when failed.
type OperationStatusResponse struct {
	OperationID string                   `json:"operation_id"`
	Status      string                   `json:"status"`
	Position    *int                     `json:"position,omitempty"`
	QueueLength int                      `json:"queue_length"`
	Progress    string                   `json:"progress,omitempty"`
	Result      *OperationResultResponse `json:"result,omitempty"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// CancelOperationResponse acknowledges a cancelled operation.
type CancelOperationResponse struct {
	OperationID string `json:"operation_id"`
	Status      string `json:"status"`
}

// OperationSummaryResponse is the compact per-operation view in listings.
type OperationSummaryResponse struct {
	OperationID string    `json:"operation_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QueueOverviewResponse describes the queue as a whole.
type QueueOverviewResponse struct {
	QueueLength  int                        `json:"queue_length"`
	ProcessingID string                     `json:"processing_id,omitempty"`
	Ready        bool                       `json:"ready"`
	Operations   []OperationSummaryResponse `json:"operations"`
}

func newStatusResponse(snap *queue.StatusSnapshot) OperationStatusResponse {
	resp := OperationStatusResponse{
		OperationID: snap.ID.String(),
		Status:      string(snap.Status),
		Position:    snap.QueuePosition,
		QueueLength: snap.QueueLength,
		Progress:    snap.Progress,
		Error:       snap.Error,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
	}
	if snap.Result != nil {
		resp.Result = &OperationResultResponse{
			ArtifactURL: snap.Result.ArtifactURL,
			Metadata:    snap.Result.Metadata,
		}
	}
	return resp
}

func newOverviewResponse(ov queue.Overview) QueueOverviewResponse {
	resp := QueueOverviewResponse{
		QueueLength: ov.QueueLength,
		Ready:       ov.Ready,
		Operations:  make([]OperationSummaryResponse, 0, len(ov.Operations)),
	}
	if ov.ProcessingID != nil && *ov.ProcessingID != uuid.Nil {
		resp.ProcessingID = ov.ProcessingID.String()
	}
	for _, op := range ov.Operations {
		resp.Operations = append(resp.Operations, OperationSummaryResponse{
			OperationID: op.ID.String(),
			Status:      string(op.Status),
			CreatedAt:   op.CreatedAt,
			UpdatedAt:   op.UpdatedAt,
		})
	}
	return resp
}
