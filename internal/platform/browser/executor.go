// Package browser implements the queue.Executor interface on top of the
// render bridge, the local sidecar that owns the single automated browser
// session. The bridge exposes a small REST surface: one call to bring the
// session up and a submit-then-poll pair for render jobs. Because there is
// exactly one session, the bridge can only work on one job at a time; the
// queue scheduler guarantees calls here are never concurrent.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/phrazzld/clipflow-api/internal/generation"
	"github.com/phrazzld/clipflow-api/internal/queue"
)

// Error definitions for the browser package.
var (
	// ErrBridgeUnavailable is returned when the render bridge cannot be
	// reached or refuses to initialize the session.
	ErrBridgeUnavailable = errors.New("render bridge unavailable")

	// ErrJobRejected is returned when the bridge refuses a submitted job.
	ErrJobRejected = errors.New("render bridge rejected the job")
)

// jobRequest is the payload submitted to the bridge for one render.
type jobRequest struct {
	AssetRef    string                `json:"asset_ref"`
	Instruction string                `json:"instruction,omitempty"`
	Options     map[string]string     `json:"options,omitempty"`
	Steps       []generation.EditStep `json:"steps,omitempty"`
}

// jobResponse is the bridge's acknowledgement of a submitted job.
type jobResponse struct {
	ID string `json:"id"`
}

// jobStatusResponse is one poll result for an in-flight bridge job.
type jobStatusResponse struct {
	State       string `json:"state"`
	Stage       string `json:"stage,omitempty"`
	ArtifactURL string `json:"artifact_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Bridge job states.
const (
	jobStateRunning = "running"
	jobStateDone    = "done"
	jobStateError   = "error"
)

// Executor drives the render bridge. It satisfies queue.Executor.
type Executor struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	planner      generation.Planner
	logger       *slog.Logger
}

// NewExecutor creates an Executor for the bridge at cfg.BridgeURL.
// The planner may be nil; the raw instruction is then forwarded to the
// bridge unplanned.
func NewExecutor(
	cfg config.ExecutorConfig,
	planner generation.Planner,
	logger *slog.Logger,
) (*Executor, error) {
	if cfg.BridgeURL == "" {
		return nil, errors.New("bridge URL cannot be empty")
	}
	if _, err := url.Parse(cfg.BridgeURL); err != nil {
		return nil, fmt.Errorf("invalid bridge URL: %w", err)
	}

	pollInterval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return &Executor{
		baseURL:      strings.TrimRight(cfg.BridgeURL, "/"),
		client:       &http.Client{Timeout: requestTimeout},
		pollInterval: pollInterval,
		planner:      planner,
		logger:       logger,
	}, nil
}

// Init asks the bridge to bring the browser session up. The bridge treats
// the call as idempotent, so retrying after a failure is safe.
func (e *Executor) Init(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/session", nil)
	if err != nil {
		return fmt.Errorf("failed to build session request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: session init returned status %d", ErrBridgeUnavailable, resp.StatusCode)
	}

	e.logger.Info("render session initialized", "bridge_url", e.baseURL)
	return nil
}

// Execute runs one render: plan the edit (when a planner is configured and
// an instruction is present), submit the job, then poll until it finishes.
// Cancelling ctx aborts the poll loop only; the bridge may keep working on
// the job server-side.
func (e *Executor) Execute(
	ctx context.Context,
	input queue.Input,
	progress func(string),
) (*queue.Result, error) {
	request := jobRequest{
		AssetRef:    input.AssetRef,
		Instruction: input.Instruction,
		Options:     input.Options,
	}

	if e.planner != nil && input.Instruction != "" {
		progress("planning edit")
		plan, err := e.planner.PlanEdit(ctx, input.Instruction)
		if err != nil {
			return nil, fmt.Errorf("failed to plan edit: %w", err)
		}
		request.Instruction = plan.Instruction
		request.Steps = plan.Steps
	}

	jobID, err := e.submitJob(ctx, request)
	if err != nil {
		return nil, err
	}
	e.logger.Info("render job submitted", "job_id", jobID, "asset_ref", input.AssetRef)

	return e.awaitJob(ctx, jobID, progress)
}

// submitJob posts the job to the bridge and returns its ID.
func (e *Executor) submitJob(ctx context.Context, request jobRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode job request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		e.baseURL+"/jobs",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrJobRejected, resp.StatusCode)
	}

	var ack jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return "", fmt.Errorf("failed to decode job response: %w", err)
	}
	if ack.ID == "" {
		return "", fmt.Errorf("%w: response carried no job ID", ErrJobRejected)
	}
	return ack.ID, nil
}

// awaitJob polls the bridge until the job finishes, forwarding stage
// markers through the progress callback.
func (e *Executor) awaitJob(
	ctx context.Context,
	jobID string,
	progress func(string),
) (*queue.Result, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	lastStage := ""
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("render abandoned: %w", ctx.Err())
		case <-ticker.C:
		}
		// The select picks at random when both channels are ready, so a
		// cancelled context can still land on the ticker arm.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render abandoned: %w", ctx.Err())
		}

		status, err := e.pollJob(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("render abandoned: %w", ctx.Err())
			}
			return nil, err
		}

		if status.Stage != "" && status.Stage != lastStage {
			lastStage = status.Stage
			progress(status.Stage)
		}

		switch status.State {
		case jobStateDone:
			if status.ArtifactURL == "" {
				return nil, errors.New("bridge reported done without an artifact")
			}
			return &queue.Result{
				ArtifactURL: status.ArtifactURL,
				Metadata:    map[string]string{"bridge_job_id": jobID},
			}, nil
		case jobStateError:
			reason := status.Error
			if reason == "" {
				reason = "bridge reported an unspecified failure"
			}
			return nil, fmt.Errorf("render failed: %s", reason)
		case jobStateRunning, "":
			// Keep polling.
		default:
			e.logger.Warn("unknown bridge job state", "job_id", jobID, "state", status.State)
		}
	}
}

// pollJob fetches the current status of one bridge job.
func (e *Executor) pollJob(ctx context.Context, jobID string) (*jobStatusResponse, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		e.baseURL+"/jobs/"+url.PathEscape(jobID),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused before reporting.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: poll returned status %d", ErrBridgeUnavailable, resp.StatusCode)
	}

	var status jobStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode job status: %w", err)
	}
	return &status, nil
}
