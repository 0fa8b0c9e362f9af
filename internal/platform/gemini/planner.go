package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"text/template"
	"time"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/phrazzld/clipflow-api/internal/generation"
	"google.golang.org/genai"
)

// Planner implements the generation.Planner interface using Google's
// Gemini API to derive structured edit plans from free-text instructions.
type Planner struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// NewPlanner creates a new instance of Planner with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - config: LLM configuration containing API key, model name, and other settings
//
// Returns:
//   - A properly initialized Planner or an error if initialization fails
func NewPlanner(ctx context.Context, logger *slog.Logger, config config.LLMConfig) (*Planner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	// Validate configuration
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if config.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	if config.PromptTemplatePath == "" {
		return nil, fmt.Errorf("%w: prompt template path cannot be empty", generation.ErrInvalidConfig)
	}

	// Load and parse prompt template
	templateContent, err := os.ReadFile(config.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
			generation.ErrInvalidConfig, config.PromptTemplatePath, err)
	}

	promptTemplate, err := template.New("editplan").Parse(string(templateContent))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Planner{
		logger:         logger,
		config:         config,
		promptTemplate: promptTemplate,
		client:         client,
		model:          config.ModelName,
	}, nil
}

// PlanEdit derives an EditPlan from the given free-text instruction by
// prompting the configured Gemini model and parsing its JSON response.
func (p *Planner) PlanEdit(ctx context.Context, instruction string) (*generation.EditPlan, error) {
	prompt, err := p.createPrompt(ctx, instruction)
	if err != nil {
		return nil, err
	}

	response, err := p.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return p.parseResponse(ctx, instruction, response)
}

// createPrompt generates a prompt string from the template with the
// provided instruction. If the instruction is empty or the template
// execution fails, it returns an error.
func (p *Planner) createPrompt(ctx context.Context, instruction string) (string, error) {
	if instruction == "" {
		return "", ErrEmptyInstruction
	}

	data := promptData{
		Instruction: instruction,
	}

	var promptBuffer bytes.Buffer
	if err := p.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	p.logger.DebugContext(ctx, "prompt generated from template",
		"instruction_length", len(instruction),
		"prompt_length", len(prompt))

	return prompt, nil
}

// callGeminiWithRetry makes a call to the Gemini API with exponential
// backoff retry logic. It attempts the call up to config.MaxRetries
// additional times, backing off with jitter between attempts for
// transient errors. Permanent errors (content blocked by safety filters,
// unparseable responses) are returned immediately without retrying.
func (p *Planner) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	maxRetries := p.config.MaxRetries
	baseDelaySeconds := p.config.RetryDelaySeconds
	attempt := 0
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		p.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		p.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	for attempt <= maxRetries {
		attemptNum := attempt + 1 // For logging (1-based)
		p.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		var response *ResponseSchema
		var isTransientError bool

		resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
		if err != nil {
			// Assume API-level failures are transient by default
			isTransientError = true
			p.logger.ErrorContext(ctx, "Gemini API call error",
				"error", err,
				"attempt", attemptNum)
		} else {
			response, err = decodeResponse(resp)
		}

		if err == nil {
			p.logger.InfoContext(ctx, "Gemini API call successful",
				"attempt", attemptNum)
			return response, nil
		}

		p.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		// Permanent errors are returned immediately
		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		if !isTransientError {
			return nil, err
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		p.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
			// Continue to next retry
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}

		attempt++
	}

	return nil, fmt.Errorf("%w: failed after %d attempts",
		generation.ErrTransientFailure, attempt)
}

// decodeResponse validates a raw Gemini API response and unmarshals the
// candidate's text parts into a ResponseSchema. Safety-blocked candidates
// and unparseable payloads are permanent failures.
func decodeResponse(resp *genai.GenerateContentResponse) (*ResponseSchema, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return &parsed, nil
}

// parseResponse converts a ResponseSchema from the Gemini API into a
// generation.EditPlan, validating that the plan has at least one step
// and that every step names an action.
func (p *Planner) parseResponse(
	ctx context.Context,
	instruction string,
	response *ResponseSchema,
) (*generation.EditPlan, error) {
	if response == nil || len(response.Steps) == 0 {
		return nil, fmt.Errorf("%w: plan contains no steps", generation.ErrInvalidResponse)
	}

	plan := &generation.EditPlan{
		Instruction: response.Instruction,
		Steps:       make([]generation.EditStep, 0, len(response.Steps)),
	}
	if plan.Instruction == "" {
		plan.Instruction = instruction
	}

	for i, step := range response.Steps {
		if step.Action == "" {
			return nil, fmt.Errorf("%w: step %d has no action", generation.ErrInvalidResponse, i)
		}
		plan.Steps = append(plan.Steps, generation.EditStep{
			Action: step.Action,
			Target: step.Target,
			Value:  step.Value,
		})
	}

	p.logger.DebugContext(ctx, "edit plan parsed",
		"step_count", len(plan.Steps))
	return plan, nil
}
