package gemini

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/clipflow-api/internal/config"
	"github.com/phrazzld/clipflow-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig(t *testing.T) config.LLMConfig {
	t.Helper()
	return config.LLMConfig{
		GeminiAPIKey:       "test-api-key",
		ModelName:          "gemini-2.0-flash",
		PromptTemplatePath: writeTemplate(t, "Plan the edit: {{.Instruction}}"),
		MaxRetries:         3,
		RetryDelaySeconds:  2,
	}
}

func TestNewPlanner_ConfigValidation(t *testing.T) {
	t.Parallel()

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewPlanner(context.Background(), nil, validConfig(t))
		assert.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.GeminiAPIKey = ""
		_, err := NewPlanner(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.ModelName = ""
		_, err := NewPlanner(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing template path", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.PromptTemplatePath = ""
		_, err := NewPlanner(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("unreadable template file", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.PromptTemplatePath = filepath.Join(t.TempDir(), "does-not-exist.tmpl")
		_, err := NewPlanner(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("malformed template", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig(t)
		cfg.PromptTemplatePath = writeTemplate(t, "Plan the edit: {{.Instruction")
		_, err := NewPlanner(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestPlanner_CreatePrompt(t *testing.T) {
	t.Parallel()

	planner, err := NewPlanner(context.Background(), testLogger(), validConfig(t))
	require.NoError(t, err)

	t.Run("renders instruction into template", func(t *testing.T) {
		t.Parallel()

		prompt, err := planner.createPrompt(context.Background(), "trim the first ten seconds")
		require.NoError(t, err)
		assert.Equal(t, "Plan the edit: trim the first ten seconds", prompt)
	})

	t.Run("empty instruction", func(t *testing.T) {
		t.Parallel()

		_, err := planner.createPrompt(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyInstruction)
	})
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				},
			},
		},
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Parallel()

	t.Run("valid JSON payload", func(t *testing.T) {
		t.Parallel()

		resp := textResponse(`{"instruction":"trim it","steps":[{"action":"trim","value":"0s-5s"}]}`)

		decoded, err := decodeResponse(resp)
		require.NoError(t, err)
		assert.Equal(t, "trim it", decoded.Instruction)
		require.Len(t, decoded.Steps, 1)
		assert.Equal(t, "trim", decoded.Steps[0].Action)
	})

	t.Run("payload split across parts", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{
					Content: &genai.Content{
						Parts: []*genai.Part{
							{Text: `{"instruction":"trim it",`},
							{Text: `"steps":[{"action":"trim"}]}`},
						},
					},
				},
			},
		}

		decoded, err := decodeResponse(resp)
		require.NoError(t, err)
		require.Len(t, decoded.Steps, 1)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		_, err := decodeResponse(nil)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		_, err := decodeResponse(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
		}
		_, err := decodeResponse(resp)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("safety blocked", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonSafety},
			},
		}
		_, err := decodeResponse(resp)
		assert.ErrorIs(t, err, generation.ErrContentBlocked)
	})

	t.Run("non-JSON payload", func(t *testing.T) {
		t.Parallel()

		_, err := decodeResponse(textResponse("sorry, I cannot help with that"))
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestPlanner_ParseResponse(t *testing.T) {
	t.Parallel()

	planner, err := NewPlanner(context.Background(), testLogger(), validConfig(t))
	require.NoError(t, err)

	t.Run("valid plan", func(t *testing.T) {
		t.Parallel()

		response := &ResponseSchema{
			Instruction: "Trim the opening and overlay a title",
			Steps: []StepSchema{
				{Action: "trim", Target: "clip:0", Value: "0s-10s"},
				{Action: "overlay_text", Target: "clip:0", Value: "Welcome"},
			},
		}

		plan, err := planner.parseResponse(context.Background(), "original instruction", response)
		require.NoError(t, err)
		assert.Equal(t, "Trim the opening and overlay a title", plan.Instruction)
		require.Len(t, plan.Steps, 2)
		assert.Equal(t, "trim", plan.Steps[0].Action)
	})

	t.Run("falls back to original instruction", func(t *testing.T) {
		t.Parallel()

		response := &ResponseSchema{
			Steps: []StepSchema{{Action: "trim"}},
		}

		plan, err := planner.parseResponse(context.Background(), "original instruction", response)
		require.NoError(t, err)
		assert.Equal(t, "original instruction", plan.Instruction)
	})

	t.Run("empty plan", func(t *testing.T) {
		t.Parallel()

		_, err := planner.parseResponse(context.Background(), "x", &ResponseSchema{})
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("step without action", func(t *testing.T) {
		t.Parallel()

		response := &ResponseSchema{
			Steps: []StepSchema{{Target: "clip:0"}},
		}
		_, err := planner.parseResponse(context.Background(), "x", response)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}
