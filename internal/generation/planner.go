package generation

import "context"

// EditStep is a single action for the render session to perform.
type EditStep struct {
	// Action is the kind of step (e.g. "trim", "overlay_text", "set_audio").
	Action string `json:"action"`

	// Target identifies what the action applies to (a clip range, a track).
	Target string `json:"target,omitempty"`

	// Value carries the action's parameter (text to overlay, a timestamp).
	Value string `json:"value,omitempty"`
}

// EditPlan is an ordered sequence of steps derived from a free-text
// instruction, plus the normalized instruction itself.
type EditPlan struct {
	// Instruction is the cleaned-up restatement of what the plan does.
	Instruction string `json:"instruction"`

	// Steps are executed in order by the render session.
	Steps []EditStep `json:"steps"`
}

// Planner defines the interface for turning a free-text edit instruction
// into a structured plan the render session can execute. This interface
// serves as a boundary between the application core and external AI/LLM
// services; the executor works without one, forwarding the raw
// instruction instead.
type Planner interface {
	// PlanEdit derives an EditPlan from the given instruction.
	// Returns an error if planning fails for any reason (see errors.go
	// for specific types).
	PlanEdit(ctx context.Context, instruction string) (*EditPlan, error)
}
