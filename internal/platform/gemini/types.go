// Package gemini provides an implementation of the generation.Planner
// interface backed by Google's Gemini API.
package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	Instruction string
}

// ResponseSchema represents the expected structure of a plan from the Gemini API
type ResponseSchema struct {
	// Instruction is the model's normalized restatement of the edit request
	Instruction string `json:"instruction"`

	// Steps is the ordered list of actions for the render session
	Steps []StepSchema `json:"steps"`
}

// StepSchema represents a single edit step in the API response
type StepSchema struct {
	// Action is the kind of step to perform
	Action string `json:"action"`

	// Target identifies what the action applies to
	Target string `json:"target,omitempty"`

	// Value carries the action's parameter
	Value string `json:"value,omitempty"`
}
