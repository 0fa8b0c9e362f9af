package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptyInstruction is returned when an edit instruction is empty.
	ErrEmptyInstruction = errors.New("edit instruction cannot be empty")
)
