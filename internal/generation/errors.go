package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrPlanFailed is returned when edit planning fails for any general reason
	ErrPlanFailed = errors.New("failed to plan edit from instruction")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during edit planning")

	// ErrInvalidConfig is returned when the planner configuration is invalid
	ErrInvalidConfig = errors.New("invalid planner configuration")
)
