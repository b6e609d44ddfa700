package caption

import "errors"

var (
	// ErrInvalidStructure means the model returned a JSON object without the required caption fields.
	ErrInvalidStructure = errors.New("invalid response structure from AI service")
	// ErrEmptyCompletion means the model returned no usable text.
	ErrEmptyCompletion = errors.New("empty completion from AI service")
)
