package openai

import "errors"

var (
	// ErrEmptyResponse is returned when the model produces no choices.
	ErrEmptyResponse = errors.New("model returned no choices")

	// ErrMalformedResponse is returned when the model output is not valid
	// JSON even after fence stripping and repair.
	ErrMalformedResponse = errors.New("model returned malformed JSON")
)
