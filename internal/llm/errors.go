package llm

import "errors"

var (
	// ErrEmptyResponse is returned when the collaborator answers with no
	// completion choices.
	ErrEmptyResponse = errors.New("collaborator returned no response choices")

	// ErrMissingAPIKey is returned when no OpenAI API key is configured.
	ErrMissingAPIKey = errors.New("missing OpenAI API key")
)
