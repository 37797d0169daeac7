// Package llm defines the model-serving boundary: a generic "send prompt,
// get response" capability with at least two distinct model identities
// (reviewer and verifier) behind it.
package llm

import (
	"context"
	"errors"
)

// Provider is the interface to one model identity.
type Provider interface {
	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider role name for logging (reviewer, verifier).
	Name() string

	// Model returns the model being used.
	Model() string

	// Validate checks if the configuration is valid.
	Validate() error
}

// CompletionRequest represents a request to the model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// CompletionResponse represents a response from the model.
type CompletionResponse struct {
	Content string
	Model   string
}

// Sentinel errors of the model boundary. The review orchestrator maps these
// onto its retry/escalation policy.
var (
	ErrNotConfigured     = errors.New("model provider not configured")
	ErrTimeout           = errors.New("model call timed out")
	ErrMalformedResponse = errors.New("malformed model response")
)
