package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/repotriage/repotriage/pkg/shared/config"
)

// OllamaClient talks to an Ollama-compatible serving endpoint over the shared
// resty client. One instance per model identity.
type OllamaClient struct {
	client   *resty.Client
	role     string
	endpoint config.ModelEndpoint
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewOllamaClient builds a client for one model identity. The base URL can be
// overridden with the OLLAMA_BASE_URL environment variable, matching the
// serving side's own convention.
func NewOllamaClient(client *resty.Client, role string, endpoint config.ModelEndpoint) *OllamaClient {
	if env := os.Getenv("OLLAMA_BASE_URL"); env != "" {
		endpoint.BaseURL = env
	}
	return &OllamaClient{client: client, role: role, endpoint: endpoint}
}

// Name returns the provider role name.
func (c *OllamaClient) Name() string {
	return c.role
}

// Model returns the model being used.
func (c *OllamaClient) Model() string {
	return c.endpoint.Model
}

// Validate checks if the configuration is valid.
func (c *OllamaClient) Validate() error {
	if c.endpoint.Model == "" {
		return fmt.Errorf("%w: model name is empty for role %q", ErrNotConfigured, c.role)
	}
	if _, err := url.Parse(c.endpoint.BaseURL); err != nil || c.endpoint.BaseURL == "" {
		return fmt.Errorf("%w: invalid base URL %q for role %q", ErrNotConfigured, c.endpoint.BaseURL, c.role)
	}
	return nil
}

// Complete sends a non-streaming generate request and returns the completion.
// Timeouts surface as ErrTimeout, unusable payloads as ErrMalformedResponse;
// the caller owns the retry policy.
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	callCtx := ctx
	if c.endpoint.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.endpoint.Timeout)
		defer cancel()
	}

	body := generateRequest{
		Model:  c.endpoint.Model,
		Prompt: req.UserPrompt,
		System: req.SystemPrompt,
		Stream: false,
	}
	if req.Temperature > 0 {
		body.Options = map[string]interface{}{"temperature": req.Temperature}
	}

	var result generateResponse
	resp, err := c.client.R().
		SetContext(callCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&result).
		Post(strings.TrimRight(c.endpoint.BaseURL, "/") + "/api/generate")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, c.role)
		}
		return nil, fmt.Errorf("model call failed for role %q: %w", c.role, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: role %q returned HTTP %d", ErrMalformedResponse, c.role, resp.StatusCode())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: role %q: %s", ErrMalformedResponse, c.role, result.Error)
	}
	if strings.TrimSpace(result.Response) == "" {
		return nil, fmt.Errorf("%w: empty completion from role %q", ErrMalformedResponse, c.role)
	}

	return &CompletionResponse{
		Content: result.Response,
		Model:   result.Model,
	}, nil
}
