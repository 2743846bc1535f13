// File: services/llm/client.go
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"bookline/models"
	"bookline/utils"

	openai "github.com/sashabaranov/go-openai"
)

// callTimeout bounds one chat-completion attempt. Model calls are allowed to
// run longer than calendar calls but still must terminate.
const callTimeout = 60 * time.Second

// retryBackoff is the pause before the single retry of a transient failure.
const retryBackoff = time.Second

// Error reports a model API failure that survived the retry policy.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llmError: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client speaks one chat-completion turn against an OpenAI-compatible
// endpoint: full history plus tool schema in, one assistant message out.
type Client interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// OpenAIClient is the production Client. Any provider speaking the
// chat-completion wire shape works via the configurable base URL.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewClientFromSettings builds a client from global settings, decrypting the
// API key at the point of use.
func NewClientFromSettings(gs *models.GlobalSettings) (*OpenAIClient, error) {
	if gs.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM API key is not configured")
	}
	if gs.LLMModel == "" {
		return nil, fmt.Errorf("LLM model is not configured")
	}
	apiKey, err := utils.DecryptString(gs.LLMAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt LLM API key: %w", err)
	}

	cfg := openai.DefaultConfig(apiKey)
	if gs.LLMBaseURL != "" {
		cfg.BaseURL = gs.LLMBaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  gs.LLMModel,
	}, nil
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: 0.2,
		MaxTokens:   4096,
	}

	attempt := func() (openai.ChatCompletionMessage, error) {
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return openai.ChatCompletionMessage{}, err
		}
		if len(resp.Choices) == 0 {
			return openai.ChatCompletionMessage{}, fmt.Errorf("model returned no choices")
		}
		return resp.Choices[0].Message, nil
	}

	msg, err := attempt()
	if err != nil && isTransient(err) {
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return openai.ChatCompletionMessage{}, &Error{Err: err}
		}
		msg, err = attempt()
	}
	if err != nil {
		return openai.ChatCompletionMessage{}, &Error{Err: err}
	}
	return msg, nil
}

// isTransient reports whether the failure is worth the single retry:
// timeouts, network errors, 429 and 5xx. Client-side 4xx failures are not
// retried; the orchestrator surfaces them for self-correction instead.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= 500
	}
	return false
}
