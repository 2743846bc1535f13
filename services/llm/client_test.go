package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "network timeout", err: timeoutError{}, want: true},
		{name: "api rate limited", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, want: true},
		{name: "api server error", err: &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, want: true},
		{name: "api bad gateway", err: &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, want: true},
		{name: "api bad request", err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, want: false},
		{name: "api unauthorized", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, want: false},
		{name: "request rate limited", err: &openai.RequestError{HTTPStatusCode: http.StatusTooManyRequests}, want: true},
		{name: "request unavailable", err: &openai.RequestError{HTTPStatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "request not found", err: &openai.RequestError{HTTPStatusCode: http.StatusNotFound}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTransient(tc.err); got != tc.want {
				t.Errorf("isTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

// chatServer fails the first failures requests with status, then answers with
// a well-formed completion. It reports how many requests it saw.
func chatServer(t *testing.T, failures int, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= failures {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "upstream failure", "type": "server_error"},
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "hello"},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testClient(baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: "test-model"}
}

func userTurn() []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
	}
}

func TestChatRetriesServerErrorOnce(t *testing.T) {
	srv, calls := chatServer(t, 1, http.StatusInternalServerError)

	msg, err := testClient(srv.URL).Chat(context.Background(), userTurn(), nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if msg.Content != "hello" {
		t.Errorf("reply = %q, want hello", msg.Content)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestChatRetriesRateLimitOnce(t *testing.T) {
	srv, calls := chatServer(t, 1, http.StatusTooManyRequests)

	if _, err := testClient(srv.URL).Chat(context.Background(), userTurn(), nil); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestChatGivesUpAfterSecondFailure(t *testing.T) {
	srv, calls := chatServer(t, 10, http.StatusServiceUnavailable)

	_, err := testClient(srv.URL).Chat(context.Background(), userTurn(), nil)
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Errorf("server saw %d requests, want exactly 2", got)
	}
}

func TestChatDoesNotRetryClientError(t *testing.T) {
	srv, calls := chatServer(t, 10, http.StatusBadRequest)

	_, err := testClient(srv.URL).Chat(context.Background(), userTurn(), nil)
	var llmErr *Error
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}
