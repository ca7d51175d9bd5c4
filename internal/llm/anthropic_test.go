package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time check that AnthropicClient implements Client.
var _ Client = (*AnthropicClient)(nil)

// newAnthropicTestClient creates an AnthropicClient pointed at the test server.
func newAnthropicTestClient(t *testing.T, serverURL string, maxRetries int) *AnthropicClient {
	t.Helper()
	cfg := AnthropicConfig{
		APIKey:  "test-api-key",
		Model:   "claude-sonnet-4-20250514",
		BaseURL: serverURL,
	}
	client := NewAnthropicClient(cfg, 10*time.Second, maxRetries)
	client.retryDelay = time.Millisecond
	return client
}

// sampleMessagesResponse builds a minimal successful Messages API response.
func sampleMessagesResponse(text string) messagesResponse {
	return messagesResponse{
		ID:   "msg_abc123",
		Type: "message",
		Role: "assistant",
		Content: []contentBlock{
			{Type: "text", Text: text},
		},
		Model:      "claude-sonnet-4-20250514",
		StopReason: "end_turn",
		Usage:      anthropicUsage{InputTokens: 90, OutputTokens: 30},
	}
}

func TestAnthropicClient_Complete(t *testing.T) {
	t.Run("successful completion returns first text block", func(t *testing.T) {
		var receivedReq messagesRequest
		var receivedAPIKey, receivedVersion string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			receivedAPIKey = r.Header.Get("x-api-key")
			receivedVersion = r.Header.Get("anthropic-version")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedReq))
			require.NoError(t, json.NewEncoder(w).Encode(sampleMessagesResponse("the review text")))
		}))
		t.Cleanup(server.Close)

		client := newAnthropicTestClient(t, server.URL, 0)
		resp, err := client.Complete(context.Background(), Request{
			Prompt:      "Write a review",
			Temperature: 0.4,
			MaxTokens:   2500,
		})
		require.NoError(t, err)

		assert.Equal(t, "the review text", resp.Content)
		assert.Equal(t, 90, resp.InputTokens)
		assert.Equal(t, 30, resp.OutputTokens)

		assert.Equal(t, "test-api-key", receivedAPIKey)
		assert.Equal(t, anthropicAPIVersion, receivedVersion)
		assert.Equal(t, 2500, receivedReq.MaxTokens)
		assert.Equal(t, "Write a review", receivedReq.Messages[0].Content)
	})

	t.Run("skips non-text content blocks", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := sampleMessagesResponse("after tool use")
			resp.Content = append([]contentBlock{{Type: "tool_use"}}, resp.Content...)
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		t.Cleanup(server.Close)

		client := newAnthropicTestClient(t, server.URL, 0)
		resp, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "after tool use", resp.Content)
	})

	t.Run("empty content returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resp := sampleMessagesResponse("")
			resp.Content = nil
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		}))
		t.Cleanup(server.Close)

		client := newAnthropicTestClient(t, server.URL, 0)
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no content blocks")
	})

	t.Run("rate limit is retried with backoff", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(anthropicErrorResponse{
					Type:  "error",
					Error: anthropicAPIErrorDetail{Type: "rate_limit_error", Message: "slow down"},
				})
				return
			}
			require.NoError(t, json.NewEncoder(w).Encode(sampleMessagesResponse("ok")))
		}))
		t.Cleanup(server.Close)

		client := newAnthropicTestClient(t, server.URL, 2)
		resp, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 2, calls)
	})

	t.Run("authentication error is not retried", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(anthropicErrorResponse{
				Type:  "error",
				Error: anthropicAPIErrorDetail{Type: "authentication_error", Message: "bad key"},
			})
		}))
		t.Cleanup(server.Close)

		client := newAnthropicTestClient(t, server.URL, 3)
		_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "bad key", apiErr.Message)
		assert.Equal(t, 1, calls)
	})
}

func TestAnthropicClient_Defaults(t *testing.T) {
	t.Parallel()

	client := NewAnthropicClient(AnthropicConfig{APIKey: "k"}, 0, -1)
	assert.Equal(t, defaultAnthropicBaseURL, client.baseURL)
	assert.Equal(t, 0, client.maxRetries)
	assert.Equal(t, "anthropic", client.Provider())
	assert.Equal(t, defaultAnthropicModel, client.Model())
}
