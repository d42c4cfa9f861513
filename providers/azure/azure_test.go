package azure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zoobzio/enhancer"
)

func TestProviderCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/my-gpt/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api-version") != "2024-02-01" {
			t.Errorf("Unexpected api-version %s", r.URL.Query().Get("api-version"))
		}
		if r.Header.Get("api-key") != "test-key" {
			t.Errorf("Expected api-key header, got %s", r.Header.Get("api-key"))
		}

		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "prompt" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-4","choices":[{"message":{"role":"assistant","content":"azure reply"}}],"usage":{"total_tokens":7}}`))
	}))
	defer server.Close()

	provider := New(Config{
		Endpoint:   server.URL + "/",
		APIKey:     "test-key",
		Deployment: "my-gpt",
	})

	response, err := provider.Call(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if response.Content != "azure reply" {
		t.Errorf("Expected 'azure reply', got %q", response.Content)
	}
	if response.Usage.Total != 7 {
		t.Errorf("Expected 7 total tokens, got %d", response.Usage.Total)
	}
}

func TestProviderMissingConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "no key", config: Config{Endpoint: "http://x", Deployment: "d"}},
		{name: "no endpoint", config: Config{APIKey: "k", Deployment: "d"}},
		{name: "no deployment", config: Config{APIKey: "k", Endpoint: "http://x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config).Call(context.Background(), "x")
			if !errors.Is(err, enhancer.ErrMissingCredentials) {
				t.Errorf("Expected ErrMissingCredentials, got %v", err)
			}
		})
	}
}

func TestProviderErrorHandling(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		responseBody  string
		expectedError string
	}{
		{
			name:          "Rate limit",
			statusCode:    http.StatusTooManyRequests,
			responseBody:  `{"error": {"message": "Too many requests"}}`,
			expectedError: "rate limit exceeded",
		},
		{
			name:          "API error",
			statusCode:    http.StatusBadRequest,
			responseBody:  `{"error": {"message": "Invalid request"}}`,
			expectedError: "azure error (400): Invalid request",
		},
		{
			name:          "Generic error",
			statusCode:    http.StatusInternalServerError,
			responseBody:  `oops`,
			expectedError: "azure error: status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			provider := New(Config{
				Endpoint:   server.URL,
				APIKey:     "test-key",
				Deployment: "d",
			})

			_, err := provider.Call(context.Background(), "test")
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.expectedError) {
				t.Errorf("Expected error containing '%s', got '%s'", tt.expectedError, err.Error())
			}
		})
	}
}
