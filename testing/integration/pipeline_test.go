package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/providers/bedrock"
	"github.com/zoobzio/enhancer/providers/openai"
	et "github.com/zoobzio/enhancer/testing"
)

func TestPipeline_SingleAttemptOnFailure(t *testing.T) {
	// Would succeed on the second attempt, but there is no second attempt
	provider := et.NewFailingProvider(1).WithSuccessResponse("too late")

	result := enhancer.New(provider).FireWithInput(context.Background(), enhancer.Input{Prompt: "a dog"})

	if !strings.HasPrefix(result.Text, enhancer.ErrorPrefix) {
		t.Errorf("expected error text, got %q", result.Text)
	}
	if provider.CallCount() != 1 {
		t.Errorf("expected exactly 1 call, got %d", provider.CallCount())
	}
}

func TestPipeline_Timeout(t *testing.T) {
	// Provider that takes 500ms per call
	slowProvider := et.NewLatencyProvider(et.NewSequencedProvider("slow reply"), 500*time.Millisecond)

	e := enhancer.New(slowProvider, enhancer.WithTimeout(100*time.Millisecond))

	start := time.Now()
	result := e.FireWithInput(context.Background(), enhancer.Input{Prompt: "a dog"})
	elapsed := time.Since(start)

	if result.Kind != enhancer.KindTransport {
		t.Errorf("expected transport kind, got %s (%q)", result.Kind, result.Text)
	}
	if elapsed > 400*time.Millisecond {
		t.Errorf("expected timeout to cut the call short, took %v", elapsed)
	}
}

func TestPipeline_CircuitBreakerFailsFast(t *testing.T) {
	provider := et.NewFailingProvider(100).
		WithFailError(&enhancer.ProviderError{Provider: "openai", StatusCode: 503, Message: "overloaded"})

	e := enhancer.New(provider, enhancer.WithCircuitBreaker(3, time.Minute))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result := e.FireWithInput(ctx, enhancer.Input{Prompt: "a dog"})
		if !result.Failed() {
			t.Fatalf("expected failure on call %d", i+1)
		}
	}

	if provider.CallCount() != 3 {
		t.Errorf("expected 3 provider calls before the circuit opened, got %d", provider.CallCount())
	}
}

func TestPipeline_UsageTracking(t *testing.T) {
	acc := et.NewUsageAccumulator()
	e := enhancer.New(et.NewSequencedProvider("one", "two", "three"))

	for i := 0; i < 3; i++ {
		acc.Add(e.FireWithInput(context.Background(), enhancer.Input{Prompt: "x"}))
	}

	if acc.CallCount() != 3 || acc.TotalTokens() != 450 {
		t.Errorf("expected 3 calls and 450 tokens, got %d calls and %d tokens", acc.CallCount(), acc.TotalTokens())
	}
}

func TestPipeline_OpenAIEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(et.NewChatResponse("a happy dog running").WithUsage(12, 6).BuildBytes())
	}))
	defer server.Close()

	e := enhancer.New(openai.New(openai.Config{APIKey: "test-key", BaseURL: server.URL}))
	result := e.FireWithInput(context.Background(), enhancer.Input{Prompt: "a dog"})

	if result.Text != "a happy dog running" {
		t.Errorf("expected 'a happy dog running', got %q", result.Text)
	}
	if result.Usage == nil || result.Usage.Total != 18 {
		t.Errorf("expected usage total 18, got %+v", result.Usage)
	}
}

func TestPipeline_BedrockFamilies(t *testing.T) {
	tests := []struct {
		model string
		body  []byte
		want  string
	}{
		{"anthropic.claude-v2", et.NewResponseBuilder().WithCompletion(" hello ").BuildBytes(), "hello"},
		{"ai21.j2-ultra-v1", et.NewResponseBuilder().WithAI21Completions(" hi ").BuildBytes(), "hi"},
		{"mistral.mistral-7b-instruct-v0:2", et.NewResponseBuilder().WithOutputs("ok ").BuildBytes(), "ok "},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write(tt.body)
			}))
			defer server.Close()

			provider := bedrock.New(bedrock.Config{
				AccessKey: "AKID",
				SecretKey: "SECRET",
				Model:     tt.model,
				Endpoint:  server.URL,
			})

			if got := enhancer.New(provider).Fire(context.Background(), "a dog"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPipeline_BedrockEmptyOutputs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(et.NewResponseBuilder().WithOutputs().BuildBytes())
	}))
	defer server.Close()

	provider := bedrock.New(bedrock.Config{
		AccessKey: "AKID",
		SecretKey: "SECRET",
		Model:     "meta.llama2-13b-chat-v1",
		Endpoint:  server.URL,
	})

	result := enhancer.New(provider).FireWithInput(context.Background(), enhancer.Input{Prompt: "a dog"})
	if result.Kind != enhancer.KindResponse {
		t.Errorf("expected response kind, got %s (%q)", result.Kind, result.Text)
	}
}
