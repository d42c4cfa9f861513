// Package testing provides utilities for testing enhancer pipelines and nodes.
package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/enhancer"
)

// Provider name constants for test helpers.
const (
	SequencedProviderName = "sequenced-mock"
	FailingProviderName   = "failing-mock"
)

// ResponseBuilder provides a fluent interface for constructing vendor
// response bodies, for use behind an httptest server.
type ResponseBuilder struct {
	data map[string]any
}

// NewResponseBuilder creates an empty ResponseBuilder.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{
		data: make(map[string]any),
	}
}

// NewChatResponse starts a chat-completion body with a single choice.
func NewChatResponse(content string) *ResponseBuilder {
	return NewResponseBuilder().WithChoices(content)
}

// WithChoices sets one assistant choice per content string.
func (b *ResponseBuilder) WithChoices(contents ...string) *ResponseBuilder {
	choices := make([]map[string]any, 0, len(contents))
	for i, content := range contents {
		choices = append(choices, map[string]any{
			"index":         i,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		})
	}
	b.data["choices"] = choices
	return b
}

// WithUsage sets chat-completion token usage.
func (b *ResponseBuilder) WithUsage(prompt, completion int) *ResponseBuilder {
	b.data["usage"] = map[string]int{
		"prompt_tokens":     prompt,
		"completion_tokens": completion,
		"total_tokens":      prompt + completion,
	}
	return b
}

// WithCompletion sets the anthropic-family "completion" field.
func (b *ResponseBuilder) WithCompletion(text string) *ResponseBuilder {
	b.data["completion"] = text
	return b
}

// WithAI21Completions sets ai21-family completions, one per text.
func (b *ResponseBuilder) WithAI21Completions(texts ...string) *ResponseBuilder {
	completions := make([]map[string]any, 0, len(texts))
	for _, text := range texts {
		completions = append(completions, map[string]any{
			"data": map[string]string{"text": text},
		})
	}
	b.data["completions"] = completions
	return b
}

// WithOutputs sets generic-instruct outputs, one per text.
func (b *ResponseBuilder) WithOutputs(texts ...string) *ResponseBuilder {
	outputs := make([]map[string]string, 0, len(texts))
	for _, text := range texts {
		outputs = append(outputs, map[string]string{"text": text})
	}
	b.data["outputs"] = outputs
	return b
}

// WithField sets an arbitrary field.
func (b *ResponseBuilder) WithField(key string, value any) *ResponseBuilder {
	b.data[key] = value
	return b
}

// Build returns the JSON string representation of the response.
func (b *ResponseBuilder) Build() string {
	return string(b.BuildBytes())
}

// BuildBytes returns the JSON bytes of the response.
func (b *ResponseBuilder) BuildBytes() []byte {
	jsonBytes, err := json.Marshal(b.data)
	if err != nil {
		return []byte("{}")
	}
	return jsonBytes
}

// SequencedProvider returns responses in sequence.
// After all responses are exhausted, it returns the last response repeatedly.
type SequencedProvider struct {
	responses []string
	index     atomic.Int64
	family    enhancer.Family
}

// NewSequencedProvider creates a provider that returns responses in order.
func NewSequencedProvider(responses ...string) *SequencedProvider {
	if len(responses) == 0 {
		responses = []string{"no responses configured"}
	}
	return &SequencedProvider{
		responses: responses,
		family:    enhancer.FamilyChatCompletion,
	}
}

// WithFamily sets the family the provider reports.
func (p *SequencedProvider) WithFamily(family enhancer.Family) *SequencedProvider {
	p.family = family
	return p
}

// Call returns the next response in sequence.
func (p *SequencedProvider) Call(_ context.Context, _ string) (*enhancer.ProviderResponse, error) {
	idx := p.index.Add(1) - 1

	// Clamp to last response if exhausted
	if int(idx) >= len(p.responses) {
		idx = int64(len(p.responses) - 1)
	}

	return &enhancer.ProviderResponse{
		Content: p.responses[idx],
		Usage: &enhancer.TokenUsage{
			Prompt:     100,
			Completion: 50,
			Total:      150,
		},
	}, nil
}

// Name returns the provider identifier.
func (*SequencedProvider) Name() string {
	return SequencedProviderName
}

// Family returns the configured family.
func (p *SequencedProvider) Family() enhancer.Family {
	return p.family
}

// CallCount returns the number of calls made.
func (p *SequencedProvider) CallCount() int {
	return int(p.index.Load())
}

// Reset resets the call counter.
func (p *SequencedProvider) Reset() {
	p.index.Store(0)
}

// FailingProvider fails a specified number of times before succeeding.
type FailingProvider struct {
	failCount    int
	currentCount atomic.Int64
	successResp  string
	failErr      error
}

// NewFailingProvider creates a provider that fails failCount times then succeeds.
func NewFailingProvider(failCount int) *FailingProvider {
	return &FailingProvider{
		failCount:   failCount,
		successResp: "recovered prompt",
		failErr:     fmt.Errorf("simulated provider failure"),
	}
}

// WithSuccessResponse sets the response returned after failures are exhausted.
func (p *FailingProvider) WithSuccessResponse(response string) *FailingProvider {
	p.successResp = response
	return p
}

// WithFailError sets the error returned for failures.
// Use an *enhancer.ProviderError to exercise classification.
func (p *FailingProvider) WithFailError(err error) *FailingProvider {
	p.failErr = err
	return p
}

// Call fails until failCount is reached, then succeeds.
func (p *FailingProvider) Call(_ context.Context, _ string) (*enhancer.ProviderResponse, error) {
	count := p.currentCount.Add(1)
	if int(count) <= p.failCount {
		return nil, fmt.Errorf("attempt %d/%d: %w", count, p.failCount, p.failErr)
	}

	return &enhancer.ProviderResponse{
		Content: p.successResp,
		Usage: &enhancer.TokenUsage{
			Prompt:     100,
			Completion: 50,
			Total:      150,
		},
	}, nil
}

// Name returns the provider identifier.
func (*FailingProvider) Name() string {
	return FailingProviderName
}

// Family returns enhancer.FamilyChatCompletion.
func (*FailingProvider) Family() enhancer.Family {
	return enhancer.FamilyChatCompletion
}

// CallCount returns the number of calls made.
func (p *FailingProvider) CallCount() int {
	return int(p.currentCount.Load())
}

// Reset resets the call counter.
func (p *FailingProvider) Reset() {
	p.currentCount.Store(0)
}

// RecordedCall represents a single call to a provider.
type RecordedCall struct {
	Instruction string
	At          time.Time
}

// CallRecorder wraps a provider and records all calls made to it.
type CallRecorder struct {
	provider enhancer.Provider
	calls    []RecordedCall
	mu       sync.Mutex
}

// NewCallRecorder wraps a provider with call recording.
func NewCallRecorder(provider enhancer.Provider) *CallRecorder {
	return &CallRecorder{
		provider: provider,
		calls:    make([]RecordedCall, 0),
	}
}

// Call delegates to the wrapped provider and records the call.
func (r *CallRecorder) Call(ctx context.Context, instruction string) (*enhancer.ProviderResponse, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RecordedCall{
		Instruction: instruction,
		At:          time.Now(),
	})
	r.mu.Unlock()

	return r.provider.Call(ctx, instruction)
}

// Name returns the wrapped provider's name.
func (r *CallRecorder) Name() string {
	return r.provider.Name()
}

// Family returns the wrapped provider's family.
func (r *CallRecorder) Family() enhancer.Family {
	return r.provider.Family()
}

// Calls returns a copy of all recorded calls.
func (r *CallRecorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]RecordedCall, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns the number of calls recorded.
func (r *CallRecorder) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// LastCall returns the most recent call, or nil if no calls made.
func (r *CallRecorder) LastCall() *RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.calls) == 0 {
		return nil
	}
	call := r.calls[len(r.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (r *CallRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make([]RecordedCall, 0)
}

// LatencyProvider wraps a provider and adds artificial latency.
type LatencyProvider struct {
	provider enhancer.Provider
	delay    time.Duration
}

// NewLatencyProvider wraps a provider with artificial delay.
// The delay is applied before each provider call and respects context cancellation.
func NewLatencyProvider(provider enhancer.Provider, delay time.Duration) *LatencyProvider {
	return &LatencyProvider{
		provider: provider,
		delay:    delay,
	}
}

// Call adds latency then delegates to the wrapped provider.
func (p *LatencyProvider) Call(ctx context.Context, instruction string) (*enhancer.ProviderResponse, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.provider.Call(ctx, instruction)
}

// Name returns the wrapped provider's name.
func (p *LatencyProvider) Name() string {
	return p.provider.Name()
}

// Family returns the wrapped provider's family.
func (p *LatencyProvider) Family() enhancer.Family {
	return p.provider.Family()
}

// UsageAccumulator tracks total token usage across multiple calls.
type UsageAccumulator struct {
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
	totalTokens      atomic.Int64
	callCount        atomic.Int64
}

// NewUsageAccumulator creates a new usage accumulator.
func NewUsageAccumulator() *UsageAccumulator {
	return &UsageAccumulator{}
}

// Add accumulates usage from a result. Failed results carry no usage.
func (a *UsageAccumulator) Add(result enhancer.Result) {
	a.AddUsage(result.Usage)
}

// AddUsage accumulates usage directly.
func (a *UsageAccumulator) AddUsage(usage *enhancer.TokenUsage) {
	if usage != nil {
		a.promptTokens.Add(int64(usage.Prompt))
		a.completionTokens.Add(int64(usage.Completion))
		a.totalTokens.Add(int64(usage.Total))
		a.callCount.Add(1)
	}
}

// PromptTokens returns total prompt tokens.
func (a *UsageAccumulator) PromptTokens() int {
	return int(a.promptTokens.Load())
}

// CompletionTokens returns total completion tokens.
func (a *UsageAccumulator) CompletionTokens() int {
	return int(a.completionTokens.Load())
}

// TotalTokens returns total tokens.
func (a *UsageAccumulator) TotalTokens() int {
	return int(a.totalTokens.Load())
}

// CallCount returns the number of calls with usage.
func (a *UsageAccumulator) CallCount() int {
	return int(a.callCount.Load())
}

// Reset clears all accumulated usage.
func (a *UsageAccumulator) Reset() {
	a.promptTokens.Store(0)
	a.completionTokens.Store(0)
	a.totalTokens.Store(0)
	a.callCount.Store(0)
}
