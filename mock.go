package enhancer

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider simulates an LLM for testing.
// It returns a deterministic rewrite of the prompt found in the instruction.
type MockProvider struct {
	name      string
	family    Family
	available bool
}

// NewMockProvider creates a new mock provider for testing.
func NewMockProvider() *MockProvider {
	return NewMockProviderWithName("mock")
}

// NewMockProviderWithName creates a new mock provider with a specific name.
func NewMockProviderWithName(name string) *MockProvider {
	return &MockProvider{
		name:      name,
		family:    FamilyChatCompletion,
		available: true,
	}
}

// Call returns "<prompt>, highly detailed" for the prompt part of the instruction.
func (m *MockProvider) Call(_ context.Context, instruction string) (*ProviderResponse, error) {
	if !m.available {
		return nil, fmt.Errorf("provider %s is unavailable", m.name)
	}
	return &ProviderResponse{
		Content: extractPrompt(instruction) + ", highly detailed",
		Model:   m.name,
	}, nil
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return m.name
}

// Family returns the family the mock pretends to be.
func (m *MockProvider) Family() Family {
	return m.family
}

// SetAvailable sets the availability status (for testing failures).
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// SetFamily changes the reported family.
func (m *MockProvider) SetFamily(family Family) {
	m.family = family
}

// extractPrompt returns the text after the first blank line.
func extractPrompt(instruction string) string {
	if _, prompt, ok := strings.Cut(instruction, "\n\n"); ok {
		return prompt
	}
	return instruction
}

// NewMockProviderWithResponse creates a mock that always returns a specific response.
func NewMockProviderWithResponse(response string) Provider {
	return &mockProviderFixed{response: response}
}

// NewMockProviderWithError creates a mock that always fails with err.
func NewMockProviderWithError(err error) Provider {
	return &mockProviderCallback{callback: func(string) (string, error) {
		return "", err
	}}
}

// NewMockProviderWithCallback creates a mock that calls a function to generate responses.
func NewMockProviderWithCallback(callback func(instruction string) (string, error)) Provider {
	return &mockProviderCallback{callback: callback}
}

// mockProviderFixed always returns a fixed response.
type mockProviderFixed struct {
	response string
}

func (m *mockProviderFixed) Call(_ context.Context, _ string) (*ProviderResponse, error) {
	return &ProviderResponse{Content: m.response}, nil
}

func (*mockProviderFixed) Name() string {
	return "mock-fixed"
}

func (*mockProviderFixed) Family() Family {
	return FamilyChatCompletion
}

// mockProviderCallback uses a callback to generate responses.
type mockProviderCallback struct {
	callback func(string) (string, error)
}

func (m *mockProviderCallback) Call(_ context.Context, instruction string) (*ProviderResponse, error) {
	content, err := m.callback(instruction)
	if err != nil {
		return nil, err
	}
	return &ProviderResponse{Content: content}, nil
}

func (*mockProviderCallback) Name() string {
	return "mock-callback"
}

func (*mockProviderCallback) Family() Family {
	return FamilyChatCompletion
}
