// Package enhancer turns short image-generation prompts into richer ones by
// forwarding them to a hosted LLM and returning the reply.
//
// The package is a thin adapter: an instruction is composed from an optional
// base prompt and the user's prompt, a single provider call is made through a
// pipz pipeline, and the reply is handed back as plain text. Failures never
// escape; they come back as "Error: <description>" in the same text slot so a
// host graph engine can keep running.
//
// Two provider families are supported:
//
//   - Chat completion (OpenAI, Azure OpenAI)
//   - Multi-model inference (AWS Bedrock), shaped per model family:
//     anthropic, ai21, or a generic instruction-tuned model
//
// Basic usage:
//
//	provider := openai.New(openai.Config{APIKey: key})
//	e := enhancer.New(provider)
//	fmt.Println(e.Fire(ctx, "a dog"))
package enhancer

import "context"

// Provider defines the interface for LLM providers.
// A provider owns the vendor request shape for its family and returns the
// extracted reply text.
type Provider interface {
	// Call sends the composed instruction to the vendor exactly once.
	Call(ctx context.Context, instruction string) (*ProviderResponse, error)

	// Name returns the provider identifier (e.g. "openai", "bedrock").
	Name() string

	// Family reports how requests are shaped and replies parsed.
	Family() Family
}

// TokenUsage contains token counts from a provider response.
type TokenUsage struct {
	Prompt     int // Tokens used by the instruction
	Completion int // Tokens used by the reply
	Total      int // Total tokens used
}

// ProviderResponse contains the reply from an LLM provider.
type ProviderResponse struct {
	Content string      // Extracted reply text
	Model   string      // Model that produced the reply, when reported
	Usage   *TokenUsage // Token usage, nil when the vendor does not report it
}

// Input is the user-facing part of an enhancement call.
type Input struct {
	BasePrompt string // Optional instruction prefix, DefaultInstruction when empty
	Prompt     string // Text to improve
}

// EnhanceRequest flows through the pipz pipeline.
// It contains the composed instruction, metadata, and the provider output.
type EnhanceRequest struct {
	// Input fields
	Input       Input
	Instruction string

	// Metadata fields
	Provider     Provider // Called by the terminal stage; nil uses the pipeline's own
	RequestID    string
	ProviderName string
	Family       Family

	// Output fields (populated by pipeline)
	Response string
	Model    string
	Usage    *TokenUsage
}
