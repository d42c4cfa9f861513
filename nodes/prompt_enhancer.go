package nodes

import (
	"context"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/providers/openai"
)

// Registered node names.
const (
	PromptEnhancerName             = "Prompt Enhancer"
	PromptEnhancerConditioningName = "Prompt Enhancer with Conditioning"
)

type promptInputs struct {
	Prompt     MultilineText `json:"prompt" desc:"Prompt to improve"`
	BasePrompt MultilineText `json:"base_prompt,omitempty" desc:"Instruction placed before the prompt"`
	APIKey     string        `json:"openai_api_key,omitempty" desc:"Overrides the configured OpenAI key"`
	Model      string        `json:"model,omitempty" desc:"Chat model, defaults to gpt-3.5-turbo"`
}

type conditioningInputs struct {
	Prompt       MultilineText         `json:"prompt" desc:"Prompt to improve"`
	Conditioning enhancer.Conditioning `json:"conditioning" desc:"Returned unchanged when enhancement fails"`
	BasePrompt   MultilineText         `json:"base_prompt,omitempty" desc:"Instruction placed before the prompt"`
	APIKey       string                `json:"openai_api_key,omitempty" desc:"Overrides the configured OpenAI key"`
	Model        string                `json:"model,omitempty" desc:"Chat model, defaults to gpt-3.5-turbo"`
}

// PromptEnhancer improves a prompt with a chat-completion model.
type PromptEnhancer struct {
	spec    Spec
	config openai.Config
	base   *enhancer.Enhancer
}

// NewPromptEnhancer creates the text-only chat node.
func NewPromptEnhancer(config openai.Config, opts ...enhancer.Option) *PromptEnhancer {
	return &PromptEnhancer{
		spec: Spec{
			Name:        PromptEnhancerName,
			Description: "Enhances a prompt using a chat-completion model.",
			Category:    Category,
			Input:       inspectInputs[promptInputs](),
			Output:      []string{TypeString},
			OutputName:  []string{"enhanced_prompt"},
		},
		config: config,
		base:   enhancer.New(openai.New(config), opts...),
	}
}

// Spec returns the node declaration.
func (n *PromptEnhancer) Spec() Spec {
	return n.spec
}

// Execute returns a single STRING output.
func (n *PromptEnhancer) Execute(ctx context.Context, inputs map[string]any) []any {
	if err := validate(n.spec, inputs); err != nil {
		return []any{enhancer.FormatError(err)}
	}

	result := chatEnhancer(n.base, n.config, inputs).FireWithInput(ctx, enhancer.Input{
		BasePrompt: str(inputs, "base_prompt"),
		Prompt:     str(inputs, "prompt"),
	})
	return []any{result.Text}
}

// PromptEnhancerWithConditioning improves a prompt and re-encodes the reply
// into a new conditioning value.
type PromptEnhancerWithConditioning struct {
	spec    Spec
	config  openai.Config
	encoder enhancer.TextEncoder
	base    *enhancer.Enhancer
}

// NewPromptEnhancerWithConditioning creates the conditioning chat node.
// A nil encoder makes every call keep the incoming conditioning.
func NewPromptEnhancerWithConditioning(config openai.Config, encoder enhancer.TextEncoder, opts ...enhancer.Option) *PromptEnhancerWithConditioning {
	return &PromptEnhancerWithConditioning{
		spec: Spec{
			Name:        PromptEnhancerConditioningName,
			Description: "Enhances a prompt and outputs conditioning encoded from the reply.",
			Category:    Category,
			Input:       inspectInputs[conditioningInputs](),
			Output:      []string{TypeString, TypeConditioning},
			OutputName:  []string{"enhanced_prompt", "enhanced_conditioning"},
		},
		config:  config,
		encoder: encoder,
		base:    enhancer.New(openai.New(config), opts...),
	}
}

// Spec returns the node declaration.
func (n *PromptEnhancerWithConditioning) Spec() Spec {
	return n.spec
}

// Execute returns STRING and CONDITIONING outputs. The incoming conditioning
// is handed back unchanged on any failure, including invalid inputs.
func (n *PromptEnhancerWithConditioning) Execute(ctx context.Context, inputs map[string]any) []any {
	cond := inputs["conditioning"]
	if err := validate(n.spec, inputs); err != nil {
		return []any{enhancer.FormatError(err), cond}
	}

	result := chatEnhancer(n.base, n.config, inputs).FireWithConditioning(ctx, enhancer.Input{
		BasePrompt: str(inputs, "base_prompt"),
		Prompt:     str(inputs, "prompt"),
	}, cond, n.encoder)
	return []any{result.Text, result.Conditioning}
}

// chatEnhancer returns the configured enhancer, or one calling a per-call
// provider through the same pipeline when the inputs override the key or the
// model.
func chatEnhancer(base *enhancer.Enhancer, config openai.Config, inputs map[string]any) *enhancer.Enhancer {
	key, model := str(inputs, "openai_api_key"), str(inputs, "model")
	if key == "" && model == "" {
		return base
	}
	if key != "" {
		config.APIKey = key
	}
	if model != "" {
		config.Model = model
	}
	return base.Using(openai.New(config))
}
