package nodes

import (
	"context"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/providers/bedrock"
)

// BedrockEnhancerName is the registered name of the Bedrock node.
const BedrockEnhancerName = "Prompt Enhancer (Bedrock)"

type bedrockInputs struct {
	Prompt     MultilineText `json:"prompt" desc:"Prompt to improve"`
	BasePrompt MultilineText `json:"base_prompt,omitempty" desc:"Instruction placed before the prompt"`
	ModelID    string        `json:"model_id,omitempty" desc:"Bedrock model id, e.g. anthropic.claude-v2 or ai21.j2-ultra-v1"`
}

// BedrockEnhancer improves a prompt with a model hosted on AWS Bedrock.
// The request shape follows the model id prefix.
type BedrockEnhancer struct {
	spec   Spec
	config bedrock.Config
	base   *enhancer.Enhancer
}

// NewBedrockEnhancer creates the Bedrock node.
func NewBedrockEnhancer(config bedrock.Config, opts ...enhancer.Option) *BedrockEnhancer {
	return &BedrockEnhancer{
		spec: Spec{
			Name:        BedrockEnhancerName,
			Description: "Enhances a prompt using a model hosted on AWS Bedrock.",
			Category:    Category,
			Input:       inspectInputs[bedrockInputs](),
			Output:      []string{TypeString},
			OutputName:  []string{"enhanced_prompt"},
		},
		config: config,
		base:   enhancer.New(bedrock.New(config), opts...),
	}
}

// Spec returns the node declaration.
func (n *BedrockEnhancer) Spec() Spec {
	return n.spec
}

// Execute returns a single STRING output.
func (n *BedrockEnhancer) Execute(ctx context.Context, inputs map[string]any) []any {
	if err := validate(n.spec, inputs); err != nil {
		return []any{enhancer.FormatError(err)}
	}

	e := n.base
	if model := str(inputs, "model_id"); model != "" && model != n.config.Model {
		config := n.config
		config.Model = model
		e = n.base.Using(bedrock.New(config))
	}

	result := e.FireWithInput(ctx, enhancer.Input{
		BasePrompt: str(inputs, "base_prompt"),
		Prompt:     str(inputs, "prompt"),
	})
	return []any{result.Text}
}
