package enhancer

// DefaultInstruction is used when no base prompt is supplied.
const DefaultInstruction = "Improve the following prompt for better image generation:"

// Compose builds the single instruction message sent to the provider.
// The base prompt and the user prompt are joined by a blank line; no other
// framing is added.
func Compose(basePrompt, prompt string) string {
	if basePrompt == "" {
		basePrompt = DefaultInstruction
	}
	return basePrompt + "\n\n" + prompt
}

// Instruction returns the composed instruction for the input.
func (in Input) Instruction() string {
	return Compose(in.BasePrompt, in.Prompt)
}
