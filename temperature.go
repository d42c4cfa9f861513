package enhancer

// Sampling defaults shared by the multi-model request shapes.
const (
	// DefaultTemperature is sent with every multi-model inference request.
	DefaultTemperature float32 = 0.7

	// DefaultMaxTokens bounds anthropic and ai21 completions.
	DefaultMaxTokens = 500

	// GenericMaxTokens bounds generic instruction-tuned completions.
	GenericMaxTokens = 400

	// GenericTopP and GenericTopK are nucleus and top-k sampling for the
	// generic instruction template.
	GenericTopP float32 = 0.7
	GenericTopK         = 50
)
