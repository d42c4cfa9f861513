package enhancer

import "github.com/zoobzio/capitan"

// Signals for hook events.
var (
	RequestStarted        = capitan.NewSignal("llm.request.started", "Enhancement request started")
	RequestCompleted      = capitan.NewSignal("llm.request.completed", "Enhancement request completed")
	RequestFailed         = capitan.NewSignal("llm.request.failed", "Enhancement request failed")
	ProviderCallStarted   = capitan.NewSignal("llm.provider.call.started", "Provider call started")
	ProviderCallCompleted = capitan.NewSignal("llm.provider.call.completed", "Provider call completed")
	ProviderCallFailed    = capitan.NewSignal("llm.provider.call.failed", "Provider call failed")
	ConditioningEncoded   = capitan.NewSignal("llm.conditioning.encoded", "Enhanced text re-encoded into conditioning")
	ConditioningKept      = capitan.NewSignal("llm.conditioning.kept", "Incoming conditioning returned unchanged")
	DebugInstruction      = capitan.NewSignal("llm.debug.instruction", "Instruction sent to the provider")
	DebugResponse         = capitan.NewSignal("llm.debug.response", "Raw provider reply or error")
)

// Keys for hook event fields.
var (
	// Request identification.
	RequestIDKey   = capitan.NewStringKey("llm.request.id")
	FamilyKey      = capitan.NewStringKey("llm.family")
	TemperatureKey = capitan.NewFloat64Key("llm.temperature")

	// Input/Output data.
	InputKey       = capitan.NewStringKey("llm.input")
	InstructionKey = capitan.NewStringKey("llm.instruction")
	OutputKey      = capitan.NewStringKey("llm.output")

	// Error information.
	ErrorKey     = capitan.NewStringKey("llm.error")
	ErrorKindKey = capitan.NewStringKey("llm.error.kind")

	// Provider information.
	ProviderKey = capitan.NewStringKey("llm.provider")
	ModelKey    = capitan.NewStringKey("llm.model")

	// Provider metrics.
	PromptTokensKey     = capitan.NewIntKey("llm.tokens.prompt")
	CompletionTokensKey = capitan.NewIntKey("llm.tokens.completion")
	TotalTokensKey      = capitan.NewIntKey("llm.tokens.total")
	DurationMsKey       = capitan.NewIntKey("llm.duration.ms")

	// HTTP/API metadata.
	HTTPStatusCodeKey = capitan.NewIntKey("llm.http.status.code")
	APIErrorTypeKey   = capitan.NewStringKey("llm.api.error.type")
	APIErrorCodeKey   = capitan.NewStringKey("llm.api.error.code")

	// Response metadata.
	ResponseIDKey           = capitan.NewStringKey("llm.response.id")
	ResponseFinishReasonKey = capitan.NewStringKey("llm.response.finish.reason")
)
