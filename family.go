package enhancer

import "strings"

// Family identifies how a request body is shaped and how the reply is read.
type Family int

// Provider families.
const (
	FamilyChatCompletion Family = iota
	FamilyAnthropic
	FamilyAI21
	FamilyGenericInstruct
)

// Model identifier prefixes used by the multi-model inference service.
const (
	anthropicPrefix = "anthropic"
	ai21Prefix      = "ai21"
)

// String returns the family name used in hook fields and logs.
func (f Family) String() string {
	switch f {
	case FamilyChatCompletion:
		return "chat-completion"
	case FamilyAnthropic:
		return "anthropic"
	case FamilyAI21:
		return "ai21"
	case FamilyGenericInstruct:
		return "generic-instruct"
	default:
		return "unknown"
	}
}

// ResolveFamily maps a multi-model service model identifier to its family.
// Identifiers starting with "anthropic" or "ai21" get their vendor shape,
// everything else is treated as a generic instruction-tuned model.
//
// The generic branch is applied even to models that do not understand the
// [INST] template (Titan, for one). This is a known limitation.
func ResolveFamily(modelID string) Family {
	switch {
	case strings.HasPrefix(modelID, anthropicPrefix):
		return FamilyAnthropic
	case strings.HasPrefix(modelID, ai21Prefix):
		return FamilyAI21
	default:
		return FamilyGenericInstruct
	}
}
