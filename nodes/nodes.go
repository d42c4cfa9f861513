// Package nodes exposes the enhancer to a node-graph host.
//
// Each node declares its inputs with a tagged Go struct. The struct is read
// with sentinel to build the Spec the host renders, so the declaration and
// the schema cannot drift apart:
//
//	type myInputs struct {
//		Prompt     MultilineText `json:"prompt" desc:"Prompt to improve"`
//		BasePrompt string        `json:"base_prompt,omitempty"`
//	}
//
// Execute never returns an error. Failures are reported as an "Error: ..."
// string in the first output slot, exactly like a failed provider call.
package nodes

import (
	"context"
	"strings"

	"github.com/zoobzio/sentinel"
)

// Socket types understood by the host.
const (
	TypeString       = "STRING"
	TypeConditioning = "CONDITIONING"
)

// Category groups all enhancer nodes in the host's menu.
const Category = "Utilities"

// MultilineText marks a string input rendered as a multiline text box.
type MultilineText string

// Node is a unit the host can place in a graph.
type Node interface {
	Spec() Spec
	Execute(ctx context.Context, inputs map[string]any) []any
}

// InputSpec describes one input socket or widget.
type InputSpec struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Multiline bool   `json:"multiline,omitempty"`
	Tooltip   string `json:"tooltip,omitempty"`
}

// Inputs splits input declarations the way the host expects them.
type Inputs struct {
	Required []InputSpec `json:"required"`
	Optional []InputSpec `json:"optional,omitempty"`
}

// Spec is the declarative description of a node.
type Spec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category"`
	Input       Inputs   `json:"input"`
	Output      []string `json:"output"`
	OutputName  []string `json:"output_name"`
}

// Lookup finds an input declaration by name. The second result reports
// whether the input is required, the third whether it exists.
func (s Spec) Lookup(name string) (InputSpec, bool, bool) {
	for _, in := range s.Input.Required {
		if in.Name == name {
			return in, true, true
		}
	}
	for _, in := range s.Input.Optional {
		if in.Name == name {
			return in, false, true
		}
	}
	return InputSpec{}, false, false
}

// inspectInputs builds input declarations from the fields of T.
func inspectInputs[T any]() Inputs {
	metadata := sentinel.Inspect[T]()

	var inputs Inputs
	for _, field := range metadata.Fields {
		name := inputName(field)
		if name == "-" {
			continue
		}

		spec := InputSpec{
			Name: name,
			Type: socketType(field.Type),
		}
		if strings.HasSuffix(field.Type, "MultilineText") {
			spec.Multiline = true
		}
		if desc, ok := field.Tags["desc"]; ok {
			spec.Tooltip = desc
		}

		if optional(field) {
			inputs.Optional = append(inputs.Optional, spec)
		} else {
			inputs.Required = append(inputs.Required, spec)
		}
	}
	return inputs
}

// inputName extracts the input name from the json tag.
func inputName(field sentinel.FieldMetadata) string {
	if tag, ok := field.Tags["json"]; ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return strings.ToLower(field.Name[:1]) + field.Name[1:]
}

// optional reports whether the json tag carries omitempty.
func optional(field sentinel.FieldMetadata) bool {
	if tag, ok := field.Tags["json"]; ok {
		return strings.Contains(tag, "omitempty")
	}
	return false
}

// socketType maps a Go field type to the host socket type.
func socketType(goType string) string {
	if strings.HasSuffix(goType, "Conditioning") {
		return TypeConditioning
	}
	return TypeString
}
