package nodes

import (
	"errors"
	"fmt"
)

// Input validation errors.
var (
	ErrMissingInput = errors.New("missing required input")
	ErrInputType    = errors.New("invalid input type")
)

// validate checks inputs against the node's Spec before any provider is built.
// Unknown inputs are ignored; the host may send extra widgets.
func validate(spec Spec, inputs map[string]any) error {
	for _, in := range spec.Input.Required {
		v, ok := inputs[in.Name]
		if !ok || v == nil {
			return fmt.Errorf("%w %q", ErrMissingInput, in.Name)
		}
	}
	for name, v := range inputs {
		in, _, ok := spec.Lookup(name)
		if !ok || v == nil || in.Type != TypeString {
			continue
		}
		if _, isString := v.(string); !isString {
			return fmt.Errorf("%w: %q must be a string, got %T", ErrInputType, name, v)
		}
	}
	return nil
}

// str returns a validated string input, or "" when it is absent.
func str(inputs map[string]any, name string) string {
	s, _ := inputs[name].(string)
	return s
}
