package nodes

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/providers/bedrock"
	"github.com/zoobzio/enhancer/providers/openai"
)

// ErrDuplicateNode is returned when a node name is registered twice.
var ErrDuplicateNode = errors.New("node already registered")

// Registry maps node names to nodes, keeping registration order.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Register adds a node under its spec name.
func (r *Registry) Register(node Node) error {
	name := node.Spec().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	r.nodes[name] = node
	r.order = append(r.order, name)
	return nil
}

// MustRegister is like Register but panics on a duplicate name.
func (r *Registry) MustRegister(node Node) {
	if err := r.Register(node); err != nil {
		panic(err)
	}
}

// Get returns the node registered under name.
func (r *Registry) Get(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	node, ok := r.nodes[name]
	return node, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns every node spec keyed by name.
func (r *Registry) Specs() map[string]Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make(map[string]Spec, len(r.nodes))
	for name, node := range r.nodes {
		specs[name] = node.Spec()
	}
	return specs
}

// Config carries everything the built-in nodes need.
type Config struct {
	OpenAI  openai.Config
	Bedrock bedrock.Config
	Encoder enhancer.TextEncoder
	Options []enhancer.Option
}

// Default registers the three built-in nodes.
func Default(config Config) *Registry {
	r := NewRegistry()
	r.MustRegister(NewPromptEnhancer(config.OpenAI, config.Options...))
	r.MustRegister(NewPromptEnhancerWithConditioning(config.OpenAI, config.Encoder, config.Options...))
	r.MustRegister(NewBedrockEnhancer(config.Bedrock, config.Options...))
	return r
}
