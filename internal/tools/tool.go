// Package tools provides the tool framework and the tool executor port used
// by the agent's tool loop.
package tools

import (
	"github.com/alexk-dev/golemcore-bot-sub013/internal/policy"
	"github.com/alexk-dev/golemcore-bot-sub013/internal/provider"
)

// Tool is the interface that all agent tools must implement.
type Tool interface {
	// Name returns the tool identifier used in function calls.
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON Schema for tool parameters.
	Parameters() map[string]any
	// Execute runs the tool with the given parameters.
	// Returns result string and error. On error, return user-friendly message.
	Execute(ctx Context, params map[string]any) (string, error)
}

// TieredTool is an optional interface for tools that declare a risk tier.
// Tools without it default to read-only.
type TieredTool interface {
	Tool
	Tier() int
}

// ToolTier returns the risk tier for a tool.
func ToolTier(t Tool) int {
	if tt, ok := t.(TieredTool); ok {
		return tt.Tier()
	}
	return policy.TierReadOnly
}

// Registry manages tool registration and lookup.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	if _, ok := r.tools[tool.Name()]; !ok {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools in registration order.
func (r *Registry) List() []Tool {
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Definitions returns tool definitions for the model request.
func (r *Registry) Definitions() []provider.ToolDefinition {
	result := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		result = append(result, provider.ToolDefinition{
			Type: "function",
			Function: provider.FunctionDef{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return result
}

// GetString extracts a string parameter with a default value.
func GetString(params map[string]any, key string, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

// GetInt extracts an int parameter with a default value.
func GetInt(params map[string]any, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

// GetBool extracts a bool parameter with a default value.
func GetBool(params map[string]any, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}
