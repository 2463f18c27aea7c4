// Package provider implements the model port: the interface the turn engine
// uses to call a language model, plus an OpenAI-compatible adapter.
package provider

import (
	"context"
	"time"

	"github.com/alexk-dev/golemcore-bot-sub013/internal/domain"
)

// LLMProvider is the model port consumed by the tool loop and the feedback
// guarantee. Implementations must be safe for concurrent use.
type LLMProvider interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// Available reports whether the provider is configured well enough to
	// attempt a call.
	Available() bool
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// ChatRequest contains the parameters for a chat completion request.
type ChatRequest struct {
	SystemPrompt string
	Messages     []domain.Message
	Tools        []ToolDefinition
	ToolOutcomes map[string]domain.ToolOutcome
	Model        string
	Reasoning    string
	MaxTokens    int
	Temperature  float64
}

// ChatResponse contains the response from a chat completion request.
type ChatResponse struct {
	Content      string
	ToolCalls    []domain.ToolCall
	FinishReason string
	Usage        Usage
}

// HasToolCalls reports whether the response requests tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	TotalTokens      int           `json:"total_tokens"`
	Latency          time.Duration `json:"-"`
}

// ToolDefinition defines a tool that can be called by the model.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef describes a callable function.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
