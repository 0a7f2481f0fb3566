package tools

import (
	"context"
	"encoding/json"
)

// ToolRouter wraps a ToolRegistry for dispatch of locally-handled calls.
type ToolRouter struct {
	registry *ToolRegistry
}

// NewToolRouter creates a new ToolRouter.
func NewToolRouter(registry *ToolRegistry) *ToolRouter {
	return &ToolRouter{registry: registry}
}

// DispatchToolCall dispatches a tool invocation to the appropriate handler.
func (r *ToolRouter) DispatchToolCall(ctx context.Context, invocation *ToolInvocation) (*ToolOutput, error) {
	handler, err := r.registry.GetHandler(invocation.ToolName)
	if err != nil {
		return nil, err
	}
	return handler.Handle(ctx, invocation)
}

// Execute dispatches the invocation and always produces the string that is
// echoed back to the model. Failures (including unknown tools) become a
// JSON error object so the model can see what went wrong.
func (r *ToolRouter) Execute(ctx context.Context, invocation *ToolInvocation) string {
	out, err := r.DispatchToolCall(ctx, invocation)
	if err != nil {
		return errorJSON(err.Error())
	}
	if out == nil {
		return errorJSON("tool produced no output")
	}
	return out.Content
}

// Registry returns the underlying ToolRegistry.
func (r *ToolRouter) Registry() *ToolRegistry {
	return r.registry
}

func errorJSON(msg string) string {
	data, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(data)
}
