package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct {
	name string
	out  *ToolOutput
	err  error
	seen *ToolInvocation
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Handle(_ context.Context, inv *ToolInvocation) (*ToolOutput, error) {
	h.seen = inv
	return h.out, h.err
}

func TestToolRouter_DispatchesByName(t *testing.T) {
	h := &stubHandler{name: "echo", out: &ToolOutput{Content: "hi"}}
	reg := NewToolRegistry()
	reg.Register(h)
	router := NewToolRouter(reg)

	inv := &ToolInvocation{CallID: "call_1", ToolName: "echo", Arguments: `{"x":1}`}
	out := router.Execute(context.Background(), inv)

	assert.Equal(t, "hi", out)
	require.NotNil(t, h.seen)
	assert.Equal(t, "call_1", h.seen.CallID)
	assert.Equal(t, `{"x":1}`, h.seen.Arguments)
	assert.True(t, router.Registry().HasTool("echo"))
	assert.Equal(t, 1, router.Registry().ToolCount())
}

func TestToolRouter_UnknownFunction(t *testing.T) {
	router := NewToolRouter(NewToolRegistry())

	_, err := router.DispatchToolCall(context.Background(), &ToolInvocation{ToolName: "get_quote"})
	var unknown *UnknownToolError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "get_quote", unknown.Name)

	out := router.Execute(context.Background(), &ToolInvocation{ToolName: "get_quote"})
	assert.JSONEq(t, `{"error":"Unknown function: get_quote"}`, out)
}

func TestToolRouter_HandlerErrorBecomesJSON(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(&stubHandler{name: "boom", err: errors.New("exploded")})
	router := NewToolRouter(reg)

	out := router.Execute(context.Background(), &ToolInvocation{ToolName: "boom"})
	assert.JSONEq(t, `{"error":"exploded"}`, out)
}

func TestValidationError(t *testing.T) {
	err := NewValidationErrorf("input must contain at least %d item", 1)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "validation error: input must contain at least 1 item", err.Error())
	assert.False(t, IsValidationError(errors.New("other")))
}
