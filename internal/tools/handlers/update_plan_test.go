package handlers

import (
	"context"
	"testing"

	"github.com/mfateev/tradvisor-agent/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePlanTool_Acknowledges(t *testing.T) {
	tool := NewUpdatePlanTool()
	assert.Equal(t, "update_plan", tool.Name())

	for _, args := range []string{`{"steps":[],"is_complete":false}`, "{broken"} {
		out, err := tool.Handle(context.Background(), &tools.ToolInvocation{
			CallID:    "call_1",
			ToolName:  "update_plan",
			Arguments: args,
		})
		require.NoError(t, err)
		require.NotNil(t, out.Success)
		assert.True(t, *out.Success)
		assert.JSONEq(t, `{"status":"ok","message":"Plan updated. Continue with next step."}`, out.Content)
	}
}

func TestNewDefaultRouter(t *testing.T) {
	router := NewDefaultRouter()
	assert.True(t, router.Registry().HasTool(tools.ToolUpdatePlan))

	out := router.Execute(context.Background(), &tools.ToolInvocation{ToolName: "update_plan", Arguments: "{}"})
	assert.Contains(t, out, `"status":"ok"`)
}
