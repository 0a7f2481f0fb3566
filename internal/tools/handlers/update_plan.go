// Package handlers contains the locally-handled tool implementations.
package handlers

import (
	"context"

	"github.com/mfateev/tradvisor-agent/internal/tools"
)

// planAck is the acknowledgment returned to the model for every plan update.
const planAck = `{"status":"ok","message":"Plan updated. Continue with next step."}`

// UpdatePlanTool acknowledges update_plan calls. The plan itself is
// tracked by the agent loop from the call arguments; the handler only
// tells the model to carry on.
type UpdatePlanTool struct{}

// NewUpdatePlanTool creates a new update_plan handler.
func NewUpdatePlanTool() *UpdatePlanTool {
	return &UpdatePlanTool{}
}

// Name returns the tool's name.
func (t *UpdatePlanTool) Name() string {
	return tools.ToolUpdatePlan
}

// Handle returns the acknowledgment regardless of the argument payload;
// malformed arguments are already tolerated upstream.
func (t *UpdatePlanTool) Handle(_ context.Context, _ *tools.ToolInvocation) (*tools.ToolOutput, error) {
	success := true
	return &tools.ToolOutput{Content: planAck, Success: &success}, nil
}

// NewDefaultRegistry returns a registry with every locally-handled tool.
func NewDefaultRegistry() *tools.ToolRegistry {
	r := tools.NewToolRegistry()
	r.Register(NewUpdatePlanTool())
	return r
}

// NewDefaultRouter returns a router over NewDefaultRegistry.
func NewDefaultRouter() *tools.ToolRouter {
	return tools.NewToolRouter(NewDefaultRegistry())
}
