package tools

import "github.com/mfateev/tradvisor-agent/internal/models"

func init() {
	RegisterSpec(SpecEntry{Name: "web_search", Constructor: NewWebSearchToolSpec})
	RegisterSpec(SpecEntry{Name: "code_interpreter", Constructor: NewCodeInterpreterToolSpec})
	RegisterSpec(SpecEntry{Name: ToolUpdatePlan, Constructor: NewUpdatePlanToolSpec})
}

// NewUpdatePlanToolSpec creates the specification for the update_plan tool.
// Calls are intercepted locally; the user sees the plan in real time.
func NewUpdatePlanToolSpec() ToolSpec {
	statuses := make([]string, len(models.StepStatuses))
	for i, s := range models.StepStatuses {
		statuses[i] = string(s)
	}

	return ToolSpec{
		Kind: ToolKindFunction,
		Name: ToolUpdatePlan,
		Description: "Create or update the execution plan for the current task. " +
			"MUST be called at the START of every task to create a plan. " +
			"Call again after each major step to update progress. " +
			"The user sees this plan in real-time, so make steps clear and concise.",
		Parameters: []ToolParameter{
			{
				Name:        "task_summary",
				Type:        "string",
				Description: "One-line summary of the overall task",
			},
			{
				Name:     "steps",
				Type:     "array",
				Required: true,
				Items: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id": map[string]interface{}{
							"type": "integer",
						},
						"description": map[string]interface{}{
							"type": "string",
						},
						"status": map[string]interface{}{
							"type": "string",
							"enum": statuses,
						},
						"result": map[string]interface{}{
							"type":        "string",
							"description": "Brief result summary (when completed)",
						},
					},
					"required": []string{"id", "description", "status"},
				},
			},
			{
				Name:        "is_complete",
				Type:        "boolean",
				Description: "Set true when ALL steps are done and final analysis is ready",
				Required:    true,
			},
			{
				Name:        "explanation",
				Type:        "string",
				Description: "Optional one sentence on why this step and how it contributes. Shown to the user as 'thinking out loud'.",
			},
		},
	}
}
