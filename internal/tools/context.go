package tools

// ToolInvocation provides context for a locally-handled tool call.
type ToolInvocation struct {
	CallID    string `json:"call_id"`
	ToolName  string `json:"tool_name"`
	Arguments string `json:"arguments"` // Raw JSON exactly as sent by the model
}

// ToolOutput represents the result of local tool execution. Content is
// echoed back to the model verbatim as the function_call_output.
type ToolOutput struct {
	Content string `json:"content"`
	Success *bool  `json:"success,omitempty"`
}
