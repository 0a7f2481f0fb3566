// Package tools provides the tool catalog offered to the remote model and
// the registry of locally-handled tools.
//
// Two tools (web search, code execution) run on the remote service and are
// declared by capability only. update_plan is a structured function tool
// whose calls are intercepted and answered locally.
package tools

// Tool names as they appear in tool_call events.
const (
	ToolWebSearch     = "web_search"
	ToolCodeExecution = "code_execution"
	ToolUpdatePlan    = "update_plan"
)

// ToolKind classifies where a tool executes.
type ToolKind int

const (
	ToolKindFunction        ToolKind = iota // Locally handled function tool
	ToolKindWebSearch                       // Server-executed web search
	ToolKindCodeInterpreter                 // Server-executed code sandbox
)

// ToolSpec defines the specification for a tool (sent to the model with
// every request). Server-executed tools carry only Kind and Name.
type ToolSpec struct {
	Kind        ToolKind        `json:"-"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

// ToolParameter defines a parameter for a function tool.
type ToolParameter struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Required    bool                   `json:"required"`
	Items       map[string]interface{} `json:"items,omitempty"` // JSON Schema for array elements
}

// IsLocal reports whether calls to this tool are answered by this process.
func (s ToolSpec) IsLocal() bool {
	return s.Kind == ToolKindFunction
}

// JSONSchema renders the function parameters as a JSON Schema object.
// Returns nil for server-executed tools.
func (s ToolSpec) JSONSchema() map[string]interface{} {
	if !s.IsLocal() {
		return nil
	}

	properties := make(map[string]interface{}, len(s.Parameters))
	required := make([]string, 0)

	for _, p := range s.Parameters {
		prop := map[string]interface{}{
			"type": p.Type,
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Items != nil {
			prop["items"] = p.Items
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// NewWebSearchToolSpec declares the server-side web search capability.
func NewWebSearchToolSpec() ToolSpec {
	return ToolSpec{Kind: ToolKindWebSearch, Name: ToolWebSearch}
}

// NewCodeInterpreterToolSpec declares the server-side Python sandbox.
func NewCodeInterpreterToolSpec() ToolSpec {
	return ToolSpec{Kind: ToolKindCodeInterpreter, Name: ToolCodeExecution}
}
