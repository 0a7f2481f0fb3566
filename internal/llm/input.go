package llm

import "github.com/mfateev/tradvisor-agent/internal/models"

// InputItemType tags the variants of InputItem.
type InputItemType string

const (
	InputTypeMessage            InputItemType = "message"
	InputTypeFunctionCallOutput InputItemType = "function_call_output"
)

// InputItem is one element of a turn's input sequence. buildInput maps it
// onto the SDK's input item params.
//
// Variant field mapping:
//
//	message:              Role, Content
//	function_call_output: CallID, Output
type InputItem struct {
	Type InputItemType

	Role    models.Role
	Content string

	CallID string
	Output string
}

// NewMessageInput creates a plain-text message item.
func NewMessageInput(role models.Role, content string) InputItem {
	return InputItem{Type: InputTypeMessage, Role: role, Content: content}
}

// NewFunctionCallOutput creates the echo of a locally-handled tool result.
func NewFunctionCallOutput(callID, output string) InputItem {
	return InputItem{Type: InputTypeFunctionCallOutput, CallID: callID, Output: output}
}
