package llm

import (
	"encoding/json"
	"strings"
)

// Output item type tags as sent by the service.
const (
	ItemTypeWebSearchCall       = "web_search_call"
	ItemTypeCodeInterpreterCall = "code_interpreter_call"
	ItemTypeFunctionCall        = "function_call"
	ItemTypeMessage             = "message"
)

// OutputItem is one element of a turn's output. The set of variants is
// closed: WebSearchCall, CodeInterpreterCall, FunctionCall, Message and
// UnknownItem.
type OutputItem interface {
	ItemType() string
}

// WebSearchAction describes what a web search call did.
type WebSearchAction struct {
	Type    string   `json:"type,omitempty"` // "search", "open_page", "find"
	Query   string   `json:"query,omitempty"`
	Queries []string `json:"queries,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// WebSearchCall is a server-executed web search.
type WebSearchCall struct {
	ID     string           `json:"id"`
	Status string           `json:"status,omitempty"`
	Query  string           `json:"query,omitempty"` // flat shape used by some providers
	Action *WebSearchAction `json:"action,omitempty"`
}

func (WebSearchCall) ItemType() string { return ItemTypeWebSearchCall }

// SearchQuery returns the query text: action.query, then the flat query,
// then the first of action.queries.
func (c WebSearchCall) SearchQuery() string {
	if c.Action != nil && c.Action.Query != "" {
		return c.Action.Query
	}
	if c.Query != "" {
		return c.Query
	}
	if c.Action != nil {
		for _, q := range c.Action.Queries {
			if q != "" {
				return q
			}
		}
	}
	return ""
}

// URL returns the page the action opened, if any.
func (c WebSearchCall) URL() string {
	if c.Action == nil {
		return ""
	}
	return c.Action.URL
}

// CodeInterpreterOutput is one entry of a code call's outputs list.
type CodeInterpreterOutput struct {
	Type string `json:"type"` // "logs" or "image"
	Logs string `json:"logs,omitempty"`
	URL  string `json:"url,omitempty"`
}

// CodeInterpreterCall is a server-executed code run.
type CodeInterpreterCall struct {
	ID       string                  `json:"id"`
	Status   string                  `json:"status,omitempty"`
	Code     string                  `json:"code,omitempty"`
	Language string                  `json:"language,omitempty"`
	Output   string                  `json:"output,omitempty"` // flat shape
	Error    string                  `json:"error,omitempty"`
	Outputs  []CodeInterpreterOutput `json:"outputs,omitempty"`
}

func (CodeInterpreterCall) ItemType() string { return ItemTypeCodeInterpreterCall }

// OutputText returns the flat output when present, otherwise the
// concatenated logs of the outputs list.
func (c CodeInterpreterCall) OutputText() string {
	if c.Output != "" {
		return c.Output
	}
	var sb strings.Builder
	for _, o := range c.Outputs {
		if o.Type == "logs" || o.Logs != "" {
			sb.WriteString(o.Logs)
		}
	}
	return sb.String()
}

// FunctionCall is a request to invoke a locally-handled tool.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Status    string `json:"status,omitempty"`
}

func (FunctionCall) ItemType() string { return ItemTypeFunctionCall }

// MessageContent is one part of an assistant message.
type MessageContent struct {
	Type string `json:"type"` // "output_text", "refusal", ...
	Text string `json:"text,omitempty"`
}

// Message is assistant text output.
type Message struct {
	ID      string           `json:"id,omitempty"`
	Role    string           `json:"role,omitempty"`
	Status  string           `json:"status,omitempty"`
	Content []MessageContent `json:"content"`
}

func (Message) ItemType() string { return ItemTypeMessage }

// UnknownItem carries any item type this package does not model, or a
// known type whose body failed to decode.
type UnknownItem struct {
	Type string
	Raw  json.RawMessage
	Err  error // set when a known type failed to decode
}

func (u UnknownItem) ItemType() string { return u.Type }

// DecodeOutputItem decodes one raw output item by its "type" tag.
func DecodeOutputItem(raw json.RawMessage) OutputItem {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return UnknownItem{Raw: raw, Err: err}
	}

	var (
		item OutputItem
		err  error
	)
	switch head.Type {
	case ItemTypeWebSearchCall:
		var v WebSearchCall
		err = json.Unmarshal(raw, &v)
		item = v
	case ItemTypeCodeInterpreterCall:
		var v CodeInterpreterCall
		err = json.Unmarshal(raw, &v)
		item = v
	case ItemTypeFunctionCall:
		var v FunctionCall
		err = json.Unmarshal(raw, &v)
		item = v
	case ItemTypeMessage:
		var v Message
		err = json.Unmarshal(raw, &v)
		item = v
	default:
		return UnknownItem{Type: head.Type, Raw: raw}
	}
	if err != nil {
		return UnknownItem{Type: head.Type, Raw: raw, Err: err}
	}
	return item
}
