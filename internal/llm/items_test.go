package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOutputItem_Variants(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"type":"web_search_call","id":"ws_1","status":"completed","action":{"type":"search","query":"AAPL earnings"}}`),
		json.RawMessage(`{"type":"code_interpreter_call","id":"ci_1","code":"print(1)","outputs":[{"type":"logs","logs":"1\n"}]}`),
		json.RawMessage(`{"type":"function_call","call_id":"call_1","name":"update_plan","arguments":"{}"}`),
		json.RawMessage(`{"type":"message","role":"assistant","content":[{"type":"output_text","text":"done"}]}`),
		json.RawMessage(`{"type":"reasoning","summary":[]}`),
	}

	items := make([]OutputItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, DecodeOutputItem(raw))
	}
	require.Len(t, items, 5)

	ws, ok := items[0].(WebSearchCall)
	require.True(t, ok)
	assert.Equal(t, "AAPL earnings", ws.SearchQuery())

	ci, ok := items[1].(CodeInterpreterCall)
	require.True(t, ok)
	assert.Equal(t, "print(1)", ci.Code)
	assert.Equal(t, "1\n", ci.OutputText())

	fc, ok := items[2].(FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "call_1", fc.CallID)

	msg, ok := items[3].(Message)
	require.True(t, ok)
	assert.Equal(t, "done", msg.Content[0].Text)

	unknown, ok := items[4].(UnknownItem)
	require.True(t, ok)
	assert.Equal(t, "reasoning", unknown.ItemType())
}

func TestDecodeOutputItem_MalformedKnownTypeIsUnknown(t *testing.T) {
	item := DecodeOutputItem(json.RawMessage(`{"type":"function_call","arguments":42}`))
	unknown, ok := item.(UnknownItem)
	require.True(t, ok)
	assert.Equal(t, ItemTypeFunctionCall, unknown.Type)
	assert.Error(t, unknown.Err)

	item = DecodeOutputItem(json.RawMessage(`not json`))
	unknown, ok = item.(UnknownItem)
	require.True(t, ok)
	assert.Error(t, unknown.Err)

	item = DecodeOutputItem(json.RawMessage(`{"type":"reasoning"}`))
	unknown, ok = item.(UnknownItem)
	require.True(t, ok)
	assert.NoError(t, unknown.Err)
}

func TestWebSearchCall_QueryFallbacks(t *testing.T) {
	tests := []struct {
		name string
		call WebSearchCall
		want string
	}{
		{"action query wins", WebSearchCall{Query: "flat", Action: &WebSearchAction{Query: "nested"}}, "nested"},
		{"flat query", WebSearchCall{Query: "flat"}, "flat"},
		{"queries list", WebSearchCall{Action: &WebSearchAction{Queries: []string{"", "first"}}}, "first"},
		{"none", WebSearchCall{Action: &WebSearchAction{Type: "open_page", URL: "https://x.com"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.call.SearchQuery())
		})
	}

	assert.Equal(t, "", WebSearchCall{}.URL())
	assert.Equal(t, "https://x.com/a", WebSearchCall{Action: &WebSearchAction{URL: "https://x.com/a"}}.URL())
}

func TestCodeInterpreterCall_OutputText(t *testing.T) {
	assert.Equal(t, "flat", CodeInterpreterCall{Output: "flat", Outputs: []CodeInterpreterOutput{{Type: "logs", Logs: "ignored"}}}.OutputText())
	assert.Equal(t, "a\nb\n", CodeInterpreterCall{Outputs: []CodeInterpreterOutput{
		{Type: "logs", Logs: "a\n"},
		{Type: "image", URL: "https://img"},
		{Type: "logs", Logs: "b\n"},
	}}.OutputText())
	assert.Equal(t, "", CodeInterpreterCall{}.OutputText())
}
