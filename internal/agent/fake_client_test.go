package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mfateev/tradvisor-agent/internal/llm"
)

// scriptedClient replays canned turns and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	turns    []scriptedTurn
	requests []llm.TurnRequest
}

type scriptedTurn struct {
	resp llm.TurnResponse
	err  error
}

func (c *scriptedClient) Call(_ context.Context, req llm.TurnRequest) (llm.TurnResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.turns) == 0 {
		return llm.TurnResponse{}, fmt.Errorf("no scripted turn %d", len(c.requests))
	}
	t := c.turns[0]
	c.turns = c.turns[1:]
	return t.resp, t.err
}

func turn(id string, items ...llm.OutputItem) scriptedTurn {
	return scriptedTurn{resp: llm.TurnResponse{ResponseID: id, Output: items}}
}

func failedTurn(err error) scriptedTurn {
	return scriptedTurn{err: err}
}

func textMessage(parts ...string) llm.Message {
	msg := llm.Message{Role: "assistant"}
	for _, p := range parts {
		msg.Content = append(msg.Content, llm.MessageContent{Type: "output_text", Text: p})
	}
	return msg
}

func planCall(callID string, args map[string]interface{}) llm.FunctionCall {
	raw, _ := json.Marshal(args)
	return llm.FunctionCall{CallID: callID, Name: "update_plan", Arguments: string(raw)}
}
