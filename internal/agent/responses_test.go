package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mfateev/tradvisor-agent/internal/llm"
	"github.com/mfateev/tradvisor-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun_MediaTypeRetryOnSecondTurn drives the loop against a real
// ResponsesClient: turn 2 fails with a media_type error while a
// continuation token is set, the client retries once without it, and the
// loop carries on with the retry's output.
func TestRun_MediaTypeRetryOnSecondTurn(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)

		w.Header().Set("Content-Type", "application/json")
		switch len(bodies) {
		case 1:
			_, _ = io.WriteString(w, `{"id":"resp_1","output":[{"type":"function_call","call_id":"call_1","name":"update_plan","arguments":"{\"task_summary\":\"NVDA\",\"is_complete\":false,\"steps\":[]}"}]}`)
		case 2:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Invalid image: missing media_type"}}`)
		default:
			_, _ = io.WriteString(w, `{"id":"resp_3","output":[{"type":"message","content":[{"type":"output_text","text":"Recovered."}]}]}`)
		}
	}))
	defer srv.Close()

	client := llm.NewResponsesClient(llm.ResponsesConfig{
		APIKey:  "k",
		BaseURL: srv.URL,
		Model:   models.ModelConfig{Model: "grok-test"},
	})
	rec := &Recorder{}

	res, err := New(client, Config{}).Run(context.Background(), "Analyze NVDA", nil, rec)
	require.NoError(t, err)

	assert.Equal(t, []EventType{EventToolCall, EventPlanUpdate, EventTextDelta, EventDone}, rec.Types())
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "resp_3", res.ResponseID)

	done := lastDone(t, rec)
	assert.Equal(t, 2, done.Iterations)
	assert.Equal(t, "Recovered.", done.FullText)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 3)
	assert.Equal(t, "resp_1", bodies[1]["previous_response_id"])
	_, hasToken := bodies[2]["previous_response_id"]
	assert.False(t, hasToken)
	assert.Equal(t, bodies[1]["input"], bodies[2]["input"])
}
