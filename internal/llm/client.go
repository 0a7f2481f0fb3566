// Package llm implements the Turn Client: one request/response exchange
// with a Responses-API compatible reasoning service.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mfateev/tradvisor-agent/internal/models"
	"github.com/mfateev/tradvisor-agent/internal/tools"
)

// TurnRequest is the input of one exchange.
type TurnRequest struct {
	// Input is the ordered input sequence. Must be non-empty and plain text.
	Input []InputItem `json:"input"`

	// Tools is the catalog, passed verbatim on every call.
	Tools []tools.ToolSpec `json:"tools"`

	// PreviousResponseID is the continuation token; empty on the first turn.
	PreviousResponseID string `json:"previous_response_id,omitempty"`
}

// TurnResponse is the structured output of one exchange.
type TurnResponse struct {
	// ResponseID becomes the continuation token for the next turn.
	ResponseID string `json:"response_id"`

	// Output holds the turn's items in arrival order.
	Output []OutputItem `json:"-"`

	TokenUsage models.TokenUsage `json:"token_usage"`

	// Retried is set when the media-type fallback fired and this response
	// came from the second, token-less attempt.
	Retried bool `json:"retried"`
}

// TurnClient is the interface for the remote reasoning service.
type TurnClient interface {
	Call(ctx context.Context, request TurnRequest) (TurnResponse, error)
}

// classifyByStatusCode maps an HTTP status code to the appropriate TurnError.
//
// Classification:
//   - 429 (Too Many Requests): rate limit
//   - 408 (Request Timeout), 409 (Conflict): transient
//   - Other 4xx: fatal client error (e.g., 400, 401, 403, 404)
//   - 5xx: transient server error
func classifyByStatusCode(statusCode int, err error) *models.TurnError {
	var turnErr *models.TurnError
	switch {
	case statusCode == http.StatusTooManyRequests:
		turnErr = models.NewAPILimitError(fmt.Sprintf("rate limit (%d): %v", statusCode, err), err)
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusConflict:
		turnErr = models.NewTransientError(fmt.Sprintf("retryable error (%d): %v", statusCode, err), err)
	case statusCode >= 400 && statusCode < 500:
		turnErr = models.NewFatalError(fmt.Sprintf("client error (%d): %v", statusCode, err), err)
	case statusCode >= 500:
		turnErr = models.NewTransientError(fmt.Sprintf("server error (%d): %v", statusCode, err), err)
	default:
		turnErr = models.NewTransientError(fmt.Sprintf("unexpected status (%d): %v", statusCode, err), err)
	}
	turnErr.StatusCode = statusCode
	return turnErr
}
