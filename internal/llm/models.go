package llm

import (
	"context"
	"sort"
	"strings"
)

// AvailableModel describes a model returned by the provider's list-models API.
type AvailableModel struct {
	ID      string
	OwnedBy string
}

// ListModels queries the Models.List API and returns the chat-capable
// models, sorted by ID.
func (c *ResponsesClient) ListModels(ctx context.Context) ([]AvailableModel, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		return nil, classifyError(err)
	}

	var result []AvailableModel
	for _, m := range page.Data {
		if isChatModel(m.ID) {
			result = append(result, AvailableModel{ID: m.ID, OwnedBy: m.OwnedBy})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// isChatModel filters out image, video and embedding families and
// date-pinned snapshots so the list stays concise.
func isChatModel(id string) bool {
	for _, sub := range []string{"-image", "imagine", "-vision", "embed", "-tts", "-realtime"} {
		if strings.Contains(id, sub) {
			return false
		}
	}

	isChat := false
	for _, prefix := range []string{"grok-", "gpt-", "o3", "o4"} {
		if strings.HasPrefix(id, prefix) {
			isChat = true
			break
		}
	}
	if !isChat {
		return false
	}

	return !hasDateSuffix(id)
}

// hasDateSuffix returns true if the model ID contains a date stamp.
// Matches both full dates like "-2024-05-13" (pattern "-20XX-") and
// short forms like "-0613" or "-1212" (trailing 4+ digits).
func hasDateSuffix(id string) bool {
	for i := 0; i < len(id)-5; i++ {
		if id[i] == '-' && id[i+1] == '2' && id[i+2] == '0' &&
			isDigit(id[i+3]) && isDigit(id[i+4]) && id[i+5] == '-' {
			return true
		}
	}
	lastDash := strings.LastIndex(id, "-")
	if lastDash >= 0 && lastDash < len(id)-3 {
		suffix := id[lastDash+1:]
		if len(suffix) >= 4 && allDigits(suffix) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return len(s) > 0
}
