package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfateev/tradvisor-agent/internal/models"
	"github.com/mfateev/tradvisor-agent/internal/tools"
	"github.com/mfateev/tradvisor-agent/internal/version"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultBaseURL is the xAI Responses API endpoint.
const DefaultBaseURL = "https://api.x.ai/v1"

// mediaTypeMarker identifies the failure caused by stale non-text content
// referenced through a continuation token.
const mediaTypeMarker = "media_type"

// ResponsesConfig configures a ResponsesClient.
type ResponsesConfig struct {
	APIKey  string
	BaseURL string
	Model   models.ModelConfig

	// RequestTimeout bounds each HTTP attempt. Zero means no timeout.
	RequestTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// ResponsesClient implements TurnClient against a Responses-API
// compatible endpoint.
type ResponsesClient struct {
	client openai.Client
	model  models.ModelConfig
	logger *slog.Logger
}

// NewResponsesClient creates a client. The SDK's built-in retries are
// disabled; the only retry is the media-type fallback in Call.
func NewResponsesClient(cfg ResponsesConfig) *ResponsesClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHeader("User-Agent", version.UserAgent()),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	model := cfg.Model
	if model.Model == "" {
		model = models.DefaultModelConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ResponsesClient{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// codeInterpreterTool declares xAI's code interpreter, which takes no
// container argument unlike the OpenAI variant of the tool param.
var codeInterpreterTool = json.RawMessage(`{"type":"code_interpreter"}`)

// Call performs one exchange. When a continuation token was supplied and
// the failure mentions media_type, the same input is resent exactly once
// without the token.
func (c *ResponsesClient) Call(ctx context.Context, request TurnRequest) (TurnResponse, error) {
	if len(request.Input) == 0 {
		return TurnResponse{}, tools.NewValidationErrorf("input must contain at least one item")
	}

	resp, err := c.send(ctx, c.buildParams(request, request.PreviousResponseID))
	if err == nil {
		return toTurnResponse(resp, false), nil
	}

	if request.PreviousResponseID == "" || !isMediaTypeError(err) {
		return TurnResponse{}, classifyError(err)
	}

	c.logger.Warn("Retrying without previous_response_id due to media_type error",
		"previous_response_id", request.PreviousResponseID,
		"error", withResponseBody(err))

	resp, err = c.send(ctx, c.buildParams(request, ""))
	if err != nil {
		return TurnResponse{}, classifyError(err)
	}
	return toTurnResponse(resp, true), nil
}

func (c *ResponsesClient) send(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("malformed response: missing id")
	}
	return resp, nil
}

func (c *ResponsesClient) buildParams(request TurnRequest, previousResponseID string) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam(buildInput(request.Input)),
		},
	}

	// Tool definitions
	if len(request.Tools) > 0 {
		params.Tools = buildToolDefinitions(request.Tools)
	}

	// Previous response ID for incremental sends
	if previousResponseID != "" {
		params.PreviousResponseID = openai.String(previousResponseID)
	}

	if c.model.Store {
		params.Store = openai.Bool(true)
	}
	return params
}

// buildInput converts turn input items to Responses API input items.
//
// Type mapping:
//   - message → EasyInputMessageParam (role user/assistant/system)
//   - function_call_output → ResponseInputItemFunctionCallOutputParam
func buildInput(input []InputItem) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(input))
	for _, item := range input {
		switch item.Type {
		case InputTypeMessage:
			items = append(items, responses.ResponseInputItemUnionParam{
				OfMessage: &responses.EasyInputMessageParam{
					Type: responses.EasyInputMessageTypeMessage,
					Role: inputRole(item.Role),
					Content: responses.EasyInputMessageContentUnionParam{
						OfString: openai.String(item.Content),
					},
				},
			})
		case InputTypeFunctionCallOutput:
			items = append(items, responses.ResponseInputItemUnionParam{
				OfFunctionCallOutput: &responses.ResponseInputItemFunctionCallOutputParam{
					CallID: item.CallID,
					Output: responses.ResponseInputItemFunctionCallOutputOutputUnionParam{
						OfString: openai.String(item.Output),
					},
				},
			})
		}
	}
	return items
}

func inputRole(role models.Role) responses.EasyInputMessageRole {
	switch role {
	case models.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case models.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}

// toTurnResponse feeds each output item's raw JSON to DecodeOutputItem so
// xAI's flat query/output/error fields survive.
func toTurnResponse(resp *responses.Response, retried bool) TurnResponse {
	items := make([]OutputItem, 0, len(resp.Output))
	for _, item := range resp.Output {
		items = append(items, DecodeOutputItem(json.RawMessage(item.RawJSON())))
	}
	return TurnResponse{
		ResponseID: resp.ID,
		Output:     items,
		TokenUsage: models.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
			CachedTokens:     int(resp.Usage.InputTokensDetails.CachedTokens),
		},
		Retried: retried,
	}
}

// buildToolDefinitions converts ToolSpecs to Responses API tool definitions.
// Server-executed tools are declared by type only.
func buildToolDefinitions(specs []tools.ToolSpec) []responses.ToolUnionParam {
	toolDefs := make([]responses.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case tools.ToolKindWebSearch:
			toolDefs = append(toolDefs, responses.ToolUnionParam{
				OfWebSearch: &responses.WebSearchToolParam{Type: responses.WebSearchToolTypeWebSearch},
			})
		case tools.ToolKindCodeInterpreter:
			toolDefs = append(toolDefs, param.Override[responses.ToolUnionParam](codeInterpreterTool))
		default:
			toolDefs = append(toolDefs, responses.ToolUnionParam{
				OfFunction: &responses.FunctionToolParam{
					Name:        spec.Name,
					Description: openai.String(spec.Description),
					Parameters:  spec.JSONSchema(),
					Strict:      openai.Bool(false),
				},
			})
		}
	}
	return toolDefs
}

// responseBody returns the error response body, which the SDK only folds
// into Error() when it is JSON.
func responseBody(apiErr *openai.Error) string {
	if apiErr.Response == nil {
		return ""
	}
	dump := apiErr.DumpResponse(true)
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(dump)), nil)
	if err != nil {
		return ""
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

// withResponseBody appends the raw error body to err's message when the
// SDK found no "error" field in it, as with text/plain replies.
func withResponseBody(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.RawJSON() != "" {
		return err
	}
	body := truncateBody(responseBody(apiErr))
	if body == "" || strings.Contains(err.Error(), body) {
		return err
	}
	return fmt.Errorf("%w: %s", err, body)
}

const maxErrorBody = 512

func truncateBody(body string) string {
	if len(body) <= maxErrorBody {
		return body
	}
	return body[:maxErrorBody] + "..."
}

func isMediaTypeError(err error) bool {
	return strings.Contains(withResponseBody(err).Error(), mediaTypeMarker)
}

// classifyError categorizes an API error using the HTTP status code
// when available, falling back to message-based heuristics.
func classifyError(err error) error {
	err = withResponseBody(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewCanceledError(err.Error(), err)
	}

	// Check message-based patterns first (works regardless of error type)
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "context_length") || strings.Contains(errMsg, "maximum context length") {
		return models.NewContextOverflowError(err.Error(), err)
	}
	if strings.Contains(errMsg, mediaTypeMarker) {
		turnErr := models.NewMediaTypeError(err.Error(), err)
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			turnErr.StatusCode = apiErr.StatusCode
		}
		return turnErr
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyByStatusCode(apiErr.StatusCode, err)
	}

	// Fallback: message-based heuristics for non-typed errors (e.g., network errors)
	if strings.Contains(errMsg, "rate_limit") || strings.Contains(errMsg, "rate limit") {
		return models.NewAPILimitError(err.Error(), err)
	}
	return models.NewTransientError(fmt.Sprintf("API error: %v", err), err)
}
