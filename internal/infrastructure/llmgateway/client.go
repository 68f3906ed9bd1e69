// Package llmgateway implements the chat completion boundary against an
// OpenAI-compatible provider.
package llmgateway

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"flowcore-server/services/message-worker/internal/domain/llm"
	"flowcore-server/services/message-worker/internal/utils/platformerrors"
)

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	name    string
}

var _ llm.Gateway = (*Client)(nil)

// NewClient creates a gateway client. baseURL points at the provider's
// OpenAI-compatible root (e.g. https://api.groq.com/openai/v1).
func NewClient(client *resty.Client, name, baseURL, apiKey string) *Client {
	return &Client{
		client:  client,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
		name:    name,
	}
}

// CreateChatCompletion performs one non-streaming completion request.
func (c *Client) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(request).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "chat completion request failed")
	}
	return &respBody, nil
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	return req
}

func (c *Client) endpoint(path string) string {
	if path == "" {
		return c.baseURL
	}
	if strings.HasPrefix(path, "/") {
		return c.baseURL + path
	}
	return c.baseURL + "/" + path
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "c2d9b5fe-1cf0-4bb3-9af9-3a6f5a0f8a21")
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "86b9e763-2f44-4a8a-b4de-5f2d8c3f0e7b")
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d", message, resp.StatusCode()), nil, "5f7a2c84-6f41-45f6-bf0a-2a3de10c5b94")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "e4c15d0b-7b88-4f0c-9d6d-74a1c2f4e982")
}

func normalizeBaseURL(base string) string {
	trimmed := strings.TrimSpace(base)
	return strings.TrimRight(trimmed, "/")
}
