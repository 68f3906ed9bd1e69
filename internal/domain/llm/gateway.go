// Package llm defines the boundary to the chat-completion provider.
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults applied to every completion request.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// Gateway is an OpenAI-compatible chat completion endpoint.
type Gateway interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error)
}
