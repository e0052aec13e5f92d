package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Provider streams chat completions from an OpenAI compatible endpoint.
type Provider interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (Stream, error)
}

// Stream yields completion chunks until Recv returns io.EOF.
type Stream interface {
	Recv() (*openai.ChatCompletionStreamResponse, error)
	Close() error
}
