package tool

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Tool describes one tool exposed by the remote MCP endpoint.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Result is the text outcome of a tool call.
type Result struct {
	ToolName string `json:"tool_name"`
	Text     string `json:"text"`
	IsError  bool   `json:"is_error"`
}

// Client lists and invokes tools on a remote endpoint.
type Client interface {
	Endpoint() string
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*Result, error)
}

// ToLLMTool converts MCP metadata into an OpenAI function tool.
func (t Tool) ToLLMTool() openai.Tool {
	params := t.InputSchema
	if params == nil {
		params = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		},
	}
}
