package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/OctavianTocan/ai-nexus/internal/domain/llm"
	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

// ErrToolDepthExceeded is returned when the model keeps requesting tools past the configured depth.
var ErrToolDepthExceeded = errors.New("tool orchestration depth exceeded")

// Agent answers questions within one session. Build one per turn with Factory.New.
type Agent struct {
	cfg       FactoryConfig
	sessionID string
	userID    string
	llm       llm.Provider
	tools     tool.Client
	store     SessionStore
	log       zerolog.Logger
}

func (a *Agent) SessionID() string { return a.sessionID }

func (a *Agent) UserID() string { return a.userID }

func (a *Agent) Model() string { return a.cfg.Model }

// ToolEndpoint returns the remote tool endpoint, or "" when the agent runs without tools.
func (a *Agent) ToolEndpoint() string {
	if a.tools == nil {
		return ""
	}
	return a.tools.Endpoint()
}

// History returns the stored messages of the session.
func (a *Agent) History(ctx context.Context) ([]Message, error) {
	return a.store.Messages(ctx, a.sessionID)
}

// RunStream starts answering question. History and tool catalog are loaded before it returns;
// generation happens lazily as the caller drains the stream.
func (a *Agent) RunStream(ctx context.Context, question string) (Stream, error) {
	if strings.TrimSpace(question) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "question is required", nil, "9c4e2b7a-1d5f-4a8e-b3c6-0f7d2a9e5b14")
	}

	runCtx, cancel := context.WithCancel(ctx)

	history, tools, err := a.prepare(runCtx)
	if err != nil {
		cancel()
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.instructions(),
	})
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	stream := newRunStream(cancel)
	go func() {
		stream.finish(a.run(runCtx, stream, question, messages, tools))
	}()
	return stream, nil
}

func (a *Agent) instructions() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.", a.cfg.Name)
	if a.cfg.Markdown {
		sb.WriteString(" Use markdown to format your answers.")
	}
	return sb.String()
}

// prepare loads the bounded history window and the tool catalog concurrently.
func (a *Agent) prepare(ctx context.Context) ([]openai.ChatCompletionMessage, []tool.Tool, error) {
	var (
		runs  []*SessionRun
		tools []tool.Tool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		runs, err = a.store.RecentRuns(gctx, a.sessionID, a.cfg.HistoryRuns)
		if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return platformerrors.AsError(gctx, platformerrors.LayerDomain, err, "failed to load session history")
		}
		return nil
	})
	if a.tools != nil {
		g.Go(func() error {
			listed, err := a.tools.ListTools(gctx)
			if err != nil {
				a.log.Warn().Err(err).Str("endpoint", a.tools.Endpoint()).Msg("tool catalog unavailable, continuing without tools")
				return nil
			}
			tools = listed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var history []openai.ChatCompletionMessage
	for _, run := range runs {
		for _, msg := range run.Messages {
			if msg.Content == "" {
				continue
			}
			history = append(history, openai.ChatCompletionMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
	}
	return history, tools, nil
}

func (a *Agent) run(ctx context.Context, out *runStream, question string, messages []openai.ChatCompletionMessage, tools []tool.Tool) error {
	var llmTools []openai.Tool
	for _, t := range tools {
		llmTools = append(llmTools, t.ToLLMTool())
	}

	var (
		answer    strings.Builder
		toolNames []string
	)

	for depth := 0; depth < a.cfg.MaxToolDepth; depth++ {
		req := openai.ChatCompletionRequest{
			Model:    a.cfg.Model,
			Messages: messages,
			Stream:   true,
		}
		if len(llmTools) > 0 {
			req.Tools = llmTools
		}

		content, calls, err := a.streamCompletion(ctx, out, req)
		if err != nil {
			return err
		}
		answer.WriteString(content)

		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   content,
			ToolCalls: calls,
		})

		if len(calls) == 0 {
			return a.persist(ctx, question, answer.String(), toolNames)
		}

		for _, call := range calls {
			toolNames = append(toolNames, call.Function.Name)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    a.callTool(ctx, call),
				ToolCallID: call.ID,
			})
		}
	}

	return ErrToolDepthExceeded
}

// streamCompletion forwards content deltas to out and accumulates any tool calls.
func (a *Agent) streamCompletion(ctx context.Context, out *runStream, req openai.ChatCompletionRequest) (string, []openai.ToolCall, error) {
	stream, err := a.llm.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()

	var content strings.Builder
	calls := newToolCallAccumulator()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, err
		}
		if chunk == nil || len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if err := out.emit(ctx, Fragment{Content: delta.Content}); err != nil {
				return "", nil, err
			}
		}
		calls.apply(delta.ToolCalls)
	}

	return content.String(), calls.result(), nil
}

func (a *Agent) callTool(ctx context.Context, call openai.ToolCall) string {
	var args map[string]any
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("invalid tool arguments: %v", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.ToolTimeout)
	defer cancel()

	if a.tools == nil {
		return fmt.Sprintf("tool %q is not available", call.Function.Name)
	}

	result, err := a.tools.CallTool(callCtx, call.Function.Name, args)
	if err != nil {
		a.log.Warn().Err(err).Str("tool", call.Function.Name).Msg("tool call failed")
		return fmt.Sprintf("tool call failed: %v", err)
	}
	if result.IsError {
		if result.Text == "" {
			return "tool execution returned an error"
		}
		return result.Text
	}
	if result.Text == "" {
		return "[tool execution completed]"
	}
	return result.Text
}

func (a *Agent) persist(ctx context.Context, question, answer string, toolNames []string) error {
	run := &SessionRun{
		ID:        uuid.NewString(),
		SessionID: a.sessionID,
		UserID:    a.userID,
		Messages: []Message{
			{Role: RoleUser, Content: question},
			{Role: RoleAssistant, Content: answer},
		},
		Metadata: map[string]any{
			"model": a.cfg.Model,
		},
		CreatedAt: time.Now().UTC(),
	}
	if len(toolNames) > 0 {
		run.Metadata["tools"] = toolNames
	}

	if err := a.store.AppendRun(ctx, run); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to store session run")
	}
	return nil
}

type toolCallAccumulator struct {
	calls map[int]*openai.ToolCall
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{calls: make(map[int]*openai.ToolCall)}
}

func (t *toolCallAccumulator) apply(deltas []openai.ToolCall) {
	for i, delta := range deltas {
		index := i
		if delta.Index != nil {
			index = *delta.Index
		}
		call, ok := t.calls[index]
		if !ok {
			call = &openai.ToolCall{Type: openai.ToolTypeFunction}
			t.calls[index] = call
		}
		if delta.ID != "" {
			call.ID = delta.ID
		}
		if delta.Type != "" {
			call.Type = delta.Type
		}
		if delta.Function.Name != "" {
			call.Function.Name = delta.Function.Name
		}
		call.Function.Arguments += delta.Function.Arguments
	}
}

func (t *toolCallAccumulator) result() []openai.ToolCall {
	if len(t.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(t.calls))
	for index := range t.calls {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	out := make([]openai.ToolCall, 0, len(indexes))
	for _, index := range indexes {
		call := *t.calls[index]
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", index)
		}
		out = append(out, call)
	}
	return out
}
