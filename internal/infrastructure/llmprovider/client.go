package llmprovider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"github.com/OctavianTocan/ai-nexus/internal/domain/llm"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/logger"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	dataPrefix           = "data:"
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 1024 * 1024
)

// Client streams chat completions from an OpenAI compatible endpoint.
type Client struct {
	client  *resty.Client
	name    string
	baseURL string
	apiKey  string
}

var _ llm.Provider = (*Client)(nil)

func NewClient(client *resty.Client, name, baseURL, apiKey string) *Client {
	return &Client{
		client:  client,
		name:    name,
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  apiKey,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateChatCompletionStream posts the request with stream enabled and returns a chunk reader.
func (c *Client) CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (llm.Stream, error) {
	request.Stream = true

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetHeader("Accept-Encoding", "identity").
		SetBody(request).
		SetDoNotParseResponse(true)
	if strings.TrimSpace(c.apiKey) != "" {
		req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	resp, err := req.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed", err, "6c0e9a3f-2b7d-4f1a-8e5c-3d9b0f6a2e71")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "streaming request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil, "f2a8d6c0-9e1b-4b3f-a7d5-0c4e8b2f6a19")
	}

	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	return &stream{
		ctx:     ctx,
		name:    c.name,
		body:    resp.RawResponse.Body,
		scanner: scanner,
	}, nil
}

func (c *Client) endpoint(path string) string {
	if c.baseURL == "" {
		return path
	}
	return c.baseURL + path
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "8d4b1f7e-3a6c-4e0d-b2f9-5a1c7e3d9b60")
	}
	defer resp.RawResponse.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 64*1024))
	trimmed := logger.Redact(strings.TrimSpace(string(body)))
	if err != nil || trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d", message, resp.StatusCode()), err, "0a7e3c9d-5f2b-4d8a-9c1e-6b0f4a8d2e37")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: status %d: %s", message, resp.StatusCode(), trimmed), nil, "b5c1e8f4-7d0a-4a6b-8f3e-2c9d5b1a7e04")
}

func normalizeBaseURL(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

type streamEnvelope struct {
	openai.ChatCompletionStreamResponse
	Error *openai.APIError `json:"error,omitempty"`
}

type stream struct {
	ctx     context.Context
	name    string
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// Recv returns the next chunk, or io.EOF after the [DONE] marker.
func (s *stream) Recv() (*openai.ChatCompletionStreamResponse, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if data == "" {
			continue
		}
		if data == doneMarker {
			s.done = true
			return nil, io.EOF
		}

		var envelope streamEnvelope
		if err := json.Unmarshal([]byte(data), &envelope); err != nil {
			return nil, platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "malformed stream chunk", err, "4e9a2d6b-1c8f-4b5e-a0d3-7f2b6e9c1a58")
		}
		if envelope.Error != nil {
			return nil, platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "upstream stream error", envelope.Error, "c3f7b0e5-8a2d-4c9f-b6e1-0d5a3c8f7b24")
		}
		return &envelope.ChatCompletionStreamResponse, nil
	}

	if err := s.scanner.Err(); err != nil {
		if s.ctx.Err() != nil {
			return nil, s.ctx.Err()
		}
		return nil, platformerrors.NewError(s.ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "stream read failed", err, "9b2e6f1a-4d7c-4e0b-8a5f-3c1d9e6b2f70")
	}

	// Some providers close the connection without sending [DONE].
	s.done = true
	return nil, io.EOF
}

func (s *stream) Close() error {
	if err := s.body.Close(); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).Str("client", s.name).Msg("unable to close response body")
		return err
	}
	return nil
}
