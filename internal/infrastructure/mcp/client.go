package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/OctavianTocan/ai-nexus/internal/domain/tool"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/metrics"
	"github.com/OctavianTocan/ai-nexus/internal/infrastructure/observability"
	"github.com/OctavianTocan/ai-nexus/internal/utils/platformerrors"
)

const (
	clientName    = "ai-nexus"
	clientVersion = "1.0.0"
)

// Client talks to a remote MCP server over the streamable HTTP transport.
// Each operation opens a short lived session.
type Client struct {
	endpoint   string
	httpClient *http.Client
	sdkClient  *sdk.Client
	log        zerolog.Logger
}

var _ tool.Client = (*Client)(nil)

// NewClient constructs the MCP client. timeout bounds every HTTP exchange with the server.
func NewClient(endpoint string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: &http.Client{Timeout: timeout},
		sdkClient:  sdk.NewClient(&sdk.Implementation{Name: clientName, Version: clientVersion}, nil),
		log:        log.With().Str("component", "mcp-client").Str("endpoint", endpoint).Logger(),
	}
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) connect(ctx context.Context) (*sdk.ClientSession, error) {
	session, err := c.sdkClient.Connect(ctx, &sdk.StreamableClientTransport{
		Endpoint:   c.endpoint,
		HTTPClient: c.httpClient,
	}, nil)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to connect to MCP server", err, "7a1d4e8b-2f5c-4b9a-9e3d-0c6f8a2b5d14")
	}
	return session, nil
}

func (c *Client) closeSession(session *sdk.ClientSession) {
	if err := session.Close(); err != nil {
		c.log.Debug().Err(err).Msg("failed to close MCP session")
	}
}

// ListTools fetches every tool the server advertises, following pagination cursors.
func (c *Client) ListTools(ctx context.Context) (_ []tool.Tool, err error) {
	ctx, span := observability.StartToolSpan(ctx, "list_tools", c.endpoint, "")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(session)

	var (
		tools  []tool.Tool
		cursor string
	)
	for {
		result, err := session.ListTools(ctx, &sdk.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to list MCP tools", err, "d3b9f2a6-5e1c-4a7d-b0f8-6c2e9a4d1b73")
		}
		for _, t := range result.Tools {
			if t == nil || t.Name == "" {
				continue
			}
			tools = append(tools, tool.Tool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaToMap(t.InputSchema),
			})
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	c.log.Debug().Int("tools", len(tools)).Msg("listed MCP tools")
	return tools, nil
}

// CallTool executes a tool. A tool level failure comes back as a Result with IsError set.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (_ *tool.Result, err error) {
	start := time.Now()
	ctx, span := observability.StartToolSpan(ctx, "call_tool", c.endpoint, name)
	defer func() {
		observability.RecordError(span, err)
		span.End()
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordToolCall(name, status, time.Since(start).Seconds())
	}()

	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer c.closeSession(session)

	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "failed to call MCP tool "+name, err, "2e8c5a1f-9b4d-4f6e-a3c7-8d0b5e2f9a61")
	}

	return &tool.Result{
		ToolName: name,
		Text:     contentText(result.Content),
		IsError:  result.IsError,
	}, nil
}

func contentText(content []sdk.Content) string {
	var parts []string
	for _, item := range content {
		switch v := item.(type) {
		case *sdk.TextContent:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		case *sdk.EmbeddedResource:
			if v.Resource != nil && v.Resource.Text != "" {
				parts = append(parts, v.Resource.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// schemaToMap normalizes whatever the SDK decoded into a plain JSON object.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
