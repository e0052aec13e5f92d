package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ai-nexus/chat-api"

var (
	streamCounterOnce sync.Once
	streamCounter     metric.Int64Counter
)

// chatStreamCounter is created against the global meter provider, which forwards
// to the provider installed by Setup even when Setup runs later.
func chatStreamCounter() metric.Int64Counter {
	streamCounterOnce.Do(func() {
		counter, err := otel.Meter(tracerName).Int64Counter("chat.streams",
			metric.WithDescription("Chat streams by terminal outcome"),
		)
		if err != nil {
			otel.Handle(err)
		}
		streamCounter = counter
	})
	return streamCounter
}

func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartChatSpan starts the span covering one streamed chat turn.
func StartChatSpan(ctx context.Context, conversationID, userID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "chat.stream",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("user.id", userID),
		),
	)
}

// StartToolSpan starts a client span for a remote tool operation such as list or call.
func StartToolSpan(ctx context.Context, operation, endpoint, toolName string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("mcp.endpoint", endpoint),
	}
	if toolName != "" {
		attrs = append(attrs, attribute.String("mcp.tool", toolName))
	}
	return GetTracer().Start(ctx, "mcp."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddStreamEvent marks how a chat stream ended on the span and counts it on the OTLP meter.
func AddStreamEvent(ctx context.Context, span trace.Span, outcome string, fragments int) {
	if counter := chatStreamCounter(); counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	span.AddEvent("stream.finished",
		trace.WithAttributes(
			attribute.String("stream.outcome", outcome),
			attribute.Int("stream.fragments", fragments),
		),
	)
}
