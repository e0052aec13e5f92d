package middlewares

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware starts a server span per request, continuing any incoming trace context.
// The authenticated user and the conversation a chat turn landed in are attached once the
// handler has run.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	tracer := otel.Tracer(serviceName)

	return func(c *gin.Context) {
		if isUnobserved(c.Request.URL.Path) {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.HTTPTarget(c.Request.URL.Path),
				semconv.NetHostName(c.Request.Host),
				semconv.HTTPUserAgent(c.Request.UserAgent()),
				attribute.String("request.id", RequestIDFromContext(c)),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if u, ok := UserFromContext(c); ok {
			span.SetAttributes(attribute.String("enduser.id", u.ID))
		}
		if conversationID := c.Writer.Header().Get(ConversationIDHeader); conversationID != "" {
			span.SetAttributes(attribute.String("chat.conversation_id", conversationID))
		}
		span.SetAttributes(
			semconv.HTTPStatusCode(c.Writer.Status()),
			attribute.Bool("http.streamed", isEventStream(c)),
		)

		if c.Writer.Status() < 500 {
			return
		}
		span.SetStatus(codes.Error, c.Errors.String())
		if err := c.Errors.Last(); err != nil {
			span.RecordError(err)
		}
	}
}
