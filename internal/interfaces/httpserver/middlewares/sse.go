package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ConversationIDHeader tells the client which conversation a chat turn landed in.
	ConversationIDHeader = "X-Conversation-Id"

	eventStreamContentType = "text/event-stream"
)

// StartSSE commits a 200 event stream for conversationID and returns a flush function.
// Headers cannot change once it returns. The flush function is a no-op when the writer
// cannot flush.
func StartSSE(c *gin.Context, conversationID string) func() {
	header := c.Writer.Header()
	header.Set("Content-Type", eventStreamContentType)
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set(ConversationIDHeader, conversationID)
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	flush := func() {
		if ok {
			flusher.Flush()
		}
	}
	flush()
	return flush
}
