package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/OctavianTocan/ai-nexus/internal/interfaces/httpserver/middlewares"
)

func TestStartSSECommitsStreamHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		flush := middlewares.StartSSE(c, "conv-42")
		_, _ = c.Writer.WriteString("data: [DONE]\n\n")
		flush()
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.Equal(t, "conv-42", rec.Header().Get(middlewares.ConversationIDHeader))
	assert.True(t, rec.Flushed)
	assert.Equal(t, "data: [DONE]\n\n", rec.Body.String())
}
