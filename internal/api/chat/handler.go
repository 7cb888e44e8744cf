package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/docchat/internal/domain"
)

// ResponseStreamer produces the event stream for a query
type ResponseStreamer interface {
	GenerateStream(ctx context.Context, query string) <-chan domain.StreamEvent
}

// Handler handles chat API requests
type Handler struct {
	responses ResponseStreamer
}

// NewHandler creates a new chat handler
func NewHandler(responses ResponseStreamer) *Handler {
	return &Handler{responses: responses}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/stream", h.Stream)
	r.GET("/health", h.Health)
}

// Stream streams the response to a query as Server-Sent Events. Each event
// is one "data: <json>" frame followed by a blank line.
func (h *Handler) Stream(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query cannot be empty"})
		return
	}

	// Set SSE headers; X-Accel-Buffering stops reverse proxies from
	// buffering the stream
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	stream := h.responses.GenerateStream(ctx, req.Query)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-stream:
			if !ok {
				return false
			}
			data, err := json.Marshal(ev)
			if err != nil {
				// An error event is terminal: emit the fallback frame
				// and end the stream
				fmt.Fprintf(w, "data: %s\n\n", `{"type":"error","content":"failed to encode event"}`)
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Health reports chat service health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "chat"})
}
