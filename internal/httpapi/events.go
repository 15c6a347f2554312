package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleEvents relays the Event Bus to the client as Server-Sent Events,
// one "event: <kind>\ndata: {...}\n\n" frame per published Event.
func (s *Server) handleEvents(c *gin.Context) {
	sub := s.system.Events().Subscribe()
	defer sub.Unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "streaming unsupported"})
		return
	}

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case e, open := <-sub.C():
			if !open {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: {\"position\":%d,\"newHead\":%d}\n\n",
				e.Kind, e.Position, e.NewHead)
			flusher.Flush()
		}
	}
}
