package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// pcmMIME matches the engine's fixed output format: 44.1kHz stereo f32le PCM.
const pcmMIME = "audio/pcm;rate=44100;encoding=float;bits=32"

// handleStream registers a new consumer and streams PCM bytes to it until the
// client disconnects, draining the consumer's ring buffer as bytes arrive.
func (s *Server) handleStream(c *gin.Context) {
	id, consumer, err := s.system.Stream()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	defer s.system.StopStream(id)

	c.Header("Content-Type", pcmMIME)
	c.Header("Cache-Control", "no-store")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		slog.Warn("stream: response writer does not support flushing")
	}

	buf := make([]byte, 8820*4)
	for {
		n, ok := consumer.Read(buf)
		if n > 0 {
			if _, err := c.Writer.Write(buf[:n]); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if !ok {
			return
		}
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}
	}
}
