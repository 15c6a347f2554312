package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/wavecast/internal/audio"
	"github.com/arung-agamani/wavecast/internal/queue"
	"github.com/arung-agamani/wavecast/internal/sample"
)

type enqueueRequest struct {
	FilePath string `json:"filePath" binding:"required"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Next     bool   `json:"next"`
}

// handleEnqueue opens filePath through an ffmpeg-backed FileProvider and adds
// it to the Queue. filePath must resolve inside the configured music
// directory; anything else is rejected before a subprocess is ever spawned.
func (s *Server) handleEnqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	if !s.isPathInsideMusicDir(req.FilePath) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "error": "filePath must be inside the music directory"})
		return
	}

	pos := queue.PositionEnd
	if req.Next {
		pos = queue.PositionNext
	}

	provider := &sample.FileProvider{Path: req.FilePath}
	track, err := s.system.Add(provider, audio.TrackMeta{
		Title:    req.Title,
		Artist:   req.Artist,
		FilePath: req.FilePath,
		Position: pos,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "ok",
		"track": trackView{
			ID:       track.ID.String(),
			Title:    track.Title,
			Artist:   track.Artist,
			FilePath: track.FilePath,
			Duration: track.Duration.Milliseconds(),
		},
	})
}

// handleNext skips to the next track in the Queue.
func (s *Server) handleNext(c *gin.Context) {
	s.system.Next()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleRemove deletes the track at the given absolute queue index.
func (s *Server) handleRemove(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "index must be an integer"})
		return
	}

	track, err := s.system.Remove(index)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, queue.ErrIndexOutOfRange) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "track": trackView{
		ID:       track.ID.String(),
		Title:    track.Title,
		Artist:   track.Artist,
		FilePath: track.FilePath,
		Duration: track.Duration.Milliseconds(),
	}})
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// handleMove relocates a queued track from one index to another.
func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	if err := s.system.Move(req.From, req.To); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, queue.ErrIndexOutOfRange) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"status": "error", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleClear empties the Queue.
func (s *Server) handleClear(c *gin.Context) {
	s.system.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
