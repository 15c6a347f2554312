package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type trackView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	FilePath string `json:"filePath"`
	Duration int64  `json:"durationMs"`
}

// handleStatus reports the current queue, playback position, and consumer
// count, for dashboards and the status poll.
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.system.StatusSnapshot()

	var nowPlaying *trackView
	if snap.NowPlaying != nil {
		nowPlaying = &trackView{
			ID:       snap.NowPlaying.ID.String(),
			Title:    snap.NowPlaying.Title,
			Artist:   snap.NowPlaying.Artist,
			FilePath: snap.NowPlaying.FilePath,
			Duration: snap.NowPlaying.Duration.Milliseconds(),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"queueLength":   snap.QueueLength,
		"head":          snap.Head,
		"consumerCount": snap.ConsumerCount,
		"windowSize":    len(snap.Window),
		"nowPlaying":    nowPlaying,
		"nowPlayingMs":  snap.NowPlayingTime.Milliseconds(),
	})
}
