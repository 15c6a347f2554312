package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/wavecast/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin exchanges operator credentials for a bearer token. A
// rate-limited caller gets a 429 with a Retry-After hint instead of a bare
// 401, so well-behaved clients can back off instead of hammering the
// endpoint.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}

	if len(req.Username) > 256 || len(req.Password) > 256 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "field too long"})
		return
	}

	token, err := s.auth.Authenticate(req.Username, req.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, auth.ErrRateLimited) {
			remaining := s.auth.RemainingLockout(c.ClientIP())
			retryAfter := int(remaining.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{"status": "error", "error": err.Error()})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": token, "username": req.Username})
}
