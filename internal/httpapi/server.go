// Package httpapi implements wavecast's control plane: a gin Engine exposing
// the consumer stream, status, event relay, and JWT-protected queue
// management endpoints.
package httpapi

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arung-agamani/wavecast/internal/audio"
	"github.com/arung-agamani/wavecast/internal/auth"
)

// Server wires the gin Engine to an AudioSystem and serves it over HTTP.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	system     *audio.AudioSystem
	auth       *auth.Auth
	musicDir   string
}

// Options configures a new Server.
type Options struct {
	Addr        string
	StationName string
	MusicDir    string
	MaxBodySize int64
}

// New builds the gin Engine and registers every route.
func New(system *audio.AudioSystem, a *auth.Auth, opts Options) *Server {
	if opts.MaxBodySize == 0 {
		opts.MaxBodySize = 1 << 20
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(securityHeaders())

	s := &Server{
		engine:   engine,
		system:   system,
		auth:     a,
		musicDir: opts.MusicDir,
	}

	s.registerRoutes(opts)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // no timeout: /stream is long-lived
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes(opts Options) {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/stream", s.handleStream)
	s.engine.GET("/api/status", s.handleStatus)
	s.engine.GET("/api/events", s.handleEvents)
	s.engine.POST("/api/auth/login", s.handleLogin)

	protected := s.engine.Group("/api/queue")
	protected.Use(authRequired(s.auth))
	{
		protected.POST("", s.handleEnqueue)
		protected.POST("/next", s.handleNext)
		protected.DELETE("/:index", s.handleRemove)
		protected.POST("/move", s.handleMove)
		protected.DELETE("", s.handleClear)
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within 5 seconds.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// securityHeaders sets a conservative baseline of response headers for an
// API with no browser-rendered content of its own.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// authRequired rejects any request without a valid bearer token before it
// reaches a queue-management handler, delegating the actual token parsing
// and validation to the auth package so gin never has to know the token
// format.
func authRequired(a *auth.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "authentication required"})
			return
		}

		if _, err := a.ValidateToken(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "error": "invalid or expired token"})
			return
		}

		c.Next()
	}
}

// isPathInsideMusicDir prevents the enqueue endpoint from being used to load
// arbitrary files from outside the configured music directory.
func (s *Server) isPathInsideMusicDir(path string) bool {
	absMusicDir, err := filepath.Abs(s.musicDir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return absPath == absMusicDir || strings.HasPrefix(absPath, absMusicDir+string(filepath.Separator))
}
