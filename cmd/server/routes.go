package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	r.Use(cors.New(corsConfig))

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	if s.config.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Game data, all scoped to ?date= (default today)
	r.GET("/songs", s.handleSongs)
	r.GET("/random", s.handleRandom)
	r.GET("/start", s.handleStart)
	r.GET("/song/:song", s.handleSong)
	r.GET("/cover/:cover", s.handleCover)
	r.GET("/clue/:clue/:song", s.handleClue)

	stats := r.Group("/stats")
	{
		stats.GET("/home", s.handleStatHome)
		stats.GET("/finished", s.handleStatFinished)
		stats.GET("/clue", s.handleStatClue)
	}

	dashboard := r.Group("/dashboard", s.requireKey())
	{
		dashboard.GET("", s.handleDashboard)
		dashboard.GET("/total", s.handleDashboardTotal)
		dashboard.GET("/within", s.handleDashboardWithin)
		dashboard.GET("/clue", s.handleDashboardClue)
	}

	r.NoRoute(func(c *gin.Context) {
		s.respondError(c, http.StatusNotFound, "Not found")
	})
	return r
}

// requestID tags every request with an id, reusing the caller's one if sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs all HTTP requests
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugf("%s %s -> %d in %s from %s [%s]",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Microsecond), c.ClientIP(), c.GetString("request_id"))
	}
}

// requireKey gates the dashboard behind the private key.
func (s *Server) requireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.config.PrivateKey == "" || c.Query("key") != s.config.PrivateKey {
			s.respondError(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Infof("🚀 Songle server starting on %s", addr)
	s.log.Infof("   Songs: %d", s.service.Catalog().Len())
	s.log.Infof("   Today: %d", s.service.CurrentDate())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
