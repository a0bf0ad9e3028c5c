// Package server exposes the FitTelligence team over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hupe1980/fittelligence/coach"
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
	"github.com/hupe1980/fittelligence/metrics"
)

// Options configures the server.
type Options struct {
	// Metrics enables GET /metrics when set.
	Metrics *metrics.Recorder
	Logger  logging.Logger
	// ShutdownTimeout bounds graceful shutdown in Serve.
	ShutdownTimeout time.Duration
}

// Server serves the persona and program endpoints.
type Server struct {
	pipeline        *coach.Pipeline
	metrics         *metrics.Recorder
	logger          logging.Logger
	shutdownTimeout time.Duration
	engine          *gin.Engine
}

// New builds the router for pipeline.
func New(pipeline *coach.Pipeline, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		ShutdownTimeout: 10 * time.Second,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		pipeline:        pipeline,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		shutdownTimeout: opts.ShutdownTimeout,
	}
	s.engine = s.routes()

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	router.Use(cors.New(config))

	router.GET("/healthz", s.health)
	router.GET("/agents", s.listAgents)
	router.POST("/agents/:name/run", s.runAgent)
	router.POST("/programs", s.createProgram)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("server.shutdown")

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("server.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type agentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

type runRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type runResponse struct {
	Agent     string `json:"agent"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listAgents(c *gin.Context) {
	agents := s.pipeline.Team().Agents()

	out := make([]agentInfo, 0, len(agents))
	for _, a := range agents {
		out = append(out, agentInfo{Name: a.Name(), Description: a.Description(), Tools: a.ListTools()})
	}

	c.JSON(http.StatusOK, out)
}

func (s *Server) runAgent(c *gin.Context) {
	name := c.Param("name")
	if _, ok := s.pipeline.Team().FindAgent(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found: " + name})
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := s.pipeline.Ask(c.Request.Context(), name, req.UserID, req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("server.agent.failed", "agent", name, "error", err.Error())
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, runResponse{
		Agent:     name,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Response:  reply,
	})
}

func (s *Server) createProgram(c *gin.Context) {
	var profile coach.ClientProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := coach.NewUniqueSessionID(time.Now())

	prog, err := s.pipeline.RunSession(c.Request.Context(), profile.Normalize(), sessionID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, prog)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrAgentNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
