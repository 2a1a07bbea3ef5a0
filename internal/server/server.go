package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rickgao/pricedash/internal/connection"
	"github.com/rickgao/pricedash/internal/dashboard"
	"github.com/rickgao/pricedash/internal/model"
	"github.com/rickgao/pricedash/internal/presenter"
	"github.com/rickgao/pricedash/internal/version"
)

// Controller is the dashboard surface the server exposes.
type Controller interface {
	Select(ctx context.Context, instrument string) error
	Selection() string
	Instruments() []string
	Feeds() []string
	Snapshot(feed string) ([]model.Instrument, error)
	View(feed string) (presenter.View, error)
	ConnectionStates() map[string]connection.State
	Stats() dashboard.Stats
}

// Config holds HTTP server settings.
type Config struct {
	Host            string
	Port            int
	Debug           bool
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server serves the HTTP API and the push channel.
type Server struct {
	cfg      Config
	hub      *Hub
	ctrl     Controller
	logger   *slog.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader
	started  time.Time
}

// New creates a server around hub and ctrl.
func New(cfg Config, hub *Hub, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Debug && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		hub:    hub,
		ctrl:   ctrl,
		logger: logger,
		engine: gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		started: time.Now(),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger(), cors())
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/metrics", s.getMetrics)
	api.GET("/instruments", s.getInstruments)
	api.GET("/views", s.getViews)
	api.GET("/selection", s.getSelection)
	api.PUT("/selection", s.putSelection)

	s.engine.GET("/ws", s.handleWebSocket)
}

func (s *Server) getHealth(c *gin.Context) {
	states := s.ctrl.ConnectionStates()
	status := "ok"
	for _, st := range states {
		if st != connection.StateConnected {
			status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"clients":   s.hub.Stats().Clients,
		"feeds":     states,
		"selection": s.ctrl.Selection(),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"version":   version.Get(),
	})
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dashboard": s.ctrl.Stats(),
		"push":      s.hub.Stats(),
	})
}

func (s *Server) getInstruments(c *gin.Context) {
	feeds, ok := s.feedsParam(c)
	if !ok {
		return
	}

	out := make(map[string][]model.Instrument, len(feeds))
	for _, f := range feeds {
		snap, err := s.ctrl.Snapshot(f)
		if err != nil {
			s.writeError(c, err)
			return
		}
		out[f] = snap
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getViews(c *gin.Context) {
	feeds, ok := s.feedsParam(c)
	if !ok {
		return
	}

	out := make(map[string]presenter.View, len(feeds))
	for _, f := range feeds {
		v, err := s.ctrl.View(f)
		if err != nil {
			s.writeError(c, err)
			return
		}
		out[f] = v
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getSelection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"instrument":  s.ctrl.Selection(),
		"instruments": s.ctrl.Instruments(),
	})
}

type selectionRequest struct {
	Instrument string `json:"instrument" binding:"required"`
}

func (s *Server) putSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.ctrl.Select(c.Request.Context(), req.Instrument); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instrument": req.Instrument})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(s, conn)
	client.send <- Frame{Type: FrameSession, Payload: SessionPayload{
		ID:          client.id.String(),
		Instruments: s.ctrl.Instruments(),
		Feeds:       s.ctrl.Feeds(),
	}}

	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// feedsParam returns the feeds named by ?feed=, or all feeds.
func (s *Server) feedsParam(c *gin.Context) ([]string, bool) {
	all := s.ctrl.Feeds()
	name := strings.ToLower(c.Query("feed"))
	if name == "" {
		return all, true
	}
	for _, f := range all {
		if f == name {
			return []string{f}, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s: %q", dashboard.ErrUnknownFeed, name)})
	return nil, false
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownFeed):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dashboard.ErrUnknownInstrument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.Request.Header.Get("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
