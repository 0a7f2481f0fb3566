// Package server exposes the agent as an HTTP chat service that streams
// events over Server-Sent Events and keeps session history in a Store.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/mfateev/tradvisor-agent/internal/agent"
	"github.com/mfateev/tradvisor-agent/internal/config"
	"github.com/mfateev/tradvisor-agent/internal/history"
	"github.com/mfateev/tradvisor-agent/internal/models"
)

// Options configures a Server.
type Options struct {
	Agent   *agent.Agent
	Store   history.Store
	Config  config.ServerConfig
	Metrics http.Handler // served at /metrics when non-nil
	Logger  *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	agent   *agent.Agent
	store   history.Store
	cfg     config.ServerConfig
	metrics http.Handler
	logger  *slog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = history.DefaultRecentLimit
	}
	if cfg.TitleLimit <= 0 {
		cfg.TitleLimit = config.Default().Server.TitleLimit
	}
	if cfg.RetitleLimit <= 0 {
		cfg.RetitleLimit = config.Default().Server.RetitleLimit
	}
	return &Server{
		agent:   opts.Agent,
		store:   opts.Store,
		cfg:     cfg,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	r.POST("/chat", s.handleChat)
	r.GET("/sessions", s.handleListSessions)
	r.GET("/sessions/:id/messages", s.handleListMessages)
	r.DELETE("/sessions/:id", s.handleDeleteSession)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	})
	return c.Handler(r)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// handleChat runs the agent for one message and streams its events.
//
// Responses:
//
//	200 OK: text/event-stream (session event, then agent events)
//	400 Bad Request: malformed body or empty message
//	404 Not Found: unknown session_id
//	500 Internal Server Error: store failure before streaming started
func (s *Server) handleChat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sess, err := s.store.CreateSession(ctx, history.TitleFromMessage(message, s.cfg.TitleLimit))
		if err != nil {
			s.logger.Error("Failed to create session", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create session"})
			return
		}
		sessionID = sess.ID
	} else if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		s.storeError(c, "Failed to load session", err)
		return
	}

	prior, err := s.store.RecentMessages(ctx, sessionID, s.cfg.HistoryLimit)
	if err != nil {
		s.storeError(c, "Failed to load history", err)
		return
	}
	if _, err := s.store.AppendMessage(ctx, sessionID, models.RoleUser, message); err != nil {
		s.storeError(c, "Failed to save message", err)
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)
	sse := newSSESink(c.Writer)
	if err := sse.writeJSON("session", gin.H{"session_id": sessionID}); err != nil {
		s.logger.Warn("Client went away before streaming", "session_id", sessionID, "error", err)
		return
	}

	persist := &persistenceSink{store: s.store, sessionID: sessionID, logger: s.logger}
	if len(prior) == 0 {
		persist.title = history.TitleFromMessage(message, s.cfg.RetitleLimit)
	}
	sink := agent.MultiSink{sse, persist}
	result, err := s.agent.Run(ctx, message, history.ToHistory(prior), sink)
	if err != nil {
		s.logger.Warn("Chat stream ended early", "session_id", sessionID, "error", err)
		return
	}
	s.logger.Info("Chat completed",
		"session_id", sessionID,
		"outcome", result.Outcome,
		"iterations", result.Iterations,
		"tokens", result.TokenUsage.TotalTokens)
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.store.ListSessions(c.Request.Context())
	if err != nil {
		s.storeError(c, "Failed to list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []history.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleListMessages(c *gin.Context) {
	msgs, err := s.store.RecentMessages(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		s.storeError(c, "Failed to list messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.store.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, "Failed to delete session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// storeError maps ErrSessionNotFound to 404 and anything else to 500.
func (s *Server) storeError(c *gin.Context, msg string, err error) {
	if errors.Is(err, history.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		return
	}
	s.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
}
