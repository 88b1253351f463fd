package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/gateways/websocket"
	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/middleware"
	"github.com/Yonela986/kanban-board/internal/notify"
	"github.com/Yonela986/kanban-board/internal/storage/sqlite"
)

// Options carries the collaborators of the HTTP server. Inbox, Gate and Hub
// are optional; their routes are skipped when nil.
type Options struct {
	Registry       *kanban.Registry
	Inbox          *sqlite.Store
	Gate           *notify.Gate
	Hub            *websocket.Hub
	Logger         *zap.Logger
	Env            string
	StaticDir      string
	AllowedOrigins []string
}

// Server provides HTTP handlers for the sprint kanban boards.
type Server struct {
	engine    *gin.Engine
	registry  *kanban.Registry
	inbox     *sqlite.Store
	gate      *notify.Gate
	hub       *websocket.Hub
	logger    *zap.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Env != "" {
		gin.SetMode(ginMode(opts.Env))
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(logger, "/api"))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	}

	srv := &Server{
		engine:    router,
		registry:  opts.Registry,
		inbox:     opts.Inbox,
		gate:      opts.Gate,
		hub:       opts.Hub,
		logger:    logger,
		staticDir: opts.StaticDir,
	}

	srv.registerRoutes()
	return srv
}

// ginMode picks the gin mode for a deployment env. Only "dev" keeps the
// debug route dump.
func ginMode(env string) string {
	switch env {
	case "dev":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	}
	return gin.ReleaseMode
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API, websocket and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		boards := api.Group("/boards")
		{
			boards.GET("", s.handleSnapshot)
			boards.POST("", s.handleCreateBoard)
			boards.GET(":name", s.handleGetBoard)
			boards.DELETE(":name", s.handleDeleteBoard)
			boards.PUT(":name/select", s.handleSelectBoard)
			boards.POST(":name/tasks", s.handleCreateTask)
			boards.POST(":name/drag", s.handleDrag)
			boards.POST(":name/reorder", s.handleReorder)
			boards.POST(":name/move", s.handleMove)

			task := boards.Group(":name/columns/:column/tasks/:id")
			task.PUT("", s.handleUpdateTask)
			task.DELETE("", s.handleDeleteTask)
			task.POST("/comments", s.handleAddComment)
			task.POST("/timer", s.handleStartTimer)
			task.DELETE("/timer", s.handleStopTimer)
		}

		notifications := api.Group("/notifications")
		{
			if s.inbox != nil {
				notifications.GET("", s.handleListNotifications)
				notifications.POST(":id/read", s.handleMarkRead)
			}
			if s.gate != nil {
				notifications.GET("/permission", s.handleGetPermission)
				notifications.PUT("/permission", s.handleSetPermission)
			}
		}
	}

	if s.hub != nil {
		websocket.RegisterRoutes(s.engine, s.hub)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok", "boards": s.registry.Len()}
	if s.inbox != nil {
		if err := s.inbox.Ping(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["inbox"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
	}
	c.JSON(http.StatusOK, status)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kanban.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, kanban.ErrDuplicateName), errors.Is(err, kanban.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, kanban.ErrNotFound), errors.Is(err, sqlite.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondDomainError picks the status for a registry error.
func (s *Server) respondDomainError(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
