package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"folio/internal/mailer"
	"folio/internal/metrics"
	"folio/internal/notes"
	"folio/internal/viewmodel"
)

// Server provides HTTP handlers for the task manager and the contact form.
type Server struct {
	engine    *gin.Engine
	vm        *viewmodel.Model
	notes     *notes.Adapter
	mailer    mailer.Sender
	metrics   *metrics.Metrics
	logger    *slog.Logger
	staticDir string
}

// Option configures optional collaborators.
type Option func(*Server)

// WithMailer enables the contact endpoint.
func WithMailer(m mailer.Sender) Option { return func(s *Server) { s.mailer = m } }

// WithMetrics mounts /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithStaticDir serves the compiled frontend from dir.
func WithStaticDir(dir string) Option { return func(s *Server) { s.staticDir = dir } }

// New constructs the HTTP server with routes and middleware configured.
func New(vm *viewmodel.Model, adapter *notes.Adapter, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz", "/metrics"))

	srv := &Server{
		engine: router,
		vm:     vm,
		notes:  adapter,
		logger: logger,
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.GET("/all", s.handleListAllTasks)
			tasks.POST("", s.handleSubmitTask)
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleEditTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.POST(":id/edit", s.handleStartEditing)
			tasks.PATCH(":id/status", s.handleUpdateStatus)
			tasks.PATCH(":id/due-date", s.handleUpdateDueDate)
			tasks.PUT(":id/note", s.handleEditNote)
			tasks.POST(":id/note/flush", s.handleFlushNote)
		}

		api.GET("/form", s.handleGetForm)
		api.PUT("/form", s.handleSetForm)
		api.DELETE("/form", s.handleResetForm)

		api.GET("/view", s.handleGetView)
		api.PUT("/view", s.handleSetView)

		api.POST("/selection", s.handleSelect)
		api.DELETE("/selection", s.handleClearSelection)

		api.GET("/state", s.handleState)
		api.GET("/save-status", s.handleSaveStatus)
		api.POST("/save", s.handleManualSave)

		api.POST("/send-email", s.handleSendEmail)
	}

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps view model errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewmodel.ErrBlankText),
		errors.Is(err, viewmodel.ErrInvalidStatus),
		errors.Is(err, viewmodel.ErrInvalidDueDate):
		return http.StatusBadRequest
	case errors.Is(err, viewmodel.ErrSaveFailed):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "request failed",
		slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
