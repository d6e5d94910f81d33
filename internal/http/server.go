// Package http provides the HTTP API for answerd.
package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/answerd/internal/document"
	"github.com/fyrsmithlabs/answerd/internal/engine"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server exposes the conversation engine over HTTP.
type Server struct {
	echo   *echo.Echo
	engine *engine.Engine
	logger *zap.Logger
	config Config
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(eng *engine.Engine, logger *zap.Logger, cfg Config) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 9090
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		engine: eng,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/documents", s.handleIngest)
	v1.GET("/documents", s.handleListDocuments)
	v1.GET("/documents/:id", s.handleGetDocument)
	v1.DELETE("/documents/:id", s.handleDeleteDocument)
	v1.POST("/search", s.handleSearch)
	v1.POST("/chat", s.handleChat)
	v1.POST("/rate", s.handleRate)
	v1.DELETE("/sessions/:id", s.handleClearSession)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(nethttp.StatusOK, HealthResponse{Status: "ok"})
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts reports resource counts.
type StatusCounts struct {
	IndexedChunks int `json:"indexed_chunks"`
}

func (s *Server) handleStatus(c echo.Context) error {
	chunks, err := s.engine.IndexedChunks(c.Request().Context())
	if err != nil {
		s.logger.Warn("failed to count indexed chunks", zap.Error(err))
	}
	return c.JSON(nethttp.StatusOK, StatusResponse{
		Status:  "ok",
		Version: Version,
		Counts:  StatusCounts{IndexedChunks: chunks},
	})
}

func (s *Server) handleIngest(c echo.Context) error {
	var req engine.IngestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, "invalid request body")
	}

	result, err := s.engine.Ingest(c.Request().Context(), req)
	if err != nil {
		return s.mapError(c, err)
	}
	status := nethttp.StatusCreated
	if result.Deduplicated {
		status = nethttp.StatusOK
	}
	return c.JSON(status, result)
}

func (s *Server) handleListDocuments(c echo.Context) error {
	var query struct {
		Category string `query:"category"`
		Limit    int    `query:"limit"`
		Offset   int    `query:"offset"`
	}
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, "invalid query parameters")
	}

	docs, err := s.engine.ListDocuments(c.Request().Context(), query.Category, query.Limit, query.Offset)
	if err != nil {
		return s.mapError(c, err)
	}

	// Content bodies stay out of listings.
	summaries := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = DocumentSummary{
			ID:        d.ID,
			Title:     d.Title,
			Category:  d.Category,
			Status:    string(d.Status),
			CreatedAt: d.CreatedAt,
		}
	}
	return c.JSON(nethttp.StatusOK, DocumentListResponse{Documents: summaries})
}

func (s *Server) handleGetDocument(c echo.Context) error {
	doc, err := s.engine.GetDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(nethttp.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	if err := s.engine.DeleteDocument(c.Request().Context(), c.Param("id")); err != nil {
		return s.mapError(c, err)
	}
	return c.NoContent(nethttp.StatusNoContent)
}

func (s *Server) handleSearch(c echo.Context) error {
	var req engine.SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, "invalid request body")
	}

	results, err := s.engine.Search(c.Request().Context(), req)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(nethttp.StatusOK, SearchResponse{Results: results})
}

func (s *Server) handleChat(c echo.Context) error {
	var req engine.RespondRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, "invalid request body")
	}

	result, err := s.engine.Respond(c.Request().Context(), req)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(nethttp.StatusOK, result)
}

// RateRequest is the request body for POST /api/v1/rate.
type RateRequest struct {
	ConversationID string `json:"conversation_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment,omitempty"`
}

func (s *Server) handleRate(c echo.Context) error {
	var req RateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(nethttp.StatusBadRequest, "invalid request body")
	}

	if err := s.engine.Rate(c.Request().Context(), req.ConversationID, req.Rating, req.Comment); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(nethttp.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) handleClearSession(c echo.Context) error {
	if err := s.engine.ClearSession(c.Request().Context(), c.Param("id")); err != nil {
		return s.mapError(c, err)
	}
	return c.NoContent(nethttp.StatusNoContent)
}

// mapError translates engine errors to HTTP status codes.
func (s *Server) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrValidation):
		return echo.NewHTTPError(nethttp.StatusBadRequest, err.Error())
	case errors.Is(err, document.ErrNotFound):
		return echo.NewHTTPError(nethttp.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
		return echo.NewHTTPError(nethttp.StatusInternalServerError, "internal error")
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
