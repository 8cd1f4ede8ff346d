// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the knowledge graph over a small REST API:
// process text, execute queries, and fetch the graph document. It is a
// thin binding over the extraction pipeline and query engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/llamagraph/llamagraph/internal/extract"
	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/internal/query"
	"github.com/llamagraph/llamagraph/pkg/types"
)

// Server holds the shared graph and the pipeline used to extend it.
// Mutation (process) is serialized by mu; queries hold the read lock, so
// reads run concurrently with each other but never with ingestion.
type Server struct {
	cfg      types.ServerConfig
	pipeline *extract.Pipeline

	mu     sync.RWMutex
	graph  *graph.Graph
	engine *query.Engine
}

// New creates a server over an existing graph (may be empty).
func New(cfg types.ServerConfig, pipeline *extract.Pipeline, g *graph.Graph) *Server {
	if g == nil {
		g = graph.New()
	}
	return &Server{
		cfg:      cfg,
		pipeline: pipeline,
		graph:    g,
		engine:   query.NewEngine(g),
	}
}

type processRequest struct {
	Text string `json:"text"`
}

type processResponse struct {
	Entities  int                `json:"entities"`
	Relations int                `json:"relations"`
	Summary   graph.GraphSummary `json:"summary"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/healthz", s.handleHealth)
	e.POST("/process", s.handleProcess)
	e.POST("/query", s.handleQuery)
	e.GET("/graph", s.handleGraph)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProcess(c echo.Context) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}

	result, err := s.pipeline.Run(c.Request().Context(), req.Text)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	s.mu.Lock()
	for _, e := range result.Entities {
		s.graph.AddEntity(e)
	}
	added := 0
	for _, r := range result.Relations {
		if _, err := s.graph.AddRelation(r); err == nil {
			added++
		}
	}
	summary := s.graph.Summary()
	s.mu.Unlock()

	return c.JSON(http.StatusOK, processResponse{
		Entities:  len(result.Entities),
		Relations: added,
		Summary:   summary,
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	s.mu.RLock()
	result := s.engine.Execute(req.Query)
	s.mu.RUnlock()

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGraph(c echo.Context) error {
	s.mu.RLock()
	doc := s.graph.ToDocument()
	s.mu.RUnlock()

	return c.JSON(http.StatusOK, doc)
}
