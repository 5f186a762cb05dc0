package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/buildreview/internal/agents"
	"github.com/buildreview/internal/invoker"
	"github.com/buildreview/internal/prompts"
	"github.com/buildreview/internal/review"
)

// Server is the HTTP boundary over the orchestration engine.
type Server struct {
	echo     *echo.Echo
	port     int
	registry *agents.Registry
	selector *agents.Selector
	manager  *prompts.Manager
	invoker  *invoker.Invoker
	engine   *review.Engine
}

// NewServer creates the API server over the assembled engine components.
func NewServer(port int, registry *agents.Registry, manager *prompts.Manager, inv *invoker.Invoker, engine *review.Engine) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo:     e,
		port:     port,
		registry: registry,
		selector: agents.NewSelector(registry),
		manager:  manager,
		invoker:  inv,
		engine:   engine,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	// Agents
	v1.POST("/agents", s.registerAgent)
	v1.GET("/agents", s.listAgents)
	v1.GET("/agents/selection", s.selectAgents)
	v1.GET("/agents/:id", s.getAgent)
	v1.POST("/agents/:id/invoke", s.invokeAgent)

	// Prompts
	v1.POST("/prompts", s.createPrompt)
	v1.GET("/prompts", s.listPrompts)
	v1.GET("/prompts/search", s.searchPrompts)
	v1.GET("/prompts/:id", s.getPrompt)
	v1.PUT("/prompts/:id", s.updatePrompt)
	v1.DELETE("/prompts/:id", s.deletePrompt)
	v1.GET("/prompts/:id/versions", s.getPromptVersions)
	v1.POST("/prompts/:id/versions/:version/activate", s.activatePromptVersion)
	v1.GET("/prompts/:id/versions/:version/metrics", s.getPromptMetrics)
	v1.POST("/prompts/:id/versions/:version/metrics", s.recordPromptMetrics)
	v1.POST("/prompts/:id/versions/:version/tests", s.runPromptTests)

	// Reviews and the builder-invitation gate
	v1.POST("/projects/:id/review", s.reviewSoW)
	v1.GET("/projects/:id/review", s.getReviewResults)
	v1.POST("/projects/:id/review/apply", s.applyRecommendations)
	v1.GET("/projects/:id/gate", s.validateForBuilderInvitation)
}

// Start begins the API server and blocks until interrupted.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
