// Package api exposes the prompt pipelines over HTTP.
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

	"github.com/promptflow/internal/agent"
	"github.com/promptflow/internal/llm"
	"github.com/promptflow/internal/memory"
	"github.com/promptflow/internal/rag"
	"github.com/promptflow/internal/router"
	"github.com/promptflow/internal/tools"
	"github.com/promptflow/internal/workflow"
)

// Deps are the wired subsystems the handlers call into.
type Deps struct {
	Invoker   llm.Invoker
	Registry  *tools.Registry
	MaxSteps  int
	Store     memory.Store
	Window    int
	Recorder  workflow.StepRecorder
	Retriever rag.Retriever
}

// Server represents the API server
type Server struct {
	echo *echo.Echo
	host string
	port int

	deps     Deps
	agent    *agent.Agent
	router   *router.Router
	rag      *rag.Engine
	workflow *workflow.Workflow
	conv     *memory.Conversation
}

// NewServer creates a new API server
func NewServer(host string, port int, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	if deps.Registry == nil {
		deps.Registry = tools.Builtins()
	}
	if deps.MaxSteps < 1 {
		deps.MaxSteps = 5
	}
	if deps.Store == nil {
		deps.Store = memory.NewInMemoryStore()
	}
	if deps.Recorder == nil {
		deps.Recorder = workflow.NewMemoryRecorder()
	}
	if deps.Retriever == nil {
		deps.Retriever = rag.NewKeywordRetriever(rag.SampleDocuments()...)
	}

	server := &Server{
		echo:     e,
		host:     host,
		port:     port,
		deps:     deps,
		agent:    agent.New(deps.Invoker, deps.Registry, agent.WithMaxSteps(deps.MaxSteps)),
		router:   router.Defaults(deps.Invoker),
		rag:      rag.New(deps.Invoker, deps.Retriever, 2),
		workflow: workflow.New(deps.Invoker, deps.Recorder),
		conv:     memory.NewConversation(deps.Store, deps.Invoker, deps.Window),
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 group
	v1 := s.echo.Group("/api/v1")

	v1.POST("/complete", s.complete)
	v1.POST("/parallel", s.parallel)
	v1.POST("/agent", s.runAgent)
	v1.POST("/route", s.route)
	v1.POST("/rag", s.askRAG)
	v1.POST("/workflow", s.runWorkflow)
	v1.GET("/memory/messages", s.getMessages)
	v1.POST("/memory/messages", s.continueConversation)
}

// Handler returns the underlying HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins the API server
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", s.host, s.port)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
