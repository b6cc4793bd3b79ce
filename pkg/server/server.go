// Package server exposes the HTTP API: cost analysis, chat pass-through,
// workflow execution, and the asynchronous automation endpoint.
package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/analytics"
	"github.com/brickwatch/rita/pkg/dispatch"
	"github.com/brickwatch/rita/pkg/workflow"
)

// Brand names used in response envelopes.
const (
	Brand         = "Brickwatch"
	WorkflowBrand = "BrickwatchWorkflow"
)

// Analyzer is the cost analytics entry point.
type Analyzer interface {
	Analyze(ctx context.Context, req analytics.Request) (*models.AnalysisReport, error)
}

// WorkflowRunner executes a named workflow synchronously.
type WorkflowRunner interface {
	Run(ctx context.Context, action string, input workflow.Context) *workflow.Result
}

// Dispatcher accepts recommendation batches for asynchronous execution.
type Dispatcher interface {
	Submit(ctx context.Context, recommendations []models.Recommendation) (*dispatch.Submission, error)
	Store() *dispatch.Store
}

// Gateway invokes the conversational agent runtime.
type Gateway interface {
	Configured(ctx context.Context) bool
	Invoke(ctx context.Context, goal, bearerToken string) (string, error)
}

// Server wires the HTTP surface to the underlying components. Any nil
// dependency degrades its endpoints (503 or fallback) instead of panicking.
type Server struct {
	analyzer   Analyzer
	runner     WorkflowRunner
	dispatcher Dispatcher
	gateway    Gateway
	optimizer  analytics.OptimizerSource
	logger     *slog.Logger
}

func New(analyzer Analyzer, runner WorkflowRunner, dispatcher Dispatcher, gateway Gateway, optimizer analytics.OptimizerSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		analyzer:   analyzer,
		runner:     runner,
		dispatcher: dispatcher,
		gateway:    gateway,
		optimizer:  optimizer,
		logger:     logger,
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/healthz", s.handleHealthz)

	v1 := router.Group("/v1")
	{
		v1.POST("/chat", s.handleChat)
		v1.GET("/analyze", s.handleAnalyze)
		v1.GET("/rightsizing", s.handleRightsizing)
		v1.POST("/execute-workflow", s.handleExecuteWorkflow)
		v1.POST("/automation", s.handleAutomation)
		v1.GET("/executions/:id", s.handleExecutionStatus)
	}

	return router
}
