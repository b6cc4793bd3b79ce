package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/analytics"
	"github.com/brickwatch/rita/pkg/workflow"
)

func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type chatRequest struct {
	Goal   string `json:"goal"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	goal := req.Goal
	if goal == "" {
		goal = req.Prompt
	}
	if goal == "" {
		errorResponse(c, http.StatusBadRequest, "missing_goal", "goal or prompt is required")
		return
	}

	if s.gateway == nil || !s.gateway.Configured(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{
			"message": "The agent runtime is not available. Please check your deployment.",
			"error":   "agent_unavailable",
		})
		return
	}

	message, err := s.gateway.Invoke(c.Request.Context(), goal, bearerToken(c))
	if err != nil {
		s.logger.Error("chat invocation failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "chat_failed", err.Error())
		return
	}
	c.String(http.StatusOK, message)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	req, err := analyzeRequestFromQuery(c)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report, err := s.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		var verr *analytics.ValidationError
		if errors.As(err, &verr) {
			errorResponse(c, http.StatusBadRequest, "invalid_request", verr.Message)
			return
		}
		s.logger.Error("cost analysis failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, "analyze_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"brand": Brand, "analysis": report})
}

func analyzeRequestFromQuery(c *gin.Context) (analytics.Request, error) {
	req := analytics.DefaultRequest()

	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid integer value %q", raw)
		}
		req.Days = days
	}
	if granularity := c.Query("granularity"); granularity != "" {
		req.Granularity = granularity
	}
	if raw := c.Query("groupBy"); raw != "" {
		req.GroupBy = splitCSV(raw)
	}
	req.FilterDimension = c.Query("filterDimension")
	req.FilterValue = c.Query("filterValue")
	req.IncludeForecast = parseBool(firstQuery(c, "forecast", "includeForecast"), true)
	req.IncludeAnomalies = parseBool(firstQuery(c, "anomalies", "includeAnomalies"), true)
	req.IncludeSavings = parseBool(firstQuery(c, "savings", "includeSavings"), true)
	return req, nil
}

func (s *Server) handleRightsizing(c *gin.Context) {
	if s.optimizer == nil {
		errorResponse(c, http.StatusServiceUnavailable, "optimizer_unavailable", "Compute Optimizer source not configured")
		return
	}

	var resourceTypes []string
	if raw := c.Query("resourceTypes"); raw != "" {
		resourceTypes = splitCSV(raw)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errorResponse(c, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	report := analytics.RightsizingSummary(c.Request.Context(), s.optimizer, resourceTypes, limit, s.logger)
	c.JSON(http.StatusOK, gin.H{"brand": Brand, "rightsizing": report})
}

type executeWorkflowRequest struct {
	Action          string                  `json:"action"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

func (s *Server) handleExecuteWorkflow(c *gin.Context) {
	var req executeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if req.Action == "" {
		req.Action = workflow.ActionOptimizeInstances
	}

	s.logger.Info("execute workflow requested",
		"action", req.Action,
		"recommendations", len(req.Recommendations),
	)

	result := s.runner.Run(c.Request.Context(), req.Action, workflow.Context{
		workflow.KeyRecommendations: req.Recommendations,
	})

	c.JSON(http.StatusOK, gin.H{
		"brand":  Brand,
		"action": result.Action,
		"execution": gin.H{
			"id":              result.ExecutionID,
			"stateMachineArn": result.StateMachineArn,
			"scheduleName":    result.ScheduleName,
			"payload":         result.Payload,
		},
	})
}

type automationRequest struct {
	Context struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	} `json:"context"`
}

func (s *Server) handleAutomation(c *gin.Context) {
	var req automationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	if bearerToken(c) == "" {
		errorResponse(c, http.StatusUnauthorized, "unauthorized", "Bearer token required for workflow execution")
		return
	}
	if s.dispatcher == nil {
		errorResponse(c, http.StatusServiceUnavailable, "not_configured", "Workflow agent not configured")
		return
	}

	submission, err := s.dispatcher.Submit(c.Request.Context(), req.Context.Recommendations)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"brand":        WorkflowBrand,
		"status":       submission.Status,
		"execution_id": submission.ExecutionID,
		"result": gin.H{
			"message":                   submission.Message,
			"recommendations_processed": submission.RecommendationsProcessed,
			"execution_details":         submission.Plan,
			"status":                    models.StatusInProgress,
		},
	})
}

func (s *Server) handleExecutionStatus(c *gin.Context) {
	if s.dispatcher == nil {
		errorResponse(c, http.StatusServiceUnavailable, "not_configured", "Workflow agent not configured")
		return
	}

	execution, ok := s.dispatcher.Store().Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "not_found", fmt.Sprintf("unknown execution %q", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": WorkflowBrand, "execution": execution})
}

func firstQuery(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	}
	return fallback
}

func splitCSV(raw string) []string {
	values := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
