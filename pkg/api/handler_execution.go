package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

// executeAgentHandler handles POST /api/executions.
func (s *Server) executeAgentHandler(c *echo.Context) error {
	var req ExecuteAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	execution, err := s.executionService.ExecuteAgent(c.Request().Context(), services.ExecuteAgentInput{
		AgentID: req.AgentID,
		Input:   req.Input,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, execution)
}

// getExecutionHandler handles GET /api/executions/:id.
func (s *Server) getExecutionHandler(c *echo.Context) error {
	execution, err := s.executionService.GetExecution(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, execution)
}

// getExecutionMessagesHandler handles GET /api/executions/:id/messages.
func (s *Server) getExecutionMessagesHandler(c *echo.Context) error {
	messages, err := s.executionService.GetExecutionMessages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, messages)
}
