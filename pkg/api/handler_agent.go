package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

// createAgentHandler handles POST /api/agents.
func (s *Server) createAgentHandler(c *echo.Context) error {
	var req CreateAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	agent, err := s.agentService.CreateAgent(c.Request().Context(), services.CreateAgentInput{
		WorkflowID:    req.WorkflowID,
		LLMProviderID: req.LLMProviderID,
		Name:          req.Name,
		Description:   req.Description,
		SystemPrompt:  req.SystemPrompt,
		Model:         req.Model,
		Temperature:   req.Temperature,
		MaxTokens:     req.MaxTokens,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, agent)
}

// getAgentHandler handles GET /api/agents/:id.
func (s *Server) getAgentHandler(c *echo.Context) error {
	agent, err := s.agentService.GetAgent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, agent)
}

// listAgentsHandler handles GET /api/workflows/:id/agents.
func (s *Server) listAgentsHandler(c *echo.Context) error {
	agents, err := s.agentService.ListAgents(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, agents)
}
