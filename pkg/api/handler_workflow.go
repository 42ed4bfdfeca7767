package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// createWorkflowHandler handles POST /api/workflows.
func (s *Server) createWorkflowHandler(c *echo.Context) error {
	var req CreateWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	workflow, err := s.workflowService.CreateWorkflow(c.Request().Context(), req.UserID, req.Name, req.Description)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, workflow)
}

// getWorkflowHandler handles GET /api/workflows/:id.
func (s *Server) getWorkflowHandler(c *echo.Context) error {
	workflow, err := s.workflowService.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, workflow)
}

// listWorkflowsHandler handles GET /api/workflows?user_id=....
func (s *Server) listWorkflowsHandler(c *echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	workflows, err := s.workflowService.ListWorkflows(c.Request().Context(), userID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, workflows)
}
