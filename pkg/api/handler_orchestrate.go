package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/orchestrator"
)

// startOrchestrationHandler handles POST /api/orchestrate.
func (s *Server) startOrchestrationHandler(c *echo.Context) error {
	var req OrchestrateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	run, err := s.coordinator.Start(c.Request().Context(), orchestrator.StartRequest{
		WorkflowID:          req.WorkflowID,
		OrchestratorAgentID: req.OrchestratorAgentID,
		Mode:                req.Mode,
		Input:               req.Input,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusAccepted, run)
}

// getOrchestrationHandler handles GET /api/orchestrate/:id.
func (s *Server) getOrchestrationHandler(c *echo.Context) error {
	run, err := s.coordinator.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, run)
}

// approveOrchestrationHandler handles POST /api/orchestrate/:id/approve.
func (s *Server) approveOrchestrationHandler(c *echo.Context) error {
	run, err := s.coordinator.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, run)
}

// rejectOrchestrationHandler handles POST /api/orchestrate/:id/reject.
func (s *Server) rejectOrchestrationHandler(c *echo.Context) error {
	var req RejectOrchestrationRequest
	if err := c.Bind(&req); err != nil {
		// Reason is optional; an empty/absent body is fine.
		req = RejectOrchestrationRequest{}
	}

	run, err := s.coordinator.Reject(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, run)
}
