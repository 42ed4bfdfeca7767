package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/services"
)

// updateToolPermissionsHandler handles POST /api/tools/permissions.
func (s *Server) updateToolPermissionsHandler(c *echo.Context) error {
	var req UpdateToolPermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entries := make([]services.UpdateEntry, 0, len(req.Tools))
	for _, t := range req.Tools {
		entries = append(entries, services.UpdateEntry{
			ToolName:  t.ToolName,
			IsEnabled: t.IsEnabled,
			Config:    t.Config,
		})
	}

	permissions, err := s.toolPermissionService.UpdatePermissions(c.Request().Context(), req.AgentID, entries)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, permissions)
}

// listToolPermissionsHandler handles GET /api/agents/:id/tools/permissions.
func (s *Server) listToolPermissionsHandler(c *echo.Context) error {
	permissions, err := s.toolPermissionService.ListPermissions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, permissions)
}
