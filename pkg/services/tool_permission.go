package services

import (
	"context"
	"strings"

	"github.com/codeready-toolchain/orchestrator-core/pkg/database"
)

// ToolPermissionService validates and persists per-agent tool enablement.
type ToolPermissionService struct {
	db *database.Client
}

// NewToolPermissionService creates a new ToolPermissionService.
func NewToolPermissionService(db *database.Client) *ToolPermissionService {
	if db == nil {
		panic("NewToolPermissionService: db must not be nil")
	}
	return &ToolPermissionService{db: db}
}

// UpdateEntry is a single tool's requested enablement state.
type UpdateEntry struct {
	ToolName  string
	IsEnabled bool
	Config    map[string]any
}

// UpdatePermissions upserts every entry for an agent.
func (s *ToolPermissionService) UpdatePermissions(ctx context.Context, agentID string, entries []UpdateEntry) ([]*database.ToolPermission, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, NewValidationError("agent_id", "is required")
	}
	if len(entries) == 0 {
		return nil, NewValidationError("tools", "at least one entry is required")
	}

	out := make([]*database.ToolPermission, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ToolName) == "" {
			return nil, NewValidationError("tool_name", "is required")
		}
		tp, err := s.db.UpsertToolPermission(ctx, agentID, e.ToolName, e.IsEnabled, e.Config)
		if err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, nil
}

// ListPermissions returns every stored permission row for an agent.
func (s *ToolPermissionService) ListPermissions(ctx context.Context, agentID string) ([]*database.ToolPermission, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, NewValidationError("agent_id", "is required")
	}
	return s.db.ListToolPermissions(ctx, agentID)
}
