package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// CreateWorkflow inserts a new workflow definition.
func (c *Client) CreateWorkflow(ctx context.Context, userID, name string, description *string) (*Workflow, error) {
	row := c.pool.QueryRow(ctx, `
		INSERT INTO workflows (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, description, is_active, created_at, updated_at`,
		uuid.NewString(), userID, name, description)

	return scanWorkflow(row)
}

// GetWorkflow fetches a workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := c.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, is_active, created_at, updated_at
		FROM workflows WHERE id = $1`, id)

	w, err := scanWorkflow(row)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorkflows returns a user's workflows, active or not, newest first.
func (c *Client) ListWorkflows(ctx context.Context, userID string) ([]*Workflow, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, user_id, name, description, is_active, created_at, updated_at
		FROM workflows WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var out []*Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	var w Workflow
	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "workflow not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan workflow", err)
	}
	return &w, nil
}
