package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/codeready-toolchain/orchestrator-core/pkg/apperrors"
)

// AppendMessage records the next message in an execution's conversation,
// assigning it the next sequence_order so callers never need to track it
// themselves.
func (c *Client) AppendMessage(ctx context.Context, executionID, role string, content []any) (*AgentMessage, error) {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "marshal message content", err)
	}

	row := c.pool.QueryRow(ctx, `
		INSERT INTO agent_messages (id, execution_id, role, content, sequence_order)
		VALUES (
			$1, $2, $3, $4,
			COALESCE((SELECT MAX(sequence_order) + 1 FROM agent_messages WHERE execution_id = $2), 0)
		)
		RETURNING id, execution_id, role, content, sequence_order, created_at, updated_at`,
		uuid.NewString(), executionID, role, contentJSON)

	return scanAgentMessage(row)
}

// ListMessages returns an execution's conversation in sequence order.
func (c *Client) ListMessages(ctx context.Context, executionID string) ([]*AgentMessage, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, execution_id, role, content, sequence_order, created_at, updated_at
		FROM agent_messages WHERE execution_id = $1 ORDER BY sequence_order ASC`, executionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*AgentMessage
	for rows.Next() {
		m, err := scanAgentMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanAgentMessage(row rowScanner) (*AgentMessage, error) {
	var m AgentMessage
	var contentJSON []byte
	err := row.Scan(&m.ID, &m.ExecutionID, &m.Role, &contentJSON, &m.SequenceOrder, &m.CreatedAt, &m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "message not found", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "scan agent message", err)
	}
	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &m.Content); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDatabaseError, "unmarshal message content", err)
		}
	}
	return &m, nil
}
