package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/sqlite"
)

// ActionRepository implements port.ActionRepository. The table carries
// triggers that abort UPDATE and DELETE.
type ActionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActionRepository creates a new approval action repository
func NewActionRepository(db *sql.DB, logger *zap.Logger) port.ActionRepository {
	return &ActionRepository{
		db:     db,
		logger: logger,
	}
}

// Append records an action
func (r *ActionRepository) Append(ctx context.Context, action *entity.ApprovalAction) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO approval_actions (
			id, request_id, step_number, approver_id, action, comments, delegate_to, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		action.ID,
		action.RequestID,
		action.StepNumber,
		action.ApproverID,
		string(action.Action),
		nullString(action.Comments),
		nullString(action.DelegateTo),
		formatTime(action.CreatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to append approval action",
			zap.String("request_id", action.RequestID),
			zap.String("action", action.Action.String()),
			zap.Int("step_number", action.StepNumber),
			zap.Error(err))
		return fmt.Errorf("failed to append approval action: %w", err)
	}

	return nil
}

// ListByRequest returns a request's actions ordered by creation time, then insertion
func (r *ActionRepository) ListByRequest(ctx context.Context, requestID string) ([]*entity.ApprovalAction, error) {
	query := `
		SELECT id, request_id, step_number, approver_id, action, comments, delegate_to, created_at
		FROM approval_actions
		WHERE request_id = ?
		ORDER BY created_at, seq
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list approval actions",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list approval actions: %w", err)
	}
	defer rows.Close()

	actions := []*entity.ApprovalAction{}
	for rows.Next() {
		var a entity.ApprovalAction
		var kind, createdAt string
		var comments, delegateTo sql.NullString

		if err := rows.Scan(
			&a.ID,
			&a.RequestID,
			&a.StepNumber,
			&a.ApproverID,
			&kind,
			&comments,
			&delegateTo,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval action: %w", err)
		}

		a.Action = entity.ActionKind(kind)
		a.Comments = stringPtr(comments)
		a.DelegateTo = stringPtr(delegateTo)
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		actions = append(actions, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval actions: %w", err)
	}

	return actions, nil
}

// Verify interface compliance
var _ port.ActionRepository = (*ActionRepository)(nil)
