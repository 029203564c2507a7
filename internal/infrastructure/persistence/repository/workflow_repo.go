package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/sqlite"
)

// WorkflowRepository implements port.WorkflowRepository
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow definition repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the definition row followed by its conditions and steps.
// Callers wrap it in a transaction so a failure leaves nothing behind.
func (r *WorkflowRepository) Create(ctx context.Context, def *entity.WorkflowDefinition) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO workflow_definitions (
			id, organization_id, name, entity_type, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		def.ID,
		def.OrganizationID,
		def.Name,
		def.EntityType,
		def.Active,
		formatTime(def.CreatedAt),
		formatTime(def.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create workflow definition",
			zap.String("organization_id", def.OrganizationID),
			zap.String("name", def.Name),
			zap.Error(err))
		return fmt.Errorf("failed to create workflow definition: %w", err)
	}

	for i, cond := range def.Conditions {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_conditions (workflow_id, position, field, kind, threshold, value)
			VALUES (?, ?, ?, ?, ?, ?)
		`, def.ID, i, cond.Field, string(cond.Kind), cond.Threshold, cond.Value)
		if err != nil {
			r.logger.Error("Failed to create workflow condition",
				zap.String("workflow_id", def.ID),
				zap.Int("position", i),
				zap.Error(err))
			return fmt.Errorf("failed to create workflow condition: %w", err)
		}
	}

	for _, step := range def.Steps {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO workflow_steps (workflow_id, step_order, approver_kind, approver_user_id, approver_role)
			VALUES (?, ?, ?, ?, ?)
		`, def.ID, step.Order, string(step.Approver.Kind), step.Approver.UserID, step.Approver.RoleName)
		if err != nil {
			r.logger.Error("Failed to create workflow step",
				zap.String("workflow_id", def.ID),
				zap.Int("step_order", step.Order),
				zap.Error(err))
			return fmt.Errorf("failed to create workflow step: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a definition with its conditions and steps
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error) {
	query := `
		SELECT id, organization_id, name, entity_type, active, created_at, updated_at
		FROM workflow_definitions
		WHERE id = ?
	`

	def, err := scanDefinition(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow definition",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow definition: %w", err)
	}

	if err := r.loadChildren(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// ListByOrganization returns all definitions of the organization in creation order
func (r *WorkflowRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error) {
	query := `
		SELECT id, organization_id, name, entity_type, active, created_at, updated_at
		FROM workflow_definitions
		WHERE organization_id = ?
		ORDER BY seq
	`
	return r.list(ctx, query, organizationID)
}

// ListActive returns active definitions for an entity type in creation order
func (r *WorkflowRepository) ListActive(ctx context.Context, organizationID, entityType string) ([]*entity.WorkflowDefinition, error) {
	query := `
		SELECT id, organization_id, name, entity_type, active, created_at, updated_at
		FROM workflow_definitions
		WHERE organization_id = ? AND entity_type = ? AND active = 1
		ORDER BY seq
	`
	return r.list(ctx, query, organizationID, entityType)
}

// SetActive flips the active flag
func (r *WorkflowRepository) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`UPDATE workflow_definitions SET active = ?, updated_at = ? WHERE id = ?`,
		active, formatTime(updatedAt), id)
	if err != nil {
		r.logger.Error("Failed to update workflow active flag",
			zap.String("id", id),
			zap.Bool("active", active),
			zap.Error(err))
		return fmt.Errorf("failed to update workflow definition: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow definition %s not found", id)
	}
	return nil
}

func (r *WorkflowRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.WorkflowDefinition, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list workflow definitions", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow definitions: %w", err)
	}

	var defs []*entity.WorkflowDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan workflow definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating workflow definitions: %w", err)
	}
	// Close before issuing child queries, which may share a transaction connection
	rows.Close()

	for _, def := range defs {
		if err := r.loadChildren(ctx, def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func (r *WorkflowRepository) loadChildren(ctx context.Context, def *entity.WorkflowDefinition) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	condRows, err := exec.QueryContext(ctx, `
		SELECT field, kind, threshold, value
		FROM workflow_conditions
		WHERE workflow_id = ?
		ORDER BY position
	`, def.ID)
	if err != nil {
		return fmt.Errorf("failed to load workflow conditions: %w", err)
	}
	def.Conditions = []entity.Condition{}
	for condRows.Next() {
		var cond entity.Condition
		var kind string
		if err := condRows.Scan(&cond.Field, &kind, &cond.Threshold, &cond.Value); err != nil {
			condRows.Close()
			return fmt.Errorf("failed to scan workflow condition: %w", err)
		}
		cond.Kind = entity.ConditionKind(kind)
		def.Conditions = append(def.Conditions, cond)
	}
	if err := condRows.Err(); err != nil {
		condRows.Close()
		return fmt.Errorf("error iterating workflow conditions: %w", err)
	}
	condRows.Close()

	stepRows, err := exec.QueryContext(ctx, `
		SELECT step_order, approver_kind, approver_user_id, approver_role
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY step_order
	`, def.ID)
	if err != nil {
		return fmt.Errorf("failed to load workflow steps: %w", err)
	}
	defer stepRows.Close()

	def.Steps = []entity.Step{}
	for stepRows.Next() {
		var step entity.Step
		var kind string
		if err := stepRows.Scan(&step.Order, &kind, &step.Approver.UserID, &step.Approver.RoleName); err != nil {
			return fmt.Errorf("failed to scan workflow step: %w", err)
		}
		step.Approver.Kind = entity.ApproverKind(kind)
		def.Steps = append(def.Steps, step)
	}
	return stepRows.Err()
}

func scanDefinition(row scanner) (*entity.WorkflowDefinition, error) {
	var def entity.WorkflowDefinition
	var createdAt, updatedAt string

	if err := row.Scan(
		&def.ID,
		&def.OrganizationID,
		&def.Name,
		&def.EntityType,
		&def.Active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if def.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if def.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &def, nil
}

// Verify interface compliance
var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
