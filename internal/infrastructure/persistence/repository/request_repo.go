package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new approval request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, organization_id, workflow_id, entity_type, entity_id, requester_id,
	request_data, status, current_step, auto_approved, version, created_at, updated_at
`

// Create inserts a new approval request
func (r *RequestRepository) Create(ctx context.Context, req *entity.ApprovalRequest) error {
	data := req.RequestData
	if data == nil {
		data = map[string]interface{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode request data: %w", err)
	}

	_, err = sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO approval_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		req.ID,
		req.OrganizationID,
		nullString(req.WorkflowID),
		req.EntityType,
		req.EntityID,
		req.RequesterID,
		string(payload),
		string(req.Status),
		req.CurrentStep,
		req.AutoApproved,
		req.Version,
		formatTime(req.CreatedAt),
		formatTime(req.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create approval request",
			zap.String("organization_id", req.OrganizationID),
			zap.String("entity_type", req.EntityType),
			zap.String("entity_id", req.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to create approval request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = ?`

	req, err := scanRequest(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval request by ID",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}

	return req, nil
}

// CompareAndSwapState updates status and step only when status, step and
// version all still hold the expected values. Zero affected rows means
// another writer won.
func (r *RequestRepository) CompareAndSwapState(ctx context.Context, id string, expected entity.RequestState,
	newStatus entity.Status, newStep int, updatedAt time.Time) (bool, error) {
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `
		UPDATE approval_requests
		SET status = ?, current_step = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND status = ? AND current_step = ? AND version = ?
	`,
		string(newStatus),
		newStep,
		formatTime(updatedAt),
		id,
		string(expected.Status),
		expected.Step,
		expected.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update approval request state",
			zap.String("id", id),
			zap.String("expected_status", expected.Status.String()),
			zap.Int("expected_step", expected.Step),
			zap.Int("expected_version", expected.Version),
			zap.Error(err))
		return false, fmt.Errorf("failed to update approval request state: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		r.logger.Info("Approval request state changed concurrently",
			zap.String("id", id),
			zap.String("expected_status", expected.Status.String()),
			zap.Int("expected_step", expected.Step),
			zap.Int("expected_version", expected.Version))
		return false, nil
	}
	return true, nil
}

// ListPending returns pending requests of the organization in creation order
func (r *RequestRepository) ListPending(ctx context.Context, organizationID string) ([]*entity.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE organization_id = ? AND status = ?
		ORDER BY seq
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, organizationID, string(entity.StatusPending))
	if err != nil {
		r.logger.Error("Failed to list pending approval requests",
			zap.String("organization_id", organizationID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list pending approval requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approval requests: %w", err)
	}

	return requests, nil
}

func scanRequest(row scanner) (*entity.ApprovalRequest, error) {
	var req entity.ApprovalRequest
	var workflowID sql.NullString
	var payload, status, createdAt, updatedAt string

	if err := row.Scan(
		&req.ID,
		&req.OrganizationID,
		&workflowID,
		&req.EntityType,
		&req.EntityID,
		&req.RequesterID,
		&payload,
		&status,
		&req.CurrentStep,
		&req.AutoApproved,
		&req.Version,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	req.WorkflowID = stringPtr(workflowID)
	req.Status = entity.Status(status)

	req.RequestData = map[string]interface{}{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req.RequestData); err != nil {
			return nil, fmt.Errorf("invalid request data for %s: %w", req.ID, err)
		}
	}

	var err error
	if req.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
