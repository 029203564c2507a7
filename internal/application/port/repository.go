package port

import (
	"context"
	"time"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// WorkflowRepository defines persistence operations for WorkflowDefinition.
// List methods return definitions in creation order, which is the order
// SelectWorkflow relies on for first-match semantics.
type WorkflowRepository interface {
	// Create stores the definition with its conditions and steps
	Create(ctx context.Context, def *entity.WorkflowDefinition) error
	GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error)
	ListActive(ctx context.Context, organizationID, entityType string) ([]*entity.WorkflowDefinition, error)
	SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

// RequestRepository defines persistence operations for ApprovalRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalRequest, error)

	// CompareAndSwapState moves the request to (newStatus, newStep) and bumps
	// its version only if it still holds the expected status, step and
	// version. It reports whether the swap happened; false with a nil error
	// means another writer got there first.
	CompareAndSwapState(ctx context.Context, id string, expected entity.RequestState,
		newStatus entity.Status, newStep int, updatedAt time.Time) (bool, error)

	// ListPending returns pending requests of the organization in creation order
	ListPending(ctx context.Context, organizationID string) ([]*entity.ApprovalRequest, error)
}

// ActionRepository is the append-only action log. It has no update or delete.
type ActionRepository interface {
	Append(ctx context.Context, action *entity.ApprovalAction) error

	// ListByRequest returns the request's actions in creation order
	ListByRequest(ctx context.Context, requestID string) ([]*entity.ApprovalAction, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
