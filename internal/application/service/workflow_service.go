package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/domain/event"
	"github.com/garyjia/approval-workflow/internal/domain/workflow"
)

// CreateWorkflowInput describes a new workflow definition. Active defaults to true.
type CreateWorkflowInput struct {
	OrganizationID string             `json:"organization_id" yaml:"organization_id"`
	Name           string             `json:"name" yaml:"name"`
	EntityType     string             `json:"entity_type" yaml:"entity_type"`
	Conditions     []entity.Condition `json:"conditions" yaml:"conditions"`
	Steps          []entity.Step      `json:"steps" yaml:"steps"`
	Active         *bool              `json:"active,omitempty" yaml:"active"`
}

// WorkflowService manages workflow definitions
type WorkflowService interface {
	CreateDefinition(ctx context.Context, in CreateWorkflowInput) (*entity.WorkflowDefinition, error)
	GetDefinition(ctx context.Context, id string) (*entity.WorkflowDefinition, error)
	ListDefinitions(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error)
	SetActive(ctx context.Context, id string, active bool) (*entity.WorkflowDefinition, error)

	// SeedDefinitions creates the given definitions, skipping every
	// organization that already has at least one. It returns how many were created.
	SeedDefinitions(ctx context.Context, seeds []CreateWorkflowInput) (int, error)
}

type workflowServiceImpl struct {
	workflowRepo port.WorkflowRepository
	txManager    port.TransactionManager
	publisher    EventPublisher
	logger       Logger
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(
	workflowRepo port.WorkflowRepository,
	txManager port.TransactionManager,
	publisher EventPublisher,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		workflowRepo: workflowRepo,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *workflowServiceImpl) CreateDefinition(ctx context.Context, in CreateWorkflowInput) (*entity.WorkflowDefinition, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}

	now := time.Now().UTC()
	def := &entity.WorkflowDefinition{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		Name:           in.Name,
		EntityType:     in.EntityType,
		Conditions:     append([]entity.Condition{}, in.Conditions...),
		Steps:          append([]entity.Step{}, in.Steps...),
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := workflow.NormalizeDefinition(def); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.workflowRepo.Create(txCtx, def)
	})
	if err != nil {
		s.logger.Error("Failed to create workflow definition",
			"organization_id", def.OrganizationID,
			"name", def.Name,
			"error", err,
		)
		return nil, fmt.Errorf("create workflow definition: %w", err)
	}

	s.logger.Info("Workflow definition created",
		"workflow_id", def.ID,
		"organization_id", def.OrganizationID,
		"entity_type", def.EntityType,
		"steps", len(def.Steps),
		"active", def.Active,
	)

	evt := event.NewEvent(event.TypeWorkflowCreated, def.OrganizationID, map[string]interface{}{
		"name":  def.Name,
		"steps": len(def.Steps),
	})
	evt.WorkflowID = def.ID
	evt.EntityType = def.EntityType
	publish(ctx, s.publisher, s.logger, evt)

	return def, nil
}

func (s *workflowServiceImpl) GetDefinition(ctx context.Context, id string) (*entity.WorkflowDefinition, error) {
	def, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get workflow definition: %w", err)
	}
	if def == nil {
		return nil, fmt.Errorf("workflow definition %s: %w", id, workflow.ErrNotFound)
	}
	return def, nil
}

func (s *workflowServiceImpl) ListDefinitions(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error) {
	defs, err := s.workflowRepo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list workflow definitions: %w", err)
	}
	if defs == nil {
		defs = []*entity.WorkflowDefinition{}
	}
	return defs, nil
}

// SetActive toggles a definition. Requests already bound to it are unaffected.
func (s *workflowServiceImpl) SetActive(ctx context.Context, id string, active bool) (*entity.WorkflowDefinition, error) {
	def, err := s.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}

	if active && len(def.Steps) == 0 {
		return nil, workflow.NewValidationError("active", "an active workflow needs at least one step")
	}
	if def.Active == active {
		return def, nil
	}

	now := time.Now().UTC()
	if err := s.workflowRepo.SetActive(ctx, id, active, now); err != nil {
		return nil, fmt.Errorf("set workflow active: %w", err)
	}

	s.logger.Info("Workflow definition active flag changed",
		"workflow_id", id,
		"active", active,
	)

	def.Active = active
	def.UpdatedAt = now
	return def, nil
}

func (s *workflowServiceImpl) SeedDefinitions(ctx context.Context, seeds []CreateWorkflowInput) (int, error) {
	skip := make(map[string]bool)
	checked := make(map[string]bool)
	created := 0

	for i, seed := range seeds {
		org := seed.OrganizationID
		if !checked[org] {
			existing, err := s.workflowRepo.ListByOrganization(ctx, org)
			if err != nil {
				return created, fmt.Errorf("check existing workflows for %s: %w", org, err)
			}
			checked[org] = true
			skip[org] = len(existing) > 0
			if skip[org] {
				s.logger.Info("Skipping workflow seeds, organization already configured",
					"organization_id", org,
					"existing", len(existing),
				)
			}
		}
		if skip[org] {
			continue
		}

		if _, err := s.CreateDefinition(ctx, seed); err != nil {
			return created, fmt.Errorf("seed workflow %d (%s): %w", i, seed.Name, err)
		}
		created++
	}

	return created, nil
}
