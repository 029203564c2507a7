package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/domain/event"
	"github.com/garyjia/approval-workflow/internal/domain/workflow"
)

// CreateRequestInput describes a business record entering approval
type CreateRequestInput struct {
	OrganizationID string                 `json:"organization_id"`
	RequesterID    string                 `json:"requester_id"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	RequestData    map[string]interface{} `json:"request_data"`
}

// SubmitApprovalInput is one approver decision on a pending request
type SubmitApprovalInput struct {
	RequestID  string
	Actor      entity.Actor
	Action     entity.ActionKind
	Comments   *string
	DelegateTo *string
}

// ApprovalService drives approval requests through their workflow
type ApprovalService interface {
	// CreateRequest binds the first matching workflow, or auto-approves
	// when none matches
	CreateRequest(ctx context.Context, in CreateRequestInput) (*entity.ApprovalRequest, error)
	GetRequest(ctx context.Context, id string) (*entity.ApprovalRequest, error)
	SubmitApproval(ctx context.Context, in SubmitApprovalInput) (*entity.ApprovalRequest, error)
	CancelRequest(ctx context.Context, requestID, actorID string) (*entity.ApprovalRequest, error)
	ListPendingForActor(ctx context.Context, organizationID string, actor entity.Actor) ([]*entity.ApprovalRequest, error)
	GetAuditTrail(ctx context.Context, requestID string) ([]*entity.ApprovalAction, error)
}

type approvalServiceImpl struct {
	workflowRepo port.WorkflowRepository
	requestRepo  port.RequestRepository
	actionRepo   port.ActionRepository
	publisher    EventPublisher
	logger       Logger
	now          func() time.Time
}

// ApprovalOption configures the approval service
type ApprovalOption func(*approvalServiceImpl)

// WithClock overrides the time source
func WithClock(now func() time.Time) ApprovalOption {
	return func(s *approvalServiceImpl) {
		s.now = now
	}
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	workflowRepo port.WorkflowRepository,
	requestRepo port.RequestRepository,
	actionRepo port.ActionRepository,
	publisher EventPublisher,
	logger Logger,
	opts ...ApprovalOption,
) ApprovalService {
	s := &approvalServiceImpl{
		workflowRepo: workflowRepo,
		requestRepo:  requestRepo,
		actionRepo:   actionRepo,
		publisher:    publisher,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *approvalServiceImpl) CreateRequest(ctx context.Context, in CreateRequestInput) (*entity.ApprovalRequest, error) {
	if err := validateCreateRequest(&in); err != nil {
		return nil, err
	}

	candidates, err := s.workflowRepo.ListActive(ctx, in.OrganizationID, in.EntityType)
	if err != nil {
		return nil, fmt.Errorf("load workflow definitions: %w", err)
	}

	data := in.RequestData
	if data == nil {
		data = map[string]interface{}{}
	}

	now := s.now()
	req := &entity.ApprovalRequest{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		EntityType:     in.EntityType,
		EntityID:       in.EntityID,
		RequesterID:    in.RequesterID,
		RequestData:    data,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	selected := workflow.SelectWorkflow(candidates, in.EntityType, data)
	if selected == nil {
		req.Status = entity.StatusApproved
		req.CurrentStep = 0
		req.AutoApproved = true
	} else {
		wfID := selected.ID
		req.WorkflowID = &wfID
		req.Status = entity.StatusPending
		req.CurrentStep = 1
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		s.logger.Error("Failed to create approval request",
			"organization_id", in.OrganizationID,
			"entity_type", in.EntityType,
			"entity_id", in.EntityID,
			"error", err,
		)
		return nil, fmt.Errorf("create approval request: %w", err)
	}

	s.logger.Info("Approval request created",
		"request_id", req.ID,
		"entity_type", req.EntityType,
		"entity_id", req.EntityID,
		"status", req.Status,
		"auto_approved", req.AutoApproved,
	)

	publish(ctx, s.publisher, s.logger, event.ForRequest(event.TypeRequestCreated, req, req.RequesterID))
	if req.AutoApproved {
		publish(ctx, s.publisher, s.logger, event.ForRequest(event.TypeRequestAutoApproved, req, req.RequesterID))
	}

	return req, nil
}

func (s *approvalServiceImpl) GetRequest(ctx context.Context, id string) (*entity.ApprovalRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get approval request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("approval request %s: %w", id, workflow.ErrNotFound)
	}
	return req, nil
}

// SubmitApproval records the actor's decision at the current step and moves
// the request with a compare-and-swap on (status, current_step, version).
// Delegations swap too, so they lose against any concurrent decision. The
// action is appended before the swap, so a writer that loses the race still
// leaves its attempt in the audit trail.
func (s *approvalServiceImpl) SubmitApproval(ctx context.Context, in SubmitApprovalInput) (*entity.ApprovalRequest, error) {
	trigger, err := validateSubmit(&in)
	if err != nil {
		return nil, err
	}

	req, err := s.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.StatusPending {
		return nil, fmt.Errorf("%w: request %s is %s", workflow.ErrInvalidTransition, req.ID, req.Status)
	}

	def, step, err := s.currentStep(ctx, req)
	if err != nil {
		return nil, err
	}

	history, err := s.actionRepo.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("load approval actions: %w", err)
	}
	if !workflow.CanAct(step, in.Actor, workflow.DelegatesAt(history, req.CurrentStep)...) {
		s.logger.Info("Approval rejected, actor not authorized",
			"request_id", req.ID,
			"step", req.CurrentStep,
			"actor_id", in.Actor.UserID,
		)
		return nil, fmt.Errorf("%w: %s at step %d of request %s",
			workflow.ErrUnauthorized, in.Actor.UserID, req.CurrentStep, req.ID)
	}

	outcome, err := workflow.Transition(req.Status,
		workflow.Position{Step: req.CurrentStep, LastStep: def.LastStep()}, trigger)
	if err != nil {
		return nil, err
	}

	action := &entity.ApprovalAction{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		StepNumber: req.CurrentStep,
		ApproverID: in.Actor.UserID,
		Action:     in.Action,
		Comments:   in.Comments,
		DelegateTo: in.DelegateTo,
		CreatedAt:  s.now(),
	}
	if err := s.actionRepo.Append(ctx, action); err != nil {
		return nil, fmt.Errorf("append approval action: %w", err)
	}

	updated, err := s.swap(ctx, req, outcome, in.Actor.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval action applied",
		"request_id", req.ID,
		"action", in.Action,
		"actor_id", in.Actor.UserID,
		"from_step", req.CurrentStep,
		"status", updated.Status,
		"step", updated.CurrentStep,
	)

	evt := event.ForRequest(eventForAction(in.Action, outcome), updated, in.Actor.UserID).
		WithPayload("action_id", action.ID).
		WithPayload("from_step", req.CurrentStep)
	if in.DelegateTo != nil {
		evt = evt.WithPayload("delegate_to", *in.DelegateTo)
	}
	publish(ctx, s.publisher, s.logger, evt)

	return updated, nil
}

// CancelRequest withdraws a pending request. Only its requester may cancel.
func (s *approvalServiceImpl) CancelRequest(ctx context.Context, requestID, actorID string) (*entity.ApprovalRequest, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.StatusPending {
		return nil, fmt.Errorf("%w: request %s is %s", workflow.ErrInvalidTransition, req.ID, req.Status)
	}
	if actorID == "" || actorID != req.RequesterID {
		return nil, fmt.Errorf("%w: only the requester may cancel request %s", workflow.ErrUnauthorized, req.ID)
	}

	outcome, err := workflow.Transition(req.Status, workflow.Position{Step: req.CurrentStep}, workflow.TriggerCancel)
	if err != nil {
		return nil, err
	}

	action := &entity.ApprovalAction{
		ID:         uuid.NewString(),
		RequestID:  req.ID,
		StepNumber: req.CurrentStep,
		ApproverID: actorID,
		Action:     entity.ActionCancelled,
		CreatedAt:  s.now(),
	}
	if err := s.actionRepo.Append(ctx, action); err != nil {
		return nil, fmt.Errorf("append cancel action: %w", err)
	}

	updated, err := s.swap(ctx, req, outcome, actorID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval request cancelled",
		"request_id", req.ID,
		"step", req.CurrentStep,
	)
	publish(ctx, s.publisher, s.logger,
		event.ForRequest(event.TypeRequestCancelled, updated, actorID).WithPayload("action_id", action.ID))

	return updated, nil
}

// ListPendingForActor returns the organization's pending requests the actor
// may act on now, in creation order
func (s *approvalServiceImpl) ListPendingForActor(ctx context.Context, organizationID string, actor entity.Actor) ([]*entity.ApprovalRequest, error) {
	pending, err := s.requestRepo.ListPending(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	definitions := make(map[string]*entity.WorkflowDefinition)
	result := []*entity.ApprovalRequest{}

	for _, req := range pending {
		if !req.HasWorkflow() {
			continue
		}

		def, cached := definitions[*req.WorkflowID]
		if !cached {
			def, err = s.workflowRepo.GetByID(ctx, *req.WorkflowID)
			if err != nil {
				return nil, fmt.Errorf("load workflow %s: %w", *req.WorkflowID, err)
			}
			definitions[*req.WorkflowID] = def
		}
		if def == nil {
			continue
		}

		step, ok := def.StepAt(req.CurrentStep)
		if !ok {
			continue
		}

		// Only consult the action log when the step's approver is someone else
		if !workflow.CanAct(step, actor) {
			history, err := s.actionRepo.ListByRequest(ctx, req.ID)
			if err != nil {
				return nil, fmt.Errorf("load approval actions: %w", err)
			}
			if !workflow.CanAct(step, actor, workflow.DelegatesAt(history, req.CurrentStep)...) {
				continue
			}
		}

		result = append(result, req)
	}

	return result, nil
}

func (s *approvalServiceImpl) GetAuditTrail(ctx context.Context, requestID string) ([]*entity.ApprovalAction, error) {
	if _, err := s.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}

	actions, err := s.actionRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list approval actions: %w", err)
	}
	if actions == nil {
		actions = []*entity.ApprovalAction{}
	}
	return actions, nil
}

// currentStep loads the bound workflow and the step the request waits at
func (s *approvalServiceImpl) currentStep(ctx context.Context, req *entity.ApprovalRequest) (*entity.WorkflowDefinition, entity.Step, error) {
	if !req.HasWorkflow() {
		return nil, entity.Step{}, fmt.Errorf("%w: request %s has no workflow", workflow.ErrInvalidTransition, req.ID)
	}

	def, err := s.workflowRepo.GetByID(ctx, *req.WorkflowID)
	if err != nil {
		return nil, entity.Step{}, fmt.Errorf("load workflow %s: %w", *req.WorkflowID, err)
	}
	if def == nil {
		return nil, entity.Step{}, fmt.Errorf("workflow %s of request %s: %w", *req.WorkflowID, req.ID, workflow.ErrNotFound)
	}

	step, ok := def.StepAt(req.CurrentStep)
	if !ok {
		return nil, entity.Step{}, fmt.Errorf("%w: workflow %s has no step %d",
			workflow.ErrInvalidTransition, def.ID, req.CurrentStep)
	}
	return def, step, nil
}

// swap persists the outcome only if the request is still where it was read
func (s *approvalServiceImpl) swap(ctx context.Context, req *entity.ApprovalRequest, outcome workflow.Outcome, actorID string) (*entity.ApprovalRequest, error) {
	now := s.now()
	swapped, err := s.requestRepo.CompareAndSwapState(ctx, req.ID,
		req.State(), outcome.Status, outcome.Step, now)
	if err != nil {
		return nil, fmt.Errorf("update approval request: %w", err)
	}

	if !swapped {
		s.logger.Info("Approval request modified concurrently",
			"request_id", req.ID,
			"expected_status", req.Status,
			"expected_step", req.CurrentStep,
			"expected_version", req.Version,
			"actor_id", actorID,
		)
		publish(ctx, s.publisher, s.logger, event.ForRequest(event.TypeRequestConflict, req, actorID))
		return nil, fmt.Errorf("%w: request %s", workflow.ErrConcurrentModification, req.ID)
	}

	updated := *req
	updated.Status = outcome.Status
	updated.CurrentStep = outcome.Step
	updated.Version = req.Version + 1
	updated.UpdatedAt = now
	return &updated, nil
}

func eventForAction(action entity.ActionKind, outcome workflow.Outcome) event.Type {
	switch action {
	case entity.ActionRejected:
		return event.TypeRequestRejected
	case entity.ActionDelegated:
		return event.TypeRequestDelegated
	default:
		if outcome.Status == entity.StatusApproved {
			return event.TypeRequestApproved
		}
		return event.TypeRequestAdvanced
	}
}

func validateCreateRequest(in *CreateRequestInput) error {
	verr := &workflow.ValidationError{}

	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	in.RequesterID = strings.TrimSpace(in.RequesterID)
	in.EntityType = strings.TrimSpace(in.EntityType)
	in.EntityID = strings.TrimSpace(in.EntityID)

	if in.OrganizationID == "" {
		verr.Add("organization_id", "is required")
	}
	if in.RequesterID == "" {
		verr.Add("requester_id", "is required")
	}
	if in.EntityType == "" {
		verr.Add("entity_type", "is required")
	}
	if in.EntityID == "" {
		verr.Add("entity_id", "is required")
	}
	return verr.OrNil()
}

// validateSubmit checks the shape of a decision before any state is read.
// Cancellation is not an approver decision and goes through CancelRequest.
func validateSubmit(in *SubmitApprovalInput) (workflow.Trigger, error) {
	verr := &workflow.ValidationError{}

	if in.Actor.UserID == "" {
		verr.Add("actor_id", "is required")
	}

	var trigger workflow.Trigger
	switch in.Action {
	case entity.ActionApproved, entity.ActionRejected, entity.ActionDelegated:
		trigger, _ = workflow.TriggerFor(in.Action)
	default:
		verr.Add("action", fmt.Sprintf("must be one of approved, rejected, delegated; got %q", in.Action))
	}

	if in.DelegateTo != nil {
		target := strings.TrimSpace(*in.DelegateTo)
		in.DelegateTo = &target
	}
	if in.Action == entity.ActionDelegated {
		if in.DelegateTo == nil || *in.DelegateTo == "" {
			verr.Add("delegate_to", "is required when delegating")
		}
	} else {
		in.DelegateTo = nil
	}

	if err := verr.OrNil(); err != nil {
		return "", err
	}
	return trigger, nil
}
