package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// Store is an in-memory implementation of the repository ports.
// Safe for concurrent access. Intended for tests and development.
type Store struct {
	mu sync.RWMutex

	seq         int64
	definitions map[string]*storedDefinition
	requests    map[string]*storedRequest
	actions     map[string][]*storedAction // key: request id
}

type storedDefinition struct {
	seq int64
	def *entity.WorkflowDefinition
}

type storedRequest struct {
	seq int64
	req *entity.ApprovalRequest
}

type storedAction struct {
	seq    int64
	action *entity.ApprovalAction
}

// New returns a new empty Store
func New() *Store {
	return &Store{
		definitions: make(map[string]*storedDefinition),
		requests:    make(map[string]*storedRequest),
		actions:     make(map[string][]*storedAction),
	}
}

// Workflows returns the workflow definition view of the store
func (m *Store) Workflows() port.WorkflowRepository { return workflowView{m} }

// Requests returns the approval request view of the store
func (m *Store) Requests() port.RequestRepository { return requestView{m} }

// Actions returns the action log view of the store
func (m *Store) Actions() port.ActionRepository { return actionView{m} }

// WithTransaction runs fn directly. Every store operation is already atomic
// under the store mutex, so there is nothing to roll back.
func (m *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *Store) nextSeq() int64 {
	m.seq++
	return m.seq
}

// ──────────────────────────────────────────────────
// Workflow definitions
// ──────────────────────────────────────────────────

type workflowView struct{ m *Store }

func (v workflowView) Create(_ context.Context, def *entity.WorkflowDefinition) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	if _, exists := v.m.definitions[def.ID]; exists {
		return fmt.Errorf("workflow definition %s already exists", def.ID)
	}
	v.m.definitions[def.ID] = &storedDefinition{seq: v.m.nextSeq(), def: copyDefinition(def)}
	return nil
}

func (v workflowView) GetByID(_ context.Context, id string) (*entity.WorkflowDefinition, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()

	sd, ok := v.m.definitions[id]
	if !ok {
		return nil, nil
	}
	return copyDefinition(sd.def), nil
}

func (v workflowView) ListByOrganization(_ context.Context, organizationID string) ([]*entity.WorkflowDefinition, error) {
	return v.list(func(d *entity.WorkflowDefinition) bool {
		return d.OrganizationID == organizationID
	}), nil
}

func (v workflowView) ListActive(_ context.Context, organizationID, entityType string) ([]*entity.WorkflowDefinition, error) {
	return v.list(func(d *entity.WorkflowDefinition) bool {
		return d.OrganizationID == organizationID && d.EntityType == entityType && d.Active
	}), nil
}

func (v workflowView) SetActive(_ context.Context, id string, active bool, updatedAt time.Time) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	sd, ok := v.m.definitions[id]
	if !ok {
		return fmt.Errorf("workflow definition %s not found", id)
	}
	sd.def.Active = active
	sd.def.UpdatedAt = updatedAt
	return nil
}

func (v workflowView) list(match func(*entity.WorkflowDefinition) bool) []*entity.WorkflowDefinition {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()

	var stored []*storedDefinition
	for _, sd := range v.m.definitions {
		if match(sd.def) {
			stored = append(stored, sd)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	out := make([]*entity.WorkflowDefinition, 0, len(stored))
	for _, sd := range stored {
		out = append(out, copyDefinition(sd.def))
	}
	return out
}

// ──────────────────────────────────────────────────
// Approval requests
// ──────────────────────────────────────────────────

type requestView struct{ m *Store }

func (v requestView) Create(_ context.Context, req *entity.ApprovalRequest) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	if _, exists := v.m.requests[req.ID]; exists {
		return fmt.Errorf("approval request %s already exists", req.ID)
	}
	v.m.requests[req.ID] = &storedRequest{seq: v.m.nextSeq(), req: copyRequest(req)}
	return nil
}

func (v requestView) GetByID(_ context.Context, id string) (*entity.ApprovalRequest, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()

	sr, ok := v.m.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(sr.req), nil
}

func (v requestView) CompareAndSwapState(_ context.Context, id string, expected entity.RequestState,
	newStatus entity.Status, newStep int, updatedAt time.Time) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	sr, ok := v.m.requests[id]
	if !ok {
		return false, nil
	}
	if sr.req.State() != expected {
		return false, nil
	}

	sr.req.Status = newStatus
	sr.req.CurrentStep = newStep
	sr.req.Version++
	sr.req.UpdatedAt = updatedAt
	return true, nil
}

func (v requestView) ListPending(_ context.Context, organizationID string) ([]*entity.ApprovalRequest, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()

	var stored []*storedRequest
	for _, sr := range v.m.requests {
		if sr.req.OrganizationID == organizationID && sr.req.Status == entity.StatusPending {
			stored = append(stored, sr)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	out := make([]*entity.ApprovalRequest, 0, len(stored))
	for _, sr := range stored {
		out = append(out, copyRequest(sr.req))
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Action log
// ──────────────────────────────────────────────────

type actionView struct{ m *Store }

func (v actionView) Append(_ context.Context, action *entity.ApprovalAction) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	if _, ok := v.m.requests[action.RequestID]; !ok {
		return fmt.Errorf("approval request %s not found", action.RequestID)
	}
	v.m.actions[action.RequestID] = append(v.m.actions[action.RequestID],
		&storedAction{seq: v.m.nextSeq(), action: copyAction(action)})
	return nil
}

func (v actionView) ListByRequest(_ context.Context, requestID string) ([]*entity.ApprovalAction, error) {
	v.m.mu.RLock()
	stored := append([]*storedAction(nil), v.m.actions[requestID]...)
	v.m.mu.RUnlock()

	sort.SliceStable(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.action.CreatedAt.Equal(b.action.CreatedAt) {
			return a.action.CreatedAt.Before(b.action.CreatedAt)
		}
		return a.seq < b.seq
	})

	out := make([]*entity.ApprovalAction, 0, len(stored))
	for _, sa := range stored {
		out = append(out, copyAction(sa.action))
	}
	return out, nil
}

func copyDefinition(d *entity.WorkflowDefinition) *entity.WorkflowDefinition {
	cp := *d
	cp.Conditions = append([]entity.Condition{}, d.Conditions...)
	cp.Steps = append([]entity.Step{}, d.Steps...)
	return &cp
}

func copyRequest(r *entity.ApprovalRequest) *entity.ApprovalRequest {
	cp := *r
	cp.WorkflowID = copyString(r.WorkflowID)
	cp.RequestData = make(map[string]interface{}, len(r.RequestData))
	for k, v := range r.RequestData {
		cp.RequestData[k] = v
	}
	return &cp
}

func copyAction(a *entity.ApprovalAction) *entity.ApprovalAction {
	cp := *a
	cp.Comments = copyString(a.Comments)
	cp.DelegateTo = copyString(a.DelegateTo)
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

var _ port.TransactionManager = (*Store)(nil)
