package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/approval-workflow/internal/application/port"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) HasError(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.errors {
		if e == msg {
			return true
		}
	}
	return false
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, evt *event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) Types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]event.Type, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// mockWorkflowRepo is a func-field fake of port.WorkflowRepository
type mockWorkflowRepo struct {
	createFunc             func(ctx context.Context, def *entity.WorkflowDefinition) error
	getByIDFunc            func(ctx context.Context, id string) (*entity.WorkflowDefinition, error)
	listByOrganizationFunc func(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error)
	listActiveFunc         func(ctx context.Context, organizationID, entityType string) ([]*entity.WorkflowDefinition, error)
	setActiveFunc          func(ctx context.Context, id string, active bool, updatedAt time.Time) error
}

func (m *mockWorkflowRepo) Create(ctx context.Context, def *entity.WorkflowDefinition) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, def)
	}
	return nil
}

func (m *mockWorkflowRepo) GetByID(ctx context.Context, id string) (*entity.WorkflowDefinition, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) ListByOrganization(ctx context.Context, organizationID string) ([]*entity.WorkflowDefinition, error) {
	if m.listByOrganizationFunc != nil {
		return m.listByOrganizationFunc(ctx, organizationID)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) ListActive(ctx context.Context, organizationID, entityType string) ([]*entity.WorkflowDefinition, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, organizationID, entityType)
	}
	return nil, nil
}

func (m *mockWorkflowRepo) SetActive(ctx context.Context, id string, active bool, updatedAt time.Time) error {
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, id, active, updatedAt)
	}
	return nil
}

// mockTxManager runs fn directly and counts calls
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// barrierRequests holds every GetByID caller until n callers have read the
// request, forcing concurrent submitters to act on the same snapshot
type barrierRequests struct {
	port.RequestRepository
	wg *sync.WaitGroup
}

func newBarrierRequests(inner port.RequestRepository, n int) *barrierRequests {
	wg := &sync.WaitGroup{}
	wg.Add(n)
	return &barrierRequests{RequestRepository: inner, wg: wg}
}

func (b *barrierRequests) GetByID(ctx context.Context, id string) (*entity.ApprovalRequest, error) {
	req, err := b.RequestRepository.GetByID(ctx, id)
	b.wg.Done()
	b.wg.Wait()
	return req, err
}

var (
	_ port.WorkflowRepository = (*mockWorkflowRepo)(nil)
	_ port.TransactionManager = (*mockTxManager)(nil)
)
