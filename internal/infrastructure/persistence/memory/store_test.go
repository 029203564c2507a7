package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

func TestWorkflows_ListPreservesCreationOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"wf-z", "wf-a", "wf-m"} {
		require.NoError(t, s.Workflows().Create(ctx, &entity.WorkflowDefinition{
			ID: id, OrganizationID: "org", EntityType: "expense", Active: id != "wf-a",
		}))
	}

	all, err := s.Workflows().ListByOrganization(ctx, "org")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "wf-z", all[0].ID)
	assert.Equal(t, "wf-a", all[1].ID)
	assert.Equal(t, "wf-m", all[2].ID)

	active, err := s.Workflows().ListActive(ctx, "org", "expense")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "wf-z", active[0].ID)
	assert.Equal(t, "wf-m", active[1].ID)
}

func TestWorkflows_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	def := &entity.WorkflowDefinition{
		ID:    "wf-1",
		Steps: []entity.Step{{Order: 1, Approver: entity.UserApprover("u1")}},
	}
	require.NoError(t, s.Workflows().Create(ctx, def))

	def.Steps[0].Approver.UserID = "mutated"
	got, err := s.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Steps[0].Approver.UserID)

	assert.Error(t, s.Workflows().Create(ctx, def), "duplicate id")

	missing, err := s.Workflows().GetByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRequests_CompareAndSwap(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Requests().Create(ctx, &entity.ApprovalRequest{
		ID: "r1", OrganizationID: "org", Status: entity.StatusPending, CurrentStep: 1,
	}))

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Requests().CompareAndSwapState(ctx, "r1", pendingAt(1), entity.StatusPending, 2, time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	got, err := s.Requests().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStep)

	ok, err := s.Requests().CompareAndSwapState(ctx, "missing", pendingAt(1), entity.StatusApproved, 1, time.Now())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func pendingAt(step int) entity.RequestState {
	return entity.RequestState{Status: entity.StatusPending, Step: step}
}

func TestRequests_SameTagSwapBumpsVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Requests().Create(ctx, &entity.ApprovalRequest{
		ID: "r1", OrganizationID: "org", Status: entity.StatusPending, CurrentStep: 1,
	}))

	ok, err := s.Requests().CompareAndSwapState(ctx, "r1", pendingAt(1), entity.StatusPending, 1, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Requests().CompareAndSwapState(ctx, "r1", pendingAt(1), entity.StatusRejected, 1, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "stale version must lose even with matching status and step")

	got, err := s.Requests().GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)
}

func TestRequests_ListPending(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, r := range []*entity.ApprovalRequest{
		{ID: "r1", OrganizationID: "org", Status: entity.StatusPending, CurrentStep: 1},
		{ID: "r2", OrganizationID: "org", Status: entity.StatusApproved},
		{ID: "r3", OrganizationID: "org", Status: entity.StatusPending, CurrentStep: 1},
		{ID: "r4", OrganizationID: "other", Status: entity.StatusPending, CurrentStep: 1},
	} {
		require.NoError(t, s.Requests().Create(ctx, r))
	}

	pending, err := s.Requests().ListPending(ctx, "org")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "r1", pending[0].ID)
	assert.Equal(t, "r3", pending[1].ID)
}

func TestActions_OrderedByTimeThenInsertion(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Requests().Create(ctx, &entity.ApprovalRequest{ID: "r1", Status: entity.StatusPending}))

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Actions().Append(ctx, &entity.ApprovalAction{ID: "late", RequestID: "r1", CreatedAt: ts.Add(time.Second)}))
	require.NoError(t, s.Actions().Append(ctx, &entity.ApprovalAction{ID: "tie-1", RequestID: "r1", CreatedAt: ts}))
	require.NoError(t, s.Actions().Append(ctx, &entity.ApprovalAction{ID: "tie-2", RequestID: "r1", CreatedAt: ts}))

	got, err := s.Actions().ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"tie-1", "tie-2", "late"}, []string{got[0].ID, got[1].ID, got[2].ID})

	assert.Error(t, s.Actions().Append(ctx, &entity.ApprovalAction{ID: "x", RequestID: "ghost"}))
}

func TestActions_StoredCopyIsIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Requests().Create(ctx, &entity.ApprovalRequest{
		ID: "r1", OrganizationID: "org", Status: entity.StatusPending, CurrentStep: 1,
	}))

	comment := "looks fine"
	target := "bob"
	require.NoError(t, s.Actions().Append(ctx, &entity.ApprovalAction{
		ID: "a1", RequestID: "r1", StepNumber: 1, ApproverID: "manager",
		Action: entity.ActionDelegated, Comments: &comment, DelegateTo: &target,
		CreatedAt: time.Now(),
	}))

	// Writes through the caller's pointers
	comment = "edited by caller"
	target = "mallory"

	read, err := s.Actions().ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, read, 1)
	*read[0].Comments = "edited via read"
	*read[0].DelegateTo = "eve"

	stored, err := s.Actions().ListByRequest(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Comments)
	require.NotNil(t, stored[0].DelegateTo)
	assert.Equal(t, "looks fine", *stored[0].Comments)
	assert.Equal(t, "bob", *stored[0].DelegateTo)
}
