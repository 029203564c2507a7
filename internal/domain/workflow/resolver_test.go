package workflow

import (
	"testing"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestCanAct(t *testing.T) {
	userStep := entity.Step{Order: 1, Approver: entity.UserApprover("u-manager")}
	roleStep := entity.Step{Order: 2, Approver: entity.RoleApprover("finance")}

	tests := []struct {
		name      string
		step      entity.Step
		actor     entity.Actor
		delegates []string
		want      bool
	}{
		{"named user", userStep, entity.Actor{UserID: "u-manager"}, nil, true},
		{"other user", userStep, entity.Actor{UserID: "u-other", Roles: []string{"finance"}}, nil, false},
		{"role holder", roleStep, entity.Actor{UserID: "u-1", Roles: []string{"staff", "finance"}}, nil, true},
		{"role missing", roleStep, entity.Actor{UserID: "u-1", Roles: []string{"staff"}}, nil, false},
		{"delegate at step", userStep, entity.Actor{UserID: "u-deputy"}, []string{"u-deputy"}, true},
		{"original approver keeps authority", userStep, entity.Actor{UserID: "u-manager"}, []string{"u-deputy"}, true},
		{"anonymous actor", roleStep, entity.Actor{Roles: []string{"finance"}}, nil, false},
		{"unknown approver kind", entity.Step{Approver: entity.ApproverSpec{Kind: "group", UserID: "u-1"}}, entity.Actor{UserID: "u-1"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.step, tt.actor, tt.delegates...))
		})
	}
}

func TestDelegatesAt(t *testing.T) {
	actions := []*entity.ApprovalAction{
		{StepNumber: 1, Action: entity.ActionDelegated, DelegateTo: strPtr("u-a")},
		{StepNumber: 1, Action: entity.ActionApproved},
		{StepNumber: 2, Action: entity.ActionDelegated, DelegateTo: strPtr("u-b")},
		{StepNumber: 2, Action: entity.ActionDelegated, DelegateTo: strPtr("u-c")},
		{StepNumber: 2, Action: entity.ActionDelegated},
	}

	assert.Equal(t, []string{"u-a"}, DelegatesAt(actions, 1))
	assert.Equal(t, []string{"u-b", "u-c"}, DelegatesAt(actions, 2))
	assert.Empty(t, DelegatesAt(actions, 3))
}
