package workflow

import "github.com/garyjia/approval-workflow/internal/domain/entity"

// CanAct decides whether the actor may act at the step. Users named as
// delegates at this step are authorized in addition to the step's approver.
func CanAct(step entity.Step, actor entity.Actor, delegates ...string) bool {
	if actor.UserID == "" {
		return false
	}

	for _, d := range delegates {
		if d == actor.UserID {
			return true
		}
	}

	switch step.Approver.Kind {
	case entity.ApproverUser:
		return step.Approver.UserID != "" && actor.UserID == step.Approver.UserID
	case entity.ApproverRole:
		return step.Approver.RoleName != "" && actor.HasRole(step.Approver.RoleName)
	default:
		return false
	}
}

// DelegatesAt collects the delegate targets recorded at a step
func DelegatesAt(actions []*entity.ApprovalAction, step int) []string {
	var delegates []string
	for _, a := range actions {
		if a.Action != entity.ActionDelegated || a.StepNumber != step || a.DelegateTo == nil {
			continue
		}
		delegates = append(delegates, *a.DelegateTo)
	}
	return delegates
}
