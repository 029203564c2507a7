package workflow

import (
	"testing"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name    string
		status  entity.Status
		pos     Position
		trigger Trigger
		want    Outcome
		wantErr error
	}{
		{"approve advances", entity.StatusPending, Position{1, 3}, TriggerApprove, Outcome{entity.StatusPending, 2}, nil},
		{"approve at last step", entity.StatusPending, Position{3, 3}, TriggerApprove, Outcome{entity.StatusApproved, 3}, nil},
		{"reject at first of many", entity.StatusPending, Position{1, 3}, TriggerReject, Outcome{entity.StatusRejected, 1}, nil},
		{"reject at middle", entity.StatusPending, Position{2, 3}, TriggerReject, Outcome{entity.StatusRejected, 2}, nil},
		{"delegate holds step", entity.StatusPending, Position{2, 3}, TriggerDelegate, Outcome{entity.StatusPending, 2}, nil},
		{"cancel", entity.StatusPending, Position{2, 3}, TriggerCancel, Outcome{entity.StatusCancelled, 2}, nil},
		{"approve after approved", entity.StatusApproved, Position{3, 3}, TriggerApprove, Outcome{}, ErrInvalidTransition},
		{"reject after rejected", entity.StatusRejected, Position{1, 3}, TriggerReject, Outcome{}, ErrInvalidTransition},
		{"cancel after cancelled", entity.StatusCancelled, Position{1, 3}, TriggerCancel, Outcome{}, ErrInvalidTransition},
		{"unknown status", entity.Status("archived"), Position{1, 3}, TriggerApprove, Outcome{}, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.status, tt.pos, tt.trigger)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_KStepsNeedKApprovals(t *testing.T) {
	for k := 1; k <= 5; k++ {
		status, step := entity.StatusPending, 1
		approvals := 0

		for status == entity.StatusPending {
			out, err := Transition(status, Position{Step: step, LastStep: k}, TriggerApprove)
			require.NoError(t, err)
			approvals++

			// Step never moves backwards
			assert.GreaterOrEqual(t, out.Step, step)
			status, step = out.Status, out.Step
		}

		assert.Equal(t, entity.StatusApproved, status)
		assert.Equal(t, k, approvals, "workflow with %d steps", k)
		assert.Equal(t, k, step, "step freezes at the final step")
	}
}
