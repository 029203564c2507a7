package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/approval-workflow/internal/domain/entity"
)

// NormalizeDefinition trims inputs, assigns step orders and validates the
// definition in place. All problems are reported together.
func NormalizeDefinition(def *entity.WorkflowDefinition) error {
	verr := &ValidationError{}

	def.OrganizationID = strings.TrimSpace(def.OrganizationID)
	def.Name = strings.TrimSpace(def.Name)
	def.EntityType = strings.TrimSpace(def.EntityType)

	if def.OrganizationID == "" {
		verr.Add("organization_id", "is required")
	}
	if def.Name == "" {
		verr.Add("name", "is required")
	}
	if def.EntityType == "" {
		verr.Add("entity_type", "is required")
	}

	for i := range def.Conditions {
		validateCondition(&def.Conditions[i], fmt.Sprintf("conditions[%d]", i), verr)
	}

	if def.Active && len(def.Steps) == 0 {
		verr.Add("steps", "an active workflow needs at least one step")
	}
	assignStepOrder(def.Steps, verr)
	for i := range def.Steps {
		validateApprover(&def.Steps[i].Approver, fmt.Sprintf("steps[%d].approver", i), verr)
	}

	return verr.OrNil()
}

func validateCondition(cond *entity.Condition, field string, verr *ValidationError) {
	cond.Field = strings.TrimSpace(cond.Field)

	switch {
	case !cond.Kind.IsValid():
		verr.Add(field+".kind", fmt.Sprintf("unknown condition kind %q", cond.Kind))
	case cond.Kind.IsAmount():
		if cond.Field == "" {
			cond.Field = entity.DefaultAmountField
		}
	case cond.Kind == entity.ConditionFieldEquals:
		if cond.Field == "" {
			verr.Add(field+".field", "is required for field_equals")
		}
	}
}

func validateApprover(spec *entity.ApproverSpec, field string, verr *ValidationError) {
	spec.UserID = strings.TrimSpace(spec.UserID)
	spec.RoleName = strings.TrimSpace(spec.RoleName)

	switch spec.Kind {
	case entity.ApproverUser:
		if spec.UserID == "" {
			verr.Add(field+".user_id", "is required for a user approver")
		}
		spec.RoleName = ""
	case entity.ApproverRole:
		if spec.RoleName == "" {
			verr.Add(field+".role_name", "is required for a role approver")
		}
		spec.UserID = ""
	default:
		verr.Add(field+".kind", fmt.Sprintf("unknown approver kind %q", spec.Kind))
	}
}

// assignStepOrder numbers steps 1..n in caller order when none carries an
// order; otherwise every step must already be numbered 1..n in sequence.
func assignStepOrder(steps []entity.Step, verr *ValidationError) {
	explicit := false
	for _, s := range steps {
		if s.Order != 0 {
			explicit = true
			break
		}
	}

	if !explicit {
		for i := range steps {
			steps[i].Order = i + 1
		}
		return
	}

	for i, s := range steps {
		if s.Order != i+1 {
			verr.Add(fmt.Sprintf("steps[%d].order", i),
				fmt.Sprintf("expected %d, got %d (orders must run 1..n without gaps)", i+1, s.Order))
		}
	}
}
