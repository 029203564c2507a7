package entity

import "time"

// ApproverSpec names who must act at a step. Exactly one of UserID or
// RoleName is meaningful, selected by Kind.
type ApproverSpec struct {
	Kind     ApproverKind `json:"kind" yaml:"kind"`
	UserID   string       `json:"user_id,omitempty" yaml:"user_id"`
	RoleName string       `json:"role_name,omitempty" yaml:"role_name"`
}

// UserApprover returns an ApproverSpec for a directly named user
func UserApprover(userID string) ApproverSpec {
	return ApproverSpec{Kind: ApproverUser, UserID: userID}
}

// RoleApprover returns an ApproverSpec for any holder of a role
func RoleApprover(roleName string) ApproverSpec {
	return ApproverSpec{Kind: ApproverRole, RoleName: roleName}
}

// Step is one stage of a workflow. Order is 1-based and unique within the workflow.
type Step struct {
	Order    int          `json:"order" yaml:"order"`
	Approver ApproverSpec `json:"approver" yaml:"approver"`
}

// Condition decides whether a workflow applies to a request
type Condition struct {
	Field     string        `json:"field,omitempty" yaml:"field"`
	Kind      ConditionKind `json:"kind" yaml:"kind"`
	Threshold float64       `json:"threshold,omitempty" yaml:"threshold"`
	Value     string        `json:"value,omitempty" yaml:"value"`
}

// WorkflowDefinition is a named, ordered list of approval steps for an entity type
type WorkflowDefinition struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id"`
	Name           string      `json:"name"`
	EntityType     string      `json:"entity_type"`
	Conditions     []Condition `json:"conditions"`
	Steps          []Step      `json:"steps"`
	Active         bool        `json:"active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// StepAt returns the step with the given order
func (w *WorkflowDefinition) StepAt(order int) (Step, bool) {
	for _, s := range w.Steps {
		if s.Order == order {
			return s, true
		}
	}
	return Step{}, false
}

// LastStep returns the order of the final step, 0 for a definition without steps
func (w *WorkflowDefinition) LastStep() int {
	return len(w.Steps)
}
