package entity

import "time"

// ApprovalAction is an immutable record of a decision taken at a step.
// Actions are only ever appended.
type ApprovalAction struct {
	ID         string     `json:"id"`
	RequestID  string     `json:"request_id"`
	StepNumber int        `json:"step_number"`
	ApproverID string     `json:"approver_id"`
	Action     ActionKind `json:"action"`
	Comments   *string    `json:"comments,omitempty"`
	DelegateTo *string    `json:"delegate_to,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
