package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated      Type = "request.created"
	TypeRequestAutoApproved Type = "request.auto_approved"
	TypeRequestAdvanced     Type = "request.advanced"
	TypeRequestApproved     Type = "request.approved"
	TypeRequestRejected     Type = "request.rejected"
	TypeRequestCancelled    Type = "request.cancelled"
	TypeRequestDelegated    Type = "request.delegated"
	TypeRequestConflict     Type = "request.conflict"
	TypeWorkflowCreated     Type = "workflow.created"
)

// AllTypes lists every defined event type
func AllTypes() []Type {
	return []Type{
		TypeRequestCreated,
		TypeRequestAutoApproved,
		TypeRequestAdvanced,
		TypeRequestApproved,
		TypeRequestRejected,
		TypeRequestCancelled,
		TypeRequestDelegated,
		TypeRequestConflict,
		TypeWorkflowCreated,
	}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	for _, known := range AllTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the event announces a finished request
func (t Type) IsTerminal() bool {
	switch t {
	case TypeRequestAutoApproved, TypeRequestApproved, TypeRequestRejected, TypeRequestCancelled:
		return true
	default:
		return false
	}
}
