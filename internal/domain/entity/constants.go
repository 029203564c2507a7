package entity

// Status is the lifecycle status of an ApprovalRequest
type Status string

// Status constants for ApprovalRequest
const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// IsTerminal returns true if no further transitions are allowed from the status
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// IsValid returns true if the status is one of the defined constants
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ActionKind is the decision recorded by an ApprovalAction
type ActionKind string

// Action constants for ApprovalAction
const (
	ActionApproved  ActionKind = "approved"
	ActionRejected  ActionKind = "rejected"
	ActionDelegated ActionKind = "delegated"
	ActionCancelled ActionKind = "cancelled" // requester withdrew the request
)

// IsValid returns true if the action kind is one of the defined constants
func (a ActionKind) IsValid() bool {
	switch a {
	case ActionApproved, ActionRejected, ActionDelegated, ActionCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action kind
func (a ActionKind) String() string {
	return string(a)
}

// ApproverKind tags the variant held by an ApproverSpec
type ApproverKind string

// Approver kinds
const (
	ApproverUser ApproverKind = "user"
	ApproverRole ApproverKind = "role"
)

// ConditionKind is the closed set of comparators a workflow condition may use
type ConditionKind string

// Condition kinds
const (
	ConditionAmountGreaterThan ConditionKind = "amount_greater_than"
	ConditionAmountLessThan    ConditionKind = "amount_less_than"
	ConditionFieldEquals       ConditionKind = "field_equals"
)

// IsValid returns true if the condition kind is one of the defined constants
func (k ConditionKind) IsValid() bool {
	switch k {
	case ConditionAmountGreaterThan, ConditionAmountLessThan, ConditionFieldEquals:
		return true
	default:
		return false
	}
}

// IsAmount reports whether the comparator reads a numeric field
func (k ConditionKind) IsAmount() bool {
	return k == ConditionAmountGreaterThan || k == ConditionAmountLessThan
}

// DefaultAmountField is read by amount comparators that name no field
const DefaultAmountField = "amount"
