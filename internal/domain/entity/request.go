package entity

import "time"

// ApprovalRequest is one instance of a business record moving through, or
// bypassing, a workflow
type ApprovalRequest struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	WorkflowID     *string                `json:"workflow_id,omitempty"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	RequesterID    string                 `json:"requester_id"`
	RequestData    map[string]interface{} `json:"request_data"`
	Status         Status                 `json:"status"`
	CurrentStep    int                    `json:"current_step"`
	// AutoApproved is set when no workflow matched at creation
	AutoApproved bool `json:"auto_approved"`
	// Version is bumped by every state write, including delegations that
	// leave status and step unchanged
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestState is the tag a conditional state write compares against
type RequestState struct {
	Status  Status
	Step    int
	Version int
}

// State returns the request's current compare-and-swap tag
func (r *ApprovalRequest) State() RequestState {
	return RequestState{Status: r.Status, Step: r.CurrentStep, Version: r.Version}
}

// HasWorkflow reports whether a workflow definition is bound to the request
func (r *ApprovalRequest) HasWorkflow() bool {
	return r.WorkflowID != nil && *r.WorkflowID != ""
}

// Actor is the identity acting on a request, as supplied by the identity provider
type Actor struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole returns true if the actor holds the role
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
