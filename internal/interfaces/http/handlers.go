package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/approval-workflow/internal/application/service"
	"github.com/garyjia/approval-workflow/internal/domain/entity"
	"github.com/garyjia/approval-workflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService service.WorkflowService
	approvalService service.ApprovalService
	logger          Logger
	health          HealthCheckFunc
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	workflowService service.WorkflowService,
	approvalService service.ApprovalService,
	logger Logger,
) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		approvalService: approvalService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool                  `json:"success"`
	Data    interface{}           `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
	Code    string                `json:"code,omitempty"`
	Details []workflow.FieldError `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// CreateWorkflowRequest is the body of POST /api/workflows
type CreateWorkflowRequest struct {
	Name       string             `json:"name"`
	EntityType string             `json:"entity_type"`
	Conditions []entity.Condition `json:"conditions"`
	Steps      []entity.Step      `json:"steps"`
	Active     *bool              `json:"active"`
}

// SetActiveRequest is the body of PATCH /api/workflows/:id/active
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// CreateRequestRequest is the body of POST /api/requests
type CreateRequestRequest struct {
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	RequestData map[string]interface{} `json:"request_data"`
}

// SubmitActionRequest is the body of POST /api/requests/:id/actions
type SubmitActionRequest struct {
	Action     entity.ActionKind `json:"action"`
	Comments   *string           `json:"comments"`
	DelegateTo *string           `json:"delegate_to"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.health != nil {
		healthy, components := h.health()
		resp.Components = components
		if !healthy {
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: resp})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: resp})
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var req CreateWorkflowRequest
	if !h.bind(c, &req) {
		return
	}

	def, err := h.workflowService.CreateDefinition(c.Request.Context(), service.CreateWorkflowInput{
		OrganizationID: organizationFrom(c),
		Name:           req.Name,
		EntityType:     req.EntityType,
		Conditions:     req.Conditions,
		Steps:          req.Steps,
		Active:         req.Active,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: def})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	defs, err := h.workflowService.ListDefinitions(c.Request.Context(), organizationFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: defs})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	def, ok := h.workflowInOrg(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: def})
}

// SetWorkflowActive handles PATCH /api/workflows/:id/active
func (h *Handlers) SetWorkflowActive(c *gin.Context) {
	var req SetActiveRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Active == nil {
		h.fail(c, workflow.NewValidationError("active", "is required"))
		return
	}

	if _, ok := h.workflowInOrg(c); !ok {
		return
	}

	def, err := h.workflowService.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: def})
}

// CreateRequest handles POST /api/requests. The caller is the requester.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if !h.bind(c, &req) {
		return
	}

	created, err := h.approvalService.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		OrganizationID: organizationFrom(c),
		RequesterID:    actorFrom(c).UserID,
		EntityType:     req.EntityType,
		EntityID:       req.EntityID,
		RequestData:    req.RequestData,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, ok := h.requestInOrg(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// SubmitAction handles POST /api/requests/:id/actions
func (h *Handlers) SubmitAction(c *gin.Context) {
	var body SubmitActionRequest
	if !h.bind(c, &body) {
		return
	}
	if _, ok := h.requestInOrg(c); !ok {
		return
	}

	updated, err := h.approvalService.SubmitApproval(c.Request.Context(), service.SubmitApprovalInput{
		RequestID:  c.Param("id"),
		Actor:      actorFrom(c),
		Action:     body.Action,
		Comments:   body.Comments,
		DelegateTo: body.DelegateTo,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// CancelRequest handles POST /api/requests/:id/cancel
func (h *Handlers) CancelRequest(c *gin.Context) {
	if _, ok := h.requestInOrg(c); !ok {
		return
	}

	updated, err := h.approvalService.CancelRequest(c.Request.Context(), c.Param("id"), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: updated})
}

// GetAuditTrail handles GET /api/requests/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	if _, ok := h.requestInOrg(c); !ok {
		return
	}

	actions, err := h.approvalService.GetAuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: actions})
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	reqs, err := h.approvalService.ListPendingForActor(c.Request.Context(), organizationFrom(c), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reqs})
}

// requestInOrg loads the path's request and hides it from other organizations
func (h *Handlers) requestInOrg(c *gin.Context) (*entity.ApprovalRequest, bool) {
	req, err := h.approvalService.GetRequest(c.Request.Context(), c.Param("id"))
	if err == nil && req.OrganizationID != organizationFrom(c) {
		err = workflow.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return req, true
}

// workflowInOrg loads the path's workflow and hides it from other organizations
func (h *Handlers) workflowInOrg(c *gin.Context) (*entity.WorkflowDefinition, bool) {
	def, err := h.workflowService.GetDefinition(c.Request.Context(), c.Param("id"))
	if err == nil && def.OrganizationID != organizationFrom(c) {
		err = workflow.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return def, true
}

func (h *Handlers) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
			Code:    "invalid_request",
		})
		return false
	}
	return true
}

// fail maps domain errors onto HTTP status codes
func (h *Handlers) fail(c *gin.Context, err error) {
	var verr *workflow.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Error: err.Error(), Code: "validation_failed", Details: verr.Problems})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, workflow.ErrUnauthorized):
		c.JSON(http.StatusForbidden, Response{Error: err.Error(), Code: "unauthorized"})
	case errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, Response{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, workflow.ErrConcurrentModification):
		c.JSON(http.StatusConflict, Response{Error: err.Error(), Code: "concurrent_modification"})
	default:
		h.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, Response{Error: "internal error", Code: "internal"})
	}
}
