package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/response"
)

// ApprovalHandler handles remote approval requests
type ApprovalHandler struct {
	approvalService *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Create raises a pending approval request from a terminal
func (h *ApprovalHandler) Create(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	approval, err := h.approvalService.Create(c.Request.Context(), &service.CreateApprovalInput{
		TerminalID: terminalID,
		OperatorID: *operatorID,
		Kind:       req.Kind,
		Details:    req.Details,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Approval requested", approval)
}

// Resolve approves or rejects a pending request
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	resolverID := GetUserID(c)
	if resolverID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid approval id")
		return
	}

	var req request.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	approval, err := h.approvalService.Resolve(c.Request.Context(), requestID, *resolverID, *req.Approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Approval resolved", approval)
}

// ListPending returns unresolved requests
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	approvals, err := h.approvalService.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Pending approvals retrieved", approvals)
}
