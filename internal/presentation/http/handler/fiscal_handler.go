package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/response"
	"github.com/sinapseerp/engine/pkg/pagination"
)

// FiscalHandler handles fiscal document, goal and configuration requests
type FiscalHandler struct {
	fiscalService   *service.FiscalService
	goalService     *service.GoalService
	settingsService *service.SettingsService
}

// NewFiscalHandler creates a new fiscal handler
func NewFiscalHandler(
	fiscalService *service.FiscalService,
	goalService *service.GoalService,
	settingsService *service.SettingsService,
) *FiscalHandler {
	return &FiscalHandler{
		fiscalService:   fiscalService,
		goalService:     goalService,
		settingsService: settingsService,
	}
}

// ListDocuments returns fiscal documents, optionally filtered by ?status=
func (h *FiscalHandler) ListDocuments(c *gin.Context) {
	params := pagination.DefaultPagination()
	if err := c.ShouldBindQuery(params); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	params.Validate()

	var status *enum.FiscalStatus
	switch c.Query("status") {
	case "":
	case "pending":
		s := enum.FiscalStatusPending
		status = &s
	case "authorized":
		s := enum.FiscalStatusAuthorized
		status = &s
	case "rejected":
		s := enum.FiscalStatusRejected
		status = &s
	case "error":
		s := enum.FiscalStatusError
		status = &s
	default:
		response.BadRequest(c, "Invalid status filter")
		return
	}

	result, err := h.fiscalService.List(c.Request.Context(), status, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Documents retrieved", result)
}

// Transmit retries authorization for a document
func (h *FiscalHandler) Transmit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid document id")
		return
	}

	doc, err := h.fiscalService.Transmit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Transmission attempted", doc)
}

// Summary returns the month-to-date issuance picture
func (h *FiscalHandler) Summary(c *gin.Context) {
	summary, err := h.fiscalService.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Summary retrieved", summary)
}

// RunGoal triggers a governor pass
func (h *FiscalHandler) RunGoal(c *gin.Context) {
	var req request.GoalRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.goalService.Run(c.Request.Context(), req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Goal run completed", result)
}

// EmitBatch forces a governor pass regardless of autopilot
func (h *FiscalHandler) EmitBatch(c *gin.Context) {
	result, err := h.goalService.Run(c.Request.Context(), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Batch emission completed", result)
}

// GetConfig returns the store fiscal configuration
func (h *FiscalHandler) GetConfig(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Configuration retrieved", settings)
}

// UpdateConfig applies a partial update to the store configuration
func (h *FiscalHandler) UpdateConfig(c *gin.Context) {
	var input service.UpdateSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Configuration updated", settings)
}

// RegisterInboundInvoice records a received supplier invoice
func (h *FiscalHandler) RegisterInboundInvoice(c *gin.Context) {
	var req request.InboundInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := h.fiscalService.RegisterInboundInvoice(c.Request.Context(), &service.RegisterInboundInvoiceInput{
		SupplierName: req.SupplierName,
		Number:       req.Number,
		AccessKey:    req.AccessKey,
		IssuedAt:     req.IssuedAt,
		Total:        req.Total,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice registered", invoice)
}

// ListInboundInvoices returns received supplier invoices
func (h *FiscalHandler) ListInboundInvoices(c *gin.Context) {
	params := pagination.DefaultPagination()
	if err := c.ShouldBindQuery(params); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	params.Validate()

	result, err := h.fiscalService.ListInboundInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Invoices retrieved", result)
}
