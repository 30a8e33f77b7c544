package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/domain/enum"
	"github.com/sinapseerp/engine/internal/domain/repository"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/response"
	"github.com/sinapseerp/engine/pkg/pagination"
)

// SaleHandler handles cart, settlement and sale-history requests
type SaleHandler struct {
	cartService       *service.CartService
	settlementService *service.SettlementService
	saleService       *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(
	cartService *service.CartService,
	settlementService *service.SettlementService,
	saleService *service.SaleService,
) *SaleHandler {
	return &SaleHandler{
		cartService:       cartService,
		settlementService: settlementService,
		saleService:       saleService,
	}
}

// AddItem handles a barcode scan or a free-text line
func (h *SaleHandler) AddItem(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	sale, err := h.cartService.AddItem(c.Request.Context(), &service.AddItemInput{
		TerminalID:  terminalID,
		OperatorID:  *operatorID,
		Barcode:     req.Barcode,
		Quantity:    req.Quantity,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item added", sale)
}

// RemoveItem handles an audited line removal
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		response.BadRequest(c, "Invalid item id")
		return
	}

	sale, err := h.cartService.RemoveItem(c.Request.Context(), &service.RemoveItemInput{
		TerminalID: terminalID,
		OperatorID: *operatorID,
		ItemID:     itemID,
		Override:   parseOverride(req.Override),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Item removed", sale)
}

// SetCustomer attaches a customer or document to the open sale
func (h *SaleHandler) SetCustomer(c *gin.Context) {
	var req request.SetCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	sale, err := h.cartService.SetCustomer(c.Request.Context(), terminalID, parseUUIDPtr(req.CustomerID), req.CustomerDocument)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customer set", sale)
}

// GetOpen returns the terminal's open sale
func (h *SaleHandler) GetOpen(c *gin.Context) {
	terminalID, err := uuid.Parse(c.Param("terminal_id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	sale, err := h.cartService.GetOpen(c.Request.Context(), terminalID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Open sale", sale)
}

// Discard cancels the terminal's open sale
func (h *SaleHandler) Discard(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	terminalID, err := uuid.Parse(c.Param("terminal_id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	if err := h.cartService.Discard(c.Request.Context(), terminalID, *operatorID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Finalize settles the open sale
func (h *SaleHandler) Finalize(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	terminalID, err := uuid.Parse(req.TerminalID)
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	input := &service.FinalizeInput{
		TerminalID:       terminalID,
		OperatorID:       *operatorID,
		CustomerID:       parseUUIDPtr(req.CustomerID),
		CustomerDocument: req.CustomerDocument,
		Override:         parseOverride(req.Override),
	}
	for _, p := range req.Payments {
		input.Payments = append(input.Payments, service.TenderInput{
			Type:   enum.PaymentType(p.Type),
			Amount: p.Amount,
		})
	}

	result, err := h.settlementService.Finalize(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale concluded", result)
}

// List returns the sale history
func (h *SaleHandler) List(c *gin.Context) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.SaleFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		TerminalID: parseUUIDPtr(&filter.TerminalID),
		OperatorID: parseUUIDPtr(&filter.OperatorID),
		CustomerID: parseUUIDPtr(&filter.CustomerID),
	}
	if filter.Status != "" {
		var status enum.SaleStatus
		switch filter.Status {
		case "open":
			status = enum.SaleStatusOpen
		case "concluded":
			status = enum.SaleStatusConcluded
		case "cancelled":
			status = enum.SaleStatusCancelled
		default:
			response.BadRequest(c, "Invalid status filter")
			return
		}
		params.Status = &status
	}
	if filter.StartDate != "" {
		if t, err := time.Parse(time.RFC3339, filter.StartDate); err == nil {
			params.StartDate = &t
		}
	}
	if filter.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, filter.EndDate); err == nil {
			params.EndDate = &t
		}
	}

	result, err := h.saleService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, 200, "Sales retrieved", result)
}

// Get returns one sale with full details
func (h *SaleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid sale id")
		return
	}

	sale, err := h.saleService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sale retrieved", sale)
}
