package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/response"
)

// CreditHandler handles store-credit account requests
type CreditHandler struct {
	creditService *service.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// Summary returns the receivables picture
func (h *CreditHandler) Summary(c *gin.Context) {
	summary, err := h.creditService.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Summary retrieved", summary)
}

// Customers returns all credit accounts
func (h *CreditHandler) Customers(c *gin.Context) {
	customers, err := h.creditService.Customers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Customers retrieved", customers)
}

// Statement returns a customer's credit statement
func (h *CreditHandler) Statement(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer id")
		return
	}

	statement, err := h.creditService.Statement(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Statement retrieved", statement)
}

// RegisterPayment records a payment against a customer's balance
func (h *CreditHandler) RegisterPayment(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid customer id")
		return
	}

	var req request.CreditPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.creditService.RegisterPayment(c.Request.Context(), &service.RegisterPaymentInput{
		CustomerID: customerID,
		OperatorID: *operatorID,
		TerminalID: parseUUIDPtr(req.TerminalID),
		Amount:     req.Amount,
		Note:       req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment registered", customer)
}

// AccrueInterest runs the daily overdue-interest routine
func (h *CreditHandler) AccrueInterest(c *gin.Context) {
	processed, err := h.creditService.AccrueOverdueInterest(c.Request.Context(), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Interest accrual completed", gin.H{"processed": processed})
}
