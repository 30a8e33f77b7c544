package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/request"
	"github.com/sinapseerp/engine/internal/presentation/http/dto/response"
)

// TerminalHandler handles terminal session and drawer requests
type TerminalHandler struct {
	terminalService *service.TerminalService
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(terminalService *service.TerminalService) *TerminalHandler {
	return &TerminalHandler{terminalService: terminalService}
}

// List returns terminals, optionally filtered by ?status=
func (h *TerminalHandler) List(c *gin.Context) {
	terminals, err := h.terminalService.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Terminals retrieved", terminals)
}

// Open starts a terminal session
func (h *TerminalHandler) Open(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	terminalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	var req request.OpenTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	terminal, err := h.terminalService.Open(c.Request.Context(), terminalID, *operatorID, req.OpeningFloat)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Terminal opened", terminal)
}

// Close ends a terminal session
func (h *TerminalHandler) Close(c *gin.Context) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	terminalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	var req request.CloseTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.terminalService.Close(c.Request.Context(), terminalID, *operatorID, req.Counted)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Terminal closed", result)
}

// CashIn records cash added to the drawer
func (h *TerminalHandler) CashIn(c *gin.Context) {
	h.movement(c, true)
}

// CashOut withdraws cash from the drawer
func (h *TerminalHandler) CashOut(c *gin.Context) {
	h.movement(c, false)
}

func (h *TerminalHandler) movement(c *gin.Context, in bool) {
	operatorID := GetUserID(c)
	if operatorID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}
	terminalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	var req request.CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	input := &service.CashMovementInput{
		TerminalID: terminalID,
		OperatorID: *operatorID,
		Amount:     req.Amount,
		Note:       req.Note,
		Override:   parseOverride(req.Override),
	}

	var movement interface{}
	if in {
		movement, err = h.terminalService.CashIn(c.Request.Context(), input)
	} else {
		movement, err = h.terminalService.CashOut(c.Request.Context(), input)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Movement recorded", movement)
}

// Movements returns the terminal's drawer ledger
func (h *TerminalHandler) Movements(c *gin.Context) {
	terminalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid terminal id")
		return
	}

	movements, err := h.terminalService.Movements(c.Request.Context(), terminalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.terminalService.Balance(c.Request.Context(), terminalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Movements retrieved", gin.H{
		"balance":   balance,
		"movements": movements,
	})
}
