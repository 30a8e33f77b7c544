package request

// OpenTerminalRequest starts a terminal session
type OpenTerminalRequest struct {
	OpeningFloat float64 `json:"opening_float" binding:"gte=0"`
}

// CloseTerminalRequest ends a terminal session with the counted drawer
type CloseTerminalRequest struct {
	Counted float64 `json:"counted" binding:"gte=0"`
}

// CashMovementRequest represents a manual drawer movement
type CashMovementRequest struct {
	Amount   float64          `json:"amount" binding:"required,gt=0"`
	Note     string           `json:"note"`
	Override *OverrideRequest `json:"override"`
}
