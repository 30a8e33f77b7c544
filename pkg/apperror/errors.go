package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Errors  []FieldError   `json:"errors,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound         = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized     = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden        = &AppError{Code: http.StatusForbidden, Message: "Forbidden"}
	ErrBadRequest       = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer   = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrConflict         = &AppError{Code: http.StatusConflict, Message: "Resource already exists"}
	ErrNoOpenSale       = &AppError{Code: http.StatusConflict, Message: "No open sale for this terminal"}
	ErrCustomerRequired = &AppError{Code: http.StatusBadRequest, Message: "Store-credit payment requires a customer"}
	ErrAuthFailure      = &AppError{Code: http.StatusUnauthorized, Message: "Authorization credential rejected"}
	ErrTerminalClosed   = &AppError{Code: http.StatusConflict, Message: "Terminal is not open"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewInvalidQuantityError signals a fractional quantity for a whole-unit product
func NewInvalidQuantityError(unit string, quantity float64) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: fmt.Sprintf("Quantity %.3f is not valid for unit %q", quantity, unit),
		Details: map[string]any{"unit": unit, "quantity": quantity},
	}
}

// NewInsufficientStockError signals a sale that would drive stock negative
func NewInsufficientStockError(product string, available, requested float64) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: fmt.Sprintf("Insufficient stock for %q", product),
		Details: map[string]any{"available": available, "requested": requested},
	}
}

// NewInsufficientPaymentError signals tendered payments below the sale total
func NewInsufficientPaymentError(required, tendered float64) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: "Tendered payments do not cover the sale total",
		Details: map[string]any{"required": required, "tendered": tendered},
	}
}

// NewAccountNotActiveError signals a credit purchase against a non-active account
func NewAccountNotActiveError(status string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: fmt.Sprintf("Credit account is %s", status),
		Details: map[string]any{"account_status": status},
	}
}

// NewCreditLimitError carries the available limit so the UI can prompt an override
func NewCreditLimitError(available, required float64) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Credit limit exceeded",
		Details: map[string]any{"available": available, "required": required},
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
