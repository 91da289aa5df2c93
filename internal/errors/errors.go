// Package errors provides custom error types for the Tirelire core.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to callers.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrBusy           = &AppError{Code: "BUSY", Message: "The resource is busy, retry later", StatusCode: http.StatusConflict}
)

// Transaction and category errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryReadOnly    = &AppError{Code: "CATEGORY_READ_ONLY", Message: "System categories cannot be modified", StatusCode: http.StatusForbidden}
	ErrCategoryInUse       = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
)

// Group and split errors.
var (
	ErrGroupNotFound       = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrMemberNotFound      = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Group member not found", StatusCode: http.StatusNotFound}
	ErrNotGroupMember      = &AppError{Code: "NOT_GROUP_MEMBER", Message: "User is not an active member of this group", StatusCode: http.StatusForbidden}
	ErrSplitNotFound       = &AppError{Code: "SPLIT_NOT_FOUND", Message: "Expense split not found", StatusCode: http.StatusNotFound}
	ErrSplitAmountMismatch = &AppError{Code: "SPLIT_AMOUNT_MISMATCH", Message: "Split amounts do not sum to the transaction amount", StatusCode: http.StatusBadRequest}
)

// Wallet and payment errors.
var (
	ErrWalletNotFound        = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrWalletInactive        = &AppError{Code: "WALLET_INACTIVE", Message: "Wallet is not active", StatusCode: http.StatusConflict}
	ErrPaymentNotFound       = &AppError{Code: "PAYMENT_NOT_FOUND", Message: "Payment not found", StatusCode: http.StatusNotFound}
	ErrProviderNotFound      = &AppError{Code: "PROVIDER_NOT_FOUND", Message: "Payment provider not found", StatusCode: http.StatusNotFound}
	ErrPaymentMethodNotFound = &AppError{Code: "PAYMENT_METHOD_NOT_FOUND", Message: "Payment method not found", StatusCode: http.StatusNotFound}
	ErrInsufficientFunds     = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient wallet balance", StatusCode: http.StatusBadRequest}
	ErrAmountOutOfRange      = &AppError{Code: "AMOUNT_OUT_OF_RANGE", Message: "Amount is outside the provider limits", StatusCode: http.StatusBadRequest}
)

// Reminder errors.
var (
	ErrReminderNotFound = &AppError{Code: "REMINDER_NOT_FOUND", Message: "Reminder not found", StatusCode: http.StatusNotFound}
)
