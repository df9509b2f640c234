// Package errors provides custom error types for the LoanRisk API.
// All service-layer errors should use AppError so responses stay
// consistent and never leak internal details to clients.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrAccountInactive    = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Account is inactive", StatusCode: http.StatusForbidden}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrSessionExpired     = &AppError{Code: "SESSION_EXPIRED", Message: "Session is no longer valid", StatusCode: http.StatusUnauthorized}
)

// Registration & account errors.
var (
	ErrPasswordMismatch = &AppError{Code: "PASSWORD_MISMATCH", Message: "Passwords do not match", StatusCode: http.StatusBadRequest}
	ErrPasswordTooShort = &AppError{Code: "PASSWORD_TOO_SHORT", Message: "Password must be at least 6 characters", StatusCode: http.StatusBadRequest}
	ErrUsernameTaken    = &AppError{Code: "USERNAME_TAKEN", Message: "Username already exists", StatusCode: http.StatusConflict}
	ErrEmailTaken       = &AppError{Code: "EMAIL_TAKEN", Message: "Email already registered", StatusCode: http.StatusConflict}
	ErrUserNotFound     = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrProtectedAccount = &AppError{Code: "PROTECTED_ACCOUNT", Message: "The bootstrap admin account cannot be modified this way", StatusCode: http.StatusForbidden}
)

// Scoring collaborator errors.
var (
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Please wait before making another prediction", StatusCode: http.StatusTooManyRequests}
	ErrScoringTimeout     = &AppError{Code: "SCORING_TIMEOUT", Message: "Scoring request timed out. Please try again", StatusCode: http.StatusGatewayTimeout}
	ErrScoringUnavailable = &AppError{Code: "SCORING_UNAVAILABLE", Message: "Scoring service is unavailable", StatusCode: http.StatusBadGateway}
)

// History ledger errors.
var (
	ErrPredictionNotFound = &AppError{Code: "PREDICTION_NOT_FOUND", Message: "Prediction not found", StatusCode: http.StatusNotFound}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrStorage        = &AppError{Code: "STORAGE_ERROR", Message: "Persistence failure", StatusCode: http.StatusInternalServerError}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
