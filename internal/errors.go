package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized  ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden     ErrorType = "FORBIDDEN"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidCategory  ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeNotesRequired    ErrorCode = "NOTES_REQUIRED"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidAllowance ErrorCode = "INVALID_ALLOWANCE"
	ErrCodeInvalidManager   ErrorCode = "INVALID_MANAGER"
	ErrCodeManagerCycle     ErrorCode = "MANAGER_CYCLE"
	ErrCodeEmailTaken       ErrorCode = "EMAIL_TAKEN"

	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeInvalidDateRange    ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeEmptyRange          ErrorCode = "EMPTY_RANGE"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeOverlappingRequest  ErrorCode = "OVERLAPPING_REQUEST"
	ErrCodeInvalidState        ErrorCode = "INVALID_STATE"

	ErrCodeLeaveNotFound        ErrorCode = "LEAVE_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
)

// Reasons carried in the details of an EMPTY_RANGE error.
const (
	EmptyRangeWeekendOnly = "weekend_only"
	EmptyRangeHolidayOnly = "holiday_only"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinel errors compare equal to copies carrying details.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause and WithDetails return a copy; the package-level sentinels are shared.
func (e *AppError) WithCause(cause error) *AppError {
	c := *e
	c.Cause = cause
	return &c
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewUnprocessableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnprocessable,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

var (
	ErrForbidden        = NewForbiddenError("You are not allowed to perform this action", ErrCodeForbidden)
	ErrInvalidDateRange = NewValidationError("End date must not be before start date", ErrCodeInvalidDateRange)
	ErrStartInPast      = NewValidationError("Start date must not be in the past", ErrCodeInvalidDateRange)
	ErrInvalidCategory  = NewValidationError("Unknown leave category", ErrCodeInvalidCategory)
	ErrNotesRequired    = NewValidationError("Notes are required for this action", ErrCodeNotesRequired)
	ErrInvalidState     = NewConflictError("Leave cannot transition from its current status", ErrCodeInvalidState)

	ErrLeaveNotFound        = NewNotFoundError("Leave not found", ErrCodeLeaveNotFound)
	ErrUserNotFound         = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrNotificationNotFound = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)

	ErrInvalidRole      = NewValidationError("Unknown role", ErrCodeInvalidRole)
	ErrInvalidAllowance = NewValidationError("Annual allowance must be between 1 and 50 days", ErrCodeInvalidAllowance)
	ErrInvalidManager   = NewValidationError("Invalid manager assignment", ErrCodeInvalidManager)
	ErrManagerCycle     = NewValidationError("Manager assignment would create a reporting cycle", ErrCodeManagerCycle)
	ErrEmailTaken       = NewConflictError("Email is already registered", ErrCodeEmailTaken)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

// NewEmptyRangeError reports a range without a single countable day. reason is
// EmptyRangeWeekendOnly or EmptyRangeHolidayOnly.
func NewEmptyRangeError(reason string) *AppError {
	msg := "The selected range contains only weekend days"
	if reason == EmptyRangeHolidayOnly {
		msg = "The selected range contains only public holidays"
	}
	e := NewValidationError(msg, ErrCodeEmptyRange)
	e.Details = map[string]interface{}{"reason": reason}
	return e
}

func NewInsufficientBalanceError(remaining, requested int) *AppError {
	e := NewUnprocessableError(
		fmt.Sprintf("Insufficient vacation balance: %d day(s) remaining, %d requested", remaining, requested),
		ErrCodeInsufficientBalance,
	)
	e.Details = map[string]interface{}{
		"remaining": remaining,
		"requested": requested,
	}
	return e
}

// NewOverlappingRequestError identifies the leave that blocks the new request.
func NewOverlappingRequestError(leaveID int64, start, end time.Time, status string) *AppError {
	e := NewConflictError(
		fmt.Sprintf("Request overlaps leave #%d (%s to %s, %s)", leaveID, start.Format(time.DateOnly), end.Format(time.DateOnly), status),
		ErrCodeOverlappingRequest,
	)
	e.Details = map[string]interface{}{
		"leave_id":   leaveID,
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
		"status":     status,
	}
	return e
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the AppError code in err's chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
