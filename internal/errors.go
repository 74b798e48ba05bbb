package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeStore        ErrorType = "STORE_UNAVAILABLE"
	ErrorTypeRateLimited  ErrorType = "RATE_LIMITED"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidICO       ErrorCode = "INVALID_ICO"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidContent   ErrorCode = "INVALID_CONTENT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"

	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	ErrCodeInvalidToken     ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"

	ErrCodeMandateRequired    ErrorCode = "MANDATE_REQUIRED"
	ErrCodeRoleNotAllowed     ErrorCode = "ROLE_NOT_ALLOWED"
	ErrCodeNotMandateOwner    ErrorCode = "NOT_MANDATE_OWNER"
	ErrCodeNotParticipant     ErrorCode = "NOT_PARTICIPANT"
	ErrCodeNotInvitee         ErrorCode = "NOT_INVITEE"
	ErrCodeNotContractOwner   ErrorCode = "NOT_CONTRACT_OWNER"
	ErrCodeResetDisabled      ErrorCode = "RESET_DISABLED"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	ErrCodeOfficeNotReady     ErrorCode = "OFFICE_NOT_READY"
	ErrCodeOfficeCompleted    ErrorCode = "OFFICE_COMPLETED"
	ErrCodeDuplicateMandate   ErrorCode = "DUPLICATE_MANDATE"
	ErrCodeDuplicateCompany   ErrorCode = "DUPLICATE_COMPANY"
	ErrCodeDuplicateInvite    ErrorCode = "DUPLICATE_PARTICIPANT"
	ErrCodeDuplicateDocument  ErrorCode = "DUPLICATE_DOCUMENT"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeCompanyNotFound    ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeMandateNotFound    ErrorCode = "MANDATE_NOT_FOUND"
	ErrCodeContractNotFound   ErrorCode = "CONTRACT_NOT_FOUND"
	ErrCodeOfficeNotFound     ErrorCode = "OFFICE_NOT_FOUND"
	ErrCodeParticipantMissing ErrorCode = "PARTICIPANT_NOT_FOUND"
	ErrCodeDocumentNotFound   ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeRegistryNotFound   ErrorCode = "REGISTRY_RECORD_NOT_FOUND"

	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeDanglingRef      ErrorCode = "DANGLING_REFERENCE"
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"
)

// Storage sentinels returned by repositories. Services translate them into
// AppErrors; anything else coming out of a repository is a store failure.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")

	// ErrMissingReference means a write pointed at a row that does not exist,
	// for example a user removed by a reset while their session lived on.
	ErrMissingReference = errors.New("referenced record does not exist")
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
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
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
		Code:       ErrCodeInternal,
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

// NewStoreError reports a storage failure that is not a missing record, so
// callers never confuse an unreachable database with a 404.
func NewStoreError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Code:       ErrCodeStoreUnavailable,
		Message:    "Storage is temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, slow down",
		StatusCode: http.StatusTooManyRequests,
	}
}

// Common session/authorization errors.
var (
	ErrNotAuthenticated = NewUnauthorizedError("Authentication required", ErrCodeNotAuthenticated)
	ErrInvalidToken     = NewUnauthorizedError("Invalid session token", ErrCodeInvalidToken)
	ErrTokenExpired     = NewUnauthorizedError("Session has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromStore maps a repository error: ErrNotFound becomes notFound,
// ErrMissingReference a 409, anything else a store failure. A nil error
// stays nil.
func FromStore(err error, notFound *AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) && notFound != nil {
		return notFound
	}
	if errors.Is(err, ErrMissingReference) {
		return &AppError{
			Type:       ErrorTypeConflict,
			Code:       ErrCodeDanglingRef,
			Message:    "A referenced record no longer exists",
			StatusCode: http.StatusConflict,
			Cause:      err,
		}
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	return NewStoreError(err)
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
