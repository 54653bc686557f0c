// Package apierror provides the uniform response envelope for the API.
// All responses — success and failure — go through this package to ensure
// consistency and to prevent leaking internal details (stack traces, DB
// errors, etc.).
package apierror

import (
	"fmt"
	"net/http"
	"time"
)

// Error codes form a closed taxonomy. Handlers map them to HTTP statuses via
// StatusFor; clients switch on the code, never on the message.
const (
	CodeNoToken                 = "NO_TOKEN"
	CodeInvalidToken            = "INVALID_TOKEN"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeUserInactive            = "USER_INACTIVE"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInsufficientRoleLevel   = "INSUFFICIENT_ROLE_LEVEL"
	CodeResourceAccessDenied    = "RESOURCE_ACCESS_DENIED"
	CodeAdditionalAuthRequired  = "ADDITIONAL_AUTH_REQUIRED"
	CodeInvalidAdditionalAuth   = "INVALID_ADDITIONAL_AUTH"
	CodeValidationError         = "VALIDATION_ERROR"
	CodeOrderNotFound           = "ORDER_NOT_FOUND"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeOrderImmutableState     = "ORDER_IMMUTABLE_STATE"
	CodeInternal                = "INTERNAL_ERROR"
)

// statusMap pins each taxonomy code to its HTTP status equivalent:
// 401 identity/token failures, 403 permission/ownership/step-up failures,
// 400 validation and state-machine violations, 404 missing aggregates.
var statusMap = map[string]int{
	CodeNoToken:                 http.StatusUnauthorized,
	CodeInvalidToken:            http.StatusUnauthorized,
	CodeUserNotFound:            http.StatusUnauthorized,
	CodeUserInactive:            http.StatusUnauthorized,
	CodeInsufficientPermissions: http.StatusForbidden,
	CodeInsufficientRoleLevel:   http.StatusForbidden,
	CodeResourceAccessDenied:    http.StatusForbidden,
	CodeAdditionalAuthRequired:  http.StatusForbidden,
	CodeInvalidAdditionalAuth:   http.StatusForbidden,
	CodeValidationError:         http.StatusBadRequest,
	CodeOrderNotFound:           http.StatusNotFound,
	CodeInvalidStatusTransition: http.StatusBadRequest,
	CodeOrderImmutableState:     http.StatusBadRequest,
	CodeInternal:                http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for a taxonomy code (500 for unknown codes).
func StatusFor(code string) int {
	if s, ok := statusMap[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// APIError is a taxonomy error. It satisfies the error interface so services
// can return it through plain error values; handlers unwrap with errors.As.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	// Status, when set, overrides the taxonomy default for codes whose HTTP
	// meaning is context-dependent (e.g. USER_NOT_FOUND is 401 inside the
	// auth pipeline but 404 on a user-management read).
	Status int `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithStatus overrides the HTTP status and returns the same error for chaining.
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	return e
}

// HTTPStatus resolves the status to write: the explicit override when set,
// otherwise the taxonomy default.
func (e *APIError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return StatusFor(e.Code)
}

// WithDetails attaches structured details (e.g. field errors, the attempted
// from→to transition pair) and returns the same error for chaining.
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

// errorBody is the wire form of APIError, stamped with timestamp + request id.
type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination is attached to list responses.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count from total rows and page size.
func NewPagination(page, limit int, total int64) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Envelope is the canonical response shape for every endpoint.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      *errorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// OK wraps a successful payload.
func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// OKPaged wraps a successful list payload with pagination metadata.
func OKPaged(data interface{}, p *Pagination) Envelope {
	return Envelope{Success: true, Data: data, Pagination: p}
}

// Fail wraps an APIError into the envelope, stamping timestamp and request id.
func Fail(err *APIError, requestID string) Envelope {
	return Envelope{
		Success: false,
		Error: &errorBody{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: requestID,
		},
	}
}
