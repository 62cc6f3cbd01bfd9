package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUpstream        = "UPSTREAM_FAILURE"
	ErrCodeBusinessRule    = "BUSINESS_RULE"
	ErrCodeTimeout         = "TIMEOUT"
)

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnexpectedError is an internal error with a flow-specific user message.
func NewUnexpectedError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInvalidInputError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewUnauthenticatedError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnauthenticated,
		Message:    "Customer must be logged in",
		HTTPStatus: http.StatusUnauthorized,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewUpstreamError hides provider details from the caller; Err keeps them for the logs.
func NewUpstreamError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUpstream,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewBusinessRuleError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeBusinessRule,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// ToServiceError classifies any error for the HTTP layer. Domain errors are
// client mistakes; anything unrecognized is internal.
func ToServiceError(err error) *ServiceError {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeBasketNotFound, domain.ErrCodeOrderNotFound:
			return NewNotFoundError(domainErr.Message)
		case domain.ErrCodeCustomerNotFound:
			return NewUnauthenticatedError()
		case domain.ErrCodeMissingRequiredField, domain.ErrCodeInvalidAmount:
			return NewInvalidInputError(domainErr.Message)
		default:
			return NewBusinessRuleError(domainErr.Message)
		}
	}

	return NewInternalError(err)
}
