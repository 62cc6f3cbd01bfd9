package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeMissingRequiredField     = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeInvalidTransition        = "INVALID_TRANSITION"
	ErrCodeBasketNotFound           = "BASKET_NOT_FOUND"
	ErrCodeCheckoutInProgress       = "CHECKOUT_IN_PROGRESS"
	ErrCodeOrderNotFound            = "ORDER_NOT_FOUND"
	ErrCodeCustomerNotFound         = "CUSTOMER_NOT_FOUND"
	ErrCodeNotEnrolled              = "NOT_ENROLLED"
	ErrCodeUndefinedAttribute       = "UNDEFINED_ATTRIBUTE"
	ErrCodeVoucherExpired           = "VOUCHER_EXPIRED"
	ErrCodeVoucherRedeemed          = "VOUCHER_ALREADY_REDEEMED"
	ErrCodeVoucherCancelled         = "VOUCHER_CANCELLED"
	ErrCodeVoucherDefinitionDisable = "VOUCHER_DEFINITION_INACTIVE"
	ErrCodeVoucherInactive          = "VOUCHER_INACTIVE"
)

var (
	ErrBasketNotFound     = &DomainError{Code: ErrCodeBasketNotFound, Message: "basket not found"}
	ErrBasketClosed       = &DomainError{Code: ErrCodeBasketNotFound, Message: "basket is no longer open"}
	ErrOrderNotFound      = &DomainError{Code: ErrCodeOrderNotFound, Message: "order not found"}
	ErrCustomerNotFound   = &DomainError{Code: ErrCodeCustomerNotFound, Message: "customer not found"}
	ErrNotEnrolled        = &DomainError{Code: ErrCodeNotEnrolled, Message: "customer not enrolled in loyalty program"}
	ErrCheckoutInProgress = &DomainError{Code: ErrCodeCheckoutInProgress, Message: "An order for this basket is already being placed."}
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidAmountError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount: %s", reason),
	}
}

func NewInvalidTransitionError(from, to OrderStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition order from %s to %s", from, to),
	}
}

func NewUndefinedAttributeError(method, attribute string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUndefinedAttribute,
		Message: fmt.Sprintf("attribute %q is not defined for payment method %s", attribute, method),
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
