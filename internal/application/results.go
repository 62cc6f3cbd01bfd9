package application

import (
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/shopspring/decimal"
)

// User-facing messages returned in result values.
const (
	MsgMissingParams           = "Voucher code and membership number are required."
	MsgRetrievalFailed         = "Unable to retrieve vouchers at this time. Please try again later."
	MsgResponseParse           = "Unable to read the voucher information returned by the loyalty program."
	MsgVoucherNotFound         = "No vouchers were found for this member."
	MsgCodeNotFound            = "The voucher code was not found."
	MsgVoucherValid            = "Voucher is valid."
	MsgValidationUnexpected    = "An unexpected error occurred while validating the voucher."
	MsgNoBasket                = "No active basket was found."
	MsgInsufficientValue       = "The voucher value must be greater than the order total."
	MsgVoucherApplied          = "Voucher applied successfully."
	MsgApplyUnexpected         = "An unexpected error occurred while applying the voucher."
	MsgVoucherNotApplied       = "No voucher is applied to this basket."
	MsgCheckoutInProgress      = "An order for this basket is already being placed."
	MsgVoucherRemoved          = "Voucher removed successfully."
	MsgRollbackUnexpected      = "An unexpected error occurred while removing the voucher."
	MsgTechnicalError          = "A technical error occurred while processing the payment. Please try again."
	MsgUnsupportedMethod       = "The selected payment method is not supported."
	MsgNoPaymentInstrument     = "Please select a payment method."
	MsgOrderPlaced             = "Order placed successfully."
	MsgVoucherPaymentSubmitted = "Voucher payment submitted successfully."
	MsgVoucherRedeemed         = "Voucher redeemed successfully."
	MsgRedemptionFailed        = "Voucher redemption failed."
)

// VoucherData is the normalized voucher returned by a successful validation.
type VoucherData struct {
	VoucherID      string          `json:"voucherId"`
	VoucherCode    string          `json:"voucherCode"`
	FaceValue      decimal.Decimal `json:"faceValue"`
	RemainingValue decimal.Decimal `json:"remainingValue"`
	Status         string          `json:"status"`
	ExpirationDate *time.Time      `json:"expirationDate,omitempty"`
	IsExpired      bool            `json:"isExpired"`
	IsActive       bool            `json:"isActive"`
}

func NewVoucherData(v domain.Voucher, now time.Time) *VoucherData {
	return &VoucherData{
		VoucherID:      v.VoucherID,
		VoucherCode:    v.VoucherCode,
		FaceValue:      v.FaceValue,
		RemainingValue: v.RemainingValue,
		Status:         string(v.Status),
		ExpirationDate: v.ExpirationDate,
		IsExpired:      v.IsExpired(now),
		IsActive:       v.IsActive(now),
	}
}

type ValidationResult struct {
	Error   bool         `json:"error"`
	Message string       `json:"message"`
	Voucher *VoucherData `json:"voucherData,omitempty"`
}

type RedemptionResult struct {
	Error          bool          `json:"error"`
	Message        string        `json:"message"`
	VoucherCode    string        `json:"voucherCode,omitempty"`
	FaceValue      *domain.Money `json:"faceValue,omitempty"`
	RedeemedAmount *domain.Money `json:"redeemedAmount,omitempty"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
}

// AuthorizationResult is what a payment processor reports for one instrument.
type AuthorizationResult struct {
	Error        bool              `json:"error"`
	FieldErrors  map[string]string `json:"fieldErrors"`
	ServerErrors []string          `json:"serverErrors"`
}

func AuthorizationFailed(messages ...string) AuthorizationResult {
	return AuthorizationResult{
		Error:        true,
		FieldErrors:  map[string]string{},
		ServerErrors: messages,
	}
}

func AuthorizationSucceeded() AuthorizationResult {
	return AuthorizationResult{
		FieldErrors:  map[string]string{},
		ServerErrors: []string{},
	}
}

// OrderResult reports an order placement attempt. A failed authorization is
// an expected outcome and comes back with Error set, not as a Go error.
type OrderResult struct {
	Error            bool               `json:"error"`
	Message          string             `json:"message"`
	OrderNo          string             `json:"orderNo,omitempty"`
	Status           domain.OrderStatus `json:"status,omitempty"`
	Total            domain.Money       `json:"total"`
	IsVoucherApplied bool               `json:"isVoucherApplied"`
	ServerErrors     []string           `json:"serverErrors,omitempty"`
}
