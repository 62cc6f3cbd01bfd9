package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VoucherStatus string

const (
	VoucherIssued    VoucherStatus = "Issued"
	VoucherRedeemed  VoucherStatus = "Redeemed"
	VoucherExpired   VoucherStatus = "Expired"
	VoucherCancelled VoucherStatus = "Cancelled"
)

// Voucher is the provider's view of a member voucher. It is fetched fresh on
// every validation and never stored locally.
type Voucher struct {
	VoucherID                    string
	VoucherCode                  string
	VoucherNumber                string
	VoucherDefinition            string
	Type                         string
	FaceValue                    decimal.Decimal
	RemainingValue               decimal.Decimal
	RedeemedValue                decimal.Decimal
	Status                       VoucherStatus
	EffectiveDate                *time.Time
	ExpirationDate               *time.Time
	IsVoucherDefinitionActive    bool
	IsVoucherPartiallyRedeemable bool
	HasTimeBasedVoucherPeriod    bool
}

// IsExpired reports whether now is strictly after the expiration date.
// A voucher without an expiration date never expires.
func (v Voucher) IsExpired(now time.Time) bool {
	return v.ExpirationDate != nil && now.After(*v.ExpirationDate)
}

func (v Voucher) IsActive(now time.Time) bool {
	return !v.IsExpired(now) && v.Status == VoucherIssued && v.IsVoucherDefinitionActive
}

// CheckEligibility returns nil for an active voucher. Otherwise the returned
// error names the first failing reason in this order: expired, redeemed,
// cancelled, definition inactive, inactive.
func (v Voucher) CheckEligibility(now time.Time) *DomainError {
	if v.IsActive(now) {
		return nil
	}

	switch {
	case v.IsExpired(now):
		return &DomainError{Code: ErrCodeVoucherExpired, Message: "This voucher has expired."}
	case v.Status == VoucherRedeemed:
		return &DomainError{Code: ErrCodeVoucherRedeemed, Message: "This voucher has already been redeemed."}
	case v.Status == VoucherCancelled:
		return &DomainError{Code: ErrCodeVoucherCancelled, Message: "This voucher has been cancelled."}
	case !v.IsVoucherDefinitionActive:
		return &DomainError{Code: ErrCodeVoucherDefinitionDisable, Message: "This voucher type is no longer active."}
	default:
		return &DomainError{Code: ErrCodeVoucherInactive, Message: "This voucher is not active."}
	}
}

// StatusBadge is the CSS badge class the storefront uses for a voucher status.
func (v Voucher) StatusBadge() string {
	switch v.Status {
	case VoucherIssued:
		return "badge-success"
	case VoucherRedeemed:
		return "badge-secondary"
	case VoucherExpired:
		return "badge-danger"
	case VoucherCancelled:
		return "badge-warning"
	default:
		return "badge-info"
	}
}

// FindVoucher returns the voucher whose code matches exactly.
func FindVoucher(vouchers []Voucher, code string) (Voucher, bool) {
	for _, v := range vouchers {
		if v.VoucherCode == code {
			return v, true
		}
	}
	return Voucher{}, false
}
