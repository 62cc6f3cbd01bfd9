package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

// VoucherValidator checks a voucher code against the member's live voucher
// list. It is the only place voucher eligibility is decided.
type VoucherValidator struct {
	gateway application.LoyaltyGateway
	logger  *slog.Logger
	now     func() time.Time
}

func NewVoucherValidator(gateway application.LoyaltyGateway, logger *slog.Logger) *VoucherValidator {
	return &VoucherValidator{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for expiry checks.
func (v *VoucherValidator) WithClock(now func() time.Time) *VoucherValidator {
	v.now = now
	return v
}

// Validate never returns a Go error; every failure is reported through the
// result's Error flag and a user-facing message.
func (v *VoucherValidator) Validate(ctx context.Context, voucherCode, membershipNumber string) application.ValidationResult {
	if strings.TrimSpace(voucherCode) == "" || strings.TrimSpace(membershipNumber) == "" {
		return invalid(application.MsgMissingParams)
	}

	result := v.gateway.GetVouchers(ctx, membershipNumber)
	if !result.OK {
		v.logger.Error("voucher listing failed",
			"membership_number", membershipNumber,
			"status", result.StatusCode,
			"error", result.ErrorMessage,
		)
		return invalid(application.MsgRetrievalFailed)
	}

	vouchers, err := application.DecodeVouchers(result.Body)
	if err != nil {
		v.logger.Error("failed to parse voucher listing",
			"membership_number", membershipNumber,
			"error", err,
		)
		return invalid(application.MsgResponseParse)
	}

	if len(vouchers) == 0 {
		return invalid(application.MsgVoucherNotFound)
	}

	voucher, ok := domain.FindVoucher(vouchers, voucherCode)
	if !ok {
		return invalid(application.MsgCodeNotFound)
	}

	now := v.now()
	if ineligible := voucher.CheckEligibility(now); ineligible != nil {
		v.logger.Info("voucher not eligible",
			"voucher_code", voucherCode,
			"status", voucher.Status,
			"reason", ineligible.Code,
		)
		return invalid(ineligible.Message)
	}

	v.logger.Debug("voucher validated",
		"voucher_code", voucherCode,
		"face_value", voucher.FaceValue.String(),
		"remaining_value", voucher.RemainingValue.String(),
	)

	return application.ValidationResult{
		Message: application.MsgVoucherValid,
		Voucher: application.NewVoucherData(voucher, now),
	}
}

func invalid(message string) application.ValidationResult {
	return application.ValidationResult{Error: true, Message: message}
}
