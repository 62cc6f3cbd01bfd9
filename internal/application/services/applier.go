package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	errInsufficientValue = errors.New("voucher face value does not exceed basket total")
	errVoucherNotApplied = errors.New("no voucher instrument on basket")
)

// VoucherApplier turns a validated voucher into a basket payment instrument
// and removes it again on rollback.
type VoucherApplier struct {
	baskets   application.BasketRepository
	txManager application.TransactionManager
	validator *VoucherValidator
	logger    *slog.Logger
}

func NewVoucherApplier(
	baskets application.BasketRepository,
	txManager application.TransactionManager,
	validator *VoucherValidator,
	logger *slog.Logger,
) *VoucherApplier {
	return &VoucherApplier{
		baskets:   baskets,
		txManager: txManager,
		validator: validator,
		logger:    logger,
	}
}

// Apply covers the whole basket total with the voucher. The face value must be
// strictly greater than the total; the amount applied is the total itself.
// Expected refusals come back as an error result; the returned error is only
// set for unexpected failures.
func (a *VoucherApplier) Apply(ctx context.Context, customerNo, voucherCode, membershipNumber string) (application.RedemptionResult, error) {
	basket, err := a.baskets.FindActiveByCustomer(ctx, customerNo)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeBasketNotFound) {
			return redemptionFailed(application.MsgNoBasket, ""), nil
		}
		return application.RedemptionResult{}, application.NewUnexpectedError(application.MsgApplyUnexpected,
			fmt.Errorf("failed to load basket for customer %s: %w", customerNo, err))
	}
	if basket.InCheckout() {
		return redemptionFailed(application.MsgCheckoutInProgress, ""), nil
	}

	validation := a.validator.Validate(ctx, voucherCode, membershipNumber)
	if validation.Error {
		return redemptionFailed(validation.Message, validation.Message), nil
	}
	faceValue := validation.Voucher.FaceValue

	if !faceValue.GreaterThan(basket.TotalGrossPrice) {
		a.logger.Error("voucher face value is not greater than order total",
			"voucher_code", voucherCode,
			"face_value", faceValue.String(),
			"order_total", basket.TotalGrossPrice.String(),
		)
		return redemptionFailed(application.MsgInsufficientValue, ""), nil
	}

	var applied *domain.PaymentInstrument
	err = a.txManager.WithTransaction(ctx, func(ctx context.Context, baskets application.BasketRepository, _ application.OrderRepository) error {
		locked, err := baskets.FindByIDForUpdate(ctx, basket.ID)
		if err != nil {
			return err
		}
		if err := locked.EnsureEditable(); err != nil {
			return err
		}
		// The total may have moved while the provider was being called.
		if !faceValue.GreaterThan(locked.TotalGrossPrice) {
			return errInsufficientValue
		}

		if existing := locked.VoucherInstrument(); existing != nil {
			if err := baskets.RemovePaymentInstrument(ctx, existing.ID); err != nil {
				return err
			}
		}

		pi := domain.NewPaymentInstrument(locked.ID, domain.PaymentMethodLoyaltyVoucher, locked.Total())
		a.writeAttributes(pi, voucherCode, validation.Voucher.VoucherID, faceValue)

		if err := baskets.CreatePaymentInstrument(ctx, pi); err != nil {
			return err
		}
		applied = pi
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errInsufficientValue):
		return redemptionFailed(application.MsgInsufficientValue, ""), nil
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return redemptionFailed(application.MsgCheckoutInProgress, ""), nil
	case domain.IsErrorCode(err, domain.ErrCodeBasketNotFound):
		return redemptionFailed(application.MsgNoBasket, ""), nil
	default:
		return application.RedemptionResult{}, application.NewUnexpectedError(application.MsgApplyUnexpected,
			fmt.Errorf("failed to apply voucher %s to basket %s: %w", voucherCode, basket.ID, err))
	}

	a.logger.Info("voucher applied",
		"basket_id", basket.ID,
		"voucher_code", voucherCode,
		"redeemed_amount", applied.Amount.String(),
	)

	face := domain.Money{Amount: faceValue, Currency: applied.Amount.Currency}
	redeemed := applied.Amount
	return application.RedemptionResult{
		Message:        application.MsgVoucherApplied,
		VoucherCode:    voucherCode,
		FaceValue:      &face,
		RedeemedAmount: &redeemed,
	}, nil
}

// writeAttributes does not fail the apply; a rejected attribute is logged.
func (a *VoucherApplier) writeAttributes(pi *domain.PaymentInstrument, code, voucherID string, faceValue decimal.Decimal) {
	attrs := [][2]string{
		{domain.AttrVoucherCode, code},
		{domain.AttrVoucherID, voucherID},
		{domain.AttrVoucherFaceValue, faceValue.String()},
		{domain.AttrVoucherRedeemedAmount, pi.Amount.Amount.String()},
	}
	for _, attr := range attrs {
		if err := pi.SetCustom(attr[0], attr[1]); err != nil {
			a.logger.Warn("could not set custom attribute on payment instrument",
				"attribute", attr[0],
				"error", err,
			)
		}
	}
}

// Rollback removes the voucher instrument from the customer's basket. A basket
// with an order in flight keeps its voucher.
func (a *VoucherApplier) Rollback(ctx context.Context, customerNo string) (application.RedemptionResult, error) {
	basket, err := a.baskets.FindActiveByCustomer(ctx, customerNo)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeBasketNotFound) {
			return redemptionFailed(application.MsgNoBasket, ""), nil
		}
		return application.RedemptionResult{}, application.NewUnexpectedError(application.MsgRollbackUnexpected,
			fmt.Errorf("failed to load basket for customer %s: %w", customerNo, err))
	}

	if !basket.IsVoucherApplied() {
		return redemptionFailed(application.MsgVoucherNotApplied, ""), nil
	}

	err = a.txManager.WithTransaction(ctx, func(ctx context.Context, baskets application.BasketRepository, _ application.OrderRepository) error {
		locked, err := baskets.FindByIDForUpdate(ctx, basket.ID)
		if err != nil {
			return err
		}
		if err := locked.EnsureEditable(); err != nil {
			return err
		}
		pi := locked.VoucherInstrument()
		if pi == nil {
			return errVoucherNotApplied
		}
		return baskets.RemovePaymentInstrument(ctx, pi.ID)
	})

	switch {
	case err == nil:
	case errors.Is(err, errVoucherNotApplied):
		return redemptionFailed(application.MsgVoucherNotApplied, ""), nil
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return redemptionFailed(application.MsgCheckoutInProgress, ""), nil
	case domain.IsErrorCode(err, domain.ErrCodeBasketNotFound):
		return redemptionFailed(application.MsgNoBasket, ""), nil
	default:
		return application.RedemptionResult{}, application.NewUnexpectedError(application.MsgRollbackUnexpected,
			fmt.Errorf("failed to roll back voucher on basket %s: %w", basket.ID, err))
	}

	a.logger.Debug("voucher payment instrument removed from basket", "basket_id", basket.ID)

	return application.RedemptionResult{Message: application.MsgVoucherRemoved}, nil
}

func redemptionFailed(message, detail string) application.RedemptionResult {
	return application.RedemptionResult{
		Error:        true,
		Message:      message,
		ErrorMessage: detail,
	}
}
