package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

// PaymentProcessor is the hook pair every payment method plugs into checkout.
type PaymentProcessor interface {
	Handle(ctx context.Context, basket *domain.Basket) application.AuthorizationResult
	Authorize(ctx context.Context, orderNo, membershipNumber string, pi *domain.PaymentInstrument, processorID string) application.AuthorizationResult
}

// VoucherConsumer is the payment processor for LOYALTY_MANAGEMENT_VOUCHER.
// Authorization consumes the voucher at the provider; it is never retried.
type VoucherConsumer struct {
	gateway   application.LoyaltyGateway
	txManager application.TransactionManager
	logger    *slog.Logger
}

var _ PaymentProcessor = (*VoucherConsumer)(nil)

func NewVoucherConsumer(gateway application.LoyaltyGateway, txManager application.TransactionManager, logger *slog.Logger) *VoucherConsumer {
	return &VoucherConsumer{
		gateway:   gateway,
		txManager: txManager,
		logger:    logger,
	}
}

// Handle has nothing to verify for vouchers; the instrument was built by the applier.
func (c *VoucherConsumer) Handle(_ context.Context, _ *domain.Basket) application.AuthorizationResult {
	return application.AuthorizationSucceeded()
}

func (c *VoucherConsumer) Authorize(
	ctx context.Context,
	orderNo, membershipNumber string,
	pi *domain.PaymentInstrument,
	processorID string,
) application.AuthorizationResult {
	voucherID := pi.CustomValue(domain.AttrVoucherID)

	result := c.gateway.ConsumeVoucher(ctx, voucherID, membershipNumber)
	if !result.OK {
		c.logger.Error("consume voucher call failed",
			"order_no", orderNo,
			"voucher_id", voucherID,
			"status", result.StatusCode,
			"error", result.ErrorMessage,
		)
		return application.AuthorizationFailed(application.MsgTechnicalError)
	}

	var resp application.ProcessRuleResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		c.logger.Error("failed to parse consume voucher response", "order_no", orderNo, "error", err)
		return application.AuthorizationFailed(application.MsgTechnicalError)
	}

	if !resp.Status {
		c.logger.Info("voucher consumption rejected",
			"order_no", orderNo,
			"voucher_id", voucherID,
			"message", resp.Message,
		)
		return application.AuthorizationFailed(resp.Message)
	}

	captured := *pi
	captured.Capture(orderNo, processorID)

	// The voucher is spent at the provider; record the capture even if the
	// request context is cancelled from here on.
	err := c.txManager.WithTransaction(context.WithoutCancel(ctx), func(ctx context.Context, baskets application.BasketRepository, _ application.OrderRepository) error {
		return baskets.UpdatePaymentInstrument(ctx, &captured)
	})
	if err != nil {
		c.logger.Error("voucher consumed but payment transaction was not recorded",
			"order_no", orderNo,
			"voucher_id", voucherID,
			"error", err,
		)
		return application.AuthorizationFailed(application.MsgTechnicalError)
	}

	*pi = captured
	return application.AuthorizationSucceeded()
}
