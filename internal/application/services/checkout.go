package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type registeredProcessor struct {
	id        string
	processor PaymentProcessor
}

// CheckoutService exposes the basket view and turns an open basket into an order.
type CheckoutService struct {
	baskets    application.BasketRepository
	txManager  application.TransactionManager
	processors map[string]registeredProcessor
	logger     *slog.Logger
}

func NewCheckoutService(
	baskets application.BasketRepository,
	txManager application.TransactionManager,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		baskets:    baskets,
		txManager:  txManager,
		processors: make(map[string]registeredProcessor),
		logger:     logger,
	}
}

// RegisterProcessor routes instruments of the given payment method to p.
func (s *CheckoutService) RegisterProcessor(method, processorID string, p PaymentProcessor) {
	s.processors[method] = registeredProcessor{id: processorID, processor: p}
}

type PaymentInstrumentView struct {
	ID       uuid.UUID         `json:"id"`
	Method   string            `json:"paymentMethod"`
	Amount   domain.Money      `json:"amount"`
	Custom   map[string]string `json:"custom,omitempty"`
	Captured bool              `json:"captured"`
}

// BasketView is what the storefront renders. IsVoucherApplied switches the
// checkout to voucher-only mode.
type BasketView struct {
	BasketID           uuid.UUID               `json:"basketId"`
	CustomerNo         string                  `json:"customerNo"`
	Total              domain.Money            `json:"total"`
	Status             domain.BasketStatus     `json:"status"`
	IsVoucherApplied   bool                    `json:"isVoucherApplied"`
	PaymentInstruments []PaymentInstrumentView `json:"paymentInstruments"`
}

func NewBasketView(b *domain.Basket) *BasketView {
	view := &BasketView{
		BasketID:           b.ID,
		CustomerNo:         b.CustomerNo,
		Total:              b.Total(),
		Status:             b.Status,
		IsVoucherApplied:   b.IsVoucherApplied(),
		PaymentInstruments: make([]PaymentInstrumentView, 0, len(b.PaymentInstruments)),
	}
	for _, pi := range b.PaymentInstruments {
		view.PaymentInstruments = append(view.PaymentInstruments, PaymentInstrumentView{
			ID:       pi.ID,
			Method:   pi.Method,
			Amount:   pi.Amount,
			Custom:   pi.Custom,
			Captured: pi.Transaction.Type == domain.TransactionCapture,
		})
	}
	return view
}

func (s *CheckoutService) GetBasket(ctx context.Context, customerNo string) (*BasketView, error) {
	basket, err := s.baskets.FindActiveByCustomer(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	return NewBasketView(basket), nil
}

// SubmitVoucherPayment confirms a voucher-only payment. The instrument amount
// is brought back in line with the current basket total; a voucher that no
// longer covers the total is rejected.
func (s *CheckoutService) SubmitVoucherPayment(ctx context.Context, customerNo string) (*BasketView, error) {
	basket, err := s.baskets.FindActiveByCustomer(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	if !basket.IsVoucherApplied() {
		return nil, application.NewBusinessRuleError(application.MsgVoucherNotApplied)
	}

	var view *BasketView
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, baskets application.BasketRepository, _ application.OrderRepository) error {
		locked, err := baskets.FindByIDForUpdate(ctx, basket.ID)
		if err != nil {
			return err
		}
		if err := locked.EnsureEditable(); err != nil {
			return err
		}
		if locked.VoucherInstrument() == nil {
			return application.NewBusinessRuleError(application.MsgVoucherNotApplied)
		}
		if err := s.reconcileVoucher(ctx, baskets, locked); err != nil {
			return err
		}

		view = NewBasketView(locked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// reconcileVoucher re-checks an applied voucher against the basket total and
// resets the instrument amount to that total. Must run under the basket lock.
func (s *CheckoutService) reconcileVoucher(ctx context.Context, baskets application.BasketRepository, locked *domain.Basket) error {
	pi := locked.VoucherInstrument()
	if pi == nil {
		return nil
	}

	faceValue, err := decimal.NewFromString(pi.CustomValue(domain.AttrVoucherFaceValue))
	if err != nil || !faceValue.GreaterThan(locked.TotalGrossPrice) {
		s.logger.Warn("applied voucher no longer covers the basket total",
			"basket_id", locked.ID,
			"face_value", pi.CustomValue(domain.AttrVoucherFaceValue),
			"order_total", locked.TotalGrossPrice.String(),
		)
		return application.NewBusinessRuleError(application.MsgInsufficientValue)
	}

	if pi.Amount.Equal(locked.Total()) {
		return nil
	}
	pi.Amount = locked.Total()
	if err := pi.SetCustom(domain.AttrVoucherRedeemedAmount, pi.Amount.Amount.String()); err != nil {
		s.logger.Warn("could not set custom attribute on payment instrument", "error", err)
	}
	return baskets.UpdatePaymentInstrument(ctx, pi)
}

// PlaceOrder creates an order from the customer's open basket and authorizes
// every payment instrument through its processor. Creating the order moves the
// basket into checkout, which blocks voucher changes and a second placement
// until the outcome is recorded. A failed authorization marks the order FAILED
// and reopens the basket with its instruments.
func (s *CheckoutService) PlaceOrder(ctx context.Context, customerNo, membershipNumber string) (*application.OrderResult, error) {
	basket, err := s.baskets.FindActiveByCustomer(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	if basket.InCheckout() {
		return nil, domain.ErrCheckoutInProgress
	}
	if len(basket.PaymentInstruments) == 0 {
		return nil, application.NewBusinessRuleError(application.MsgNoPaymentInstrument)
	}

	for _, pi := range basket.PaymentInstruments {
		reg, ok := s.processors[pi.Method]
		if !ok {
			s.logger.Error("no payment processor registered", "payment_method", pi.Method)
			return nil, application.NewBusinessRuleError(application.MsgUnsupportedMethod)
		}
		if handled := reg.processor.Handle(ctx, basket); handled.Error {
			return &application.OrderResult{
				Error:        true,
				Message:      firstOr(handled.ServerErrors, application.MsgTechnicalError),
				ServerErrors: handled.ServerErrors,
			}, nil
		}
	}

	var order *domain.Order
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, baskets application.BasketRepository, orders application.OrderRepository) error {
		locked, err := baskets.FindByIDForUpdate(ctx, basket.ID)
		if err != nil {
			return err
		}
		if err := locked.EnsureEditable(); err != nil {
			return err
		}
		if len(locked.PaymentInstruments) == 0 {
			return application.NewBusinessRuleError(application.MsgNoPaymentInstrument)
		}
		if err := s.reconcileVoucher(ctx, baskets, locked); err != nil {
			return err
		}

		orderNo, err := orders.NextOrderNo(ctx)
		if err != nil {
			return err
		}
		order, err = domain.NewOrder(orderNo, locked)
		if err != nil {
			return err
		}
		if err := orders.Create(ctx, order); err != nil {
			return err
		}
		return baskets.UpdateStatus(ctx, locked.ID, locked.Status)
	})
	if err != nil {
		return nil, err
	}

	// Once a processor may have settled with the provider, the outcome must be
	// recorded even if the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)

	for _, pi := range order.PaymentInstruments {
		reg := s.processors[pi.Method]
		auth := reg.processor.Authorize(ctx, order.OrderNo, membershipNumber, pi, reg.id)
		if auth.Error {
			s.logger.Warn("payment authorization failed",
				"order_no", order.OrderNo,
				"payment_method", pi.Method,
				"errors", auth.ServerErrors,
			)
			return s.failOrder(settleCtx, order, auth.ServerErrors)
		}
	}

	err = s.txManager.WithTransaction(settleCtx, func(ctx context.Context, baskets application.BasketRepository, orders application.OrderRepository) error {
		if err := order.Place(); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, order); err != nil {
			return err
		}
		return baskets.UpdateStatus(ctx, order.BasketID, domain.BasketOrdered)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record placed order %s: %w", order.OrderNo, err)
	}

	s.logger.Info("order placed",
		"order_no", order.OrderNo,
		"total", order.Total.String(),
		"voucher_applied", order.IsVoucherApplied(),
	)

	return &application.OrderResult{
		Message:          application.MsgOrderPlaced,
		OrderNo:          order.OrderNo,
		Status:           order.Status,
		Total:            order.Total,
		IsVoucherApplied: order.IsVoucherApplied(),
	}, nil
}

func (s *CheckoutService) failOrder(ctx context.Context, order *domain.Order, serverErrors []string) (*application.OrderResult, error) {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, baskets application.BasketRepository, orders application.OrderRepository) error {
		if err := order.Fail(); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, order); err != nil {
			return err
		}
		if err := orders.DetachPaymentInstruments(ctx, order.OrderNo); err != nil {
			return err
		}
		return baskets.UpdateStatus(ctx, order.BasketID, domain.BasketOpen)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark order %s as failed: %w", order.OrderNo, err)
	}

	return &application.OrderResult{
		Error:        true,
		Message:      firstOr(serverErrors, application.MsgTechnicalError),
		OrderNo:      order.OrderNo,
		Status:       order.Status,
		Total:        order.Total,
		ServerErrors: serverErrors,
	}, nil
}

func firstOr(messages []string, fallback string) string {
	if len(messages) > 0 && messages[0] != "" {
		return messages[0]
	}
	return fallback
}
