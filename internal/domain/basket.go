package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethodLoyaltyVoucher identifies voucher payment instruments.
const PaymentMethodLoyaltyVoucher = "LOYALTY_MANAGEMENT_VOUCHER"

// Custom attributes carried by a voucher payment instrument.
const (
	AttrVoucherCode           = "voucherCode"
	AttrVoucherID             = "voucherId"
	AttrVoucherFaceValue      = "voucherFaceValue"
	AttrVoucherRedeemedAmount = "voucherRedeemedAmount"
)

// definedAttributes lists the custom attributes each payment method accepts.
var definedAttributes = map[string]map[string]struct{}{
	PaymentMethodLoyaltyVoucher: {
		AttrVoucherCode:           {},
		AttrVoucherID:             {},
		AttrVoucherFaceValue:      {},
		AttrVoucherRedeemedAmount: {},
	},
}

type BasketStatus string

// A basket moves OPEN -> CHECKOUT when an order is created from it, then
// CHECKOUT -> ORDERED on success or back to OPEN when authorization fails.
const (
	BasketOpen     BasketStatus = "OPEN"
	BasketCheckout BasketStatus = "CHECKOUT"
	BasketOrdered  BasketStatus = "ORDERED"
)

type Basket struct {
	ID                 uuid.UUID
	CustomerNo         string
	Currency           string
	TotalGrossPrice    decimal.Decimal
	Status             BasketStatus
	PaymentInstruments []*PaymentInstrument
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewBasket(customerNo, currency string, total decimal.Decimal) (*Basket, error) {
	if customerNo == "" {
		return nil, NewMissingRequiredFieldError("customer number")
	}
	if currency == "" {
		return nil, NewMissingRequiredFieldError("currency")
	}
	if total.IsNegative() {
		return nil, NewInvalidAmountError("basket total cannot be negative")
	}

	now := time.Now()
	return &Basket{
		ID:              uuid.New(),
		CustomerNo:      customerNo,
		Currency:        currency,
		TotalGrossPrice: total,
		Status:          BasketOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (b *Basket) Total() Money {
	return Money{Amount: b.TotalGrossPrice, Currency: b.Currency}
}

func (b *Basket) IsOpen() bool {
	return b.Status == BasketOpen
}

func (b *Basket) InCheckout() bool {
	return b.Status == BasketCheckout
}

// EnsureEditable reports whether payment instruments may still change.
func (b *Basket) EnsureEditable() error {
	switch b.Status {
	case BasketOpen:
		return nil
	case BasketCheckout:
		return ErrCheckoutInProgress
	default:
		return ErrBasketClosed
	}
}

// BeginCheckout freezes the basket for order placement.
func (b *Basket) BeginCheckout() error {
	if err := b.EnsureEditable(); err != nil {
		return err
	}
	b.Status = BasketCheckout
	b.UpdatedAt = time.Now()
	return nil
}

// VoucherInstrument returns the voucher payment instrument, or nil.
func (b *Basket) VoucherInstrument() *PaymentInstrument {
	return findVoucherInstrument(b.PaymentInstruments)
}

// IsVoucherApplied is derived from the instruments and never stored.
func (b *Basket) IsVoucherApplied() bool {
	return b.VoucherInstrument() != nil
}

func findVoucherInstrument(instruments []*PaymentInstrument) *PaymentInstrument {
	for _, pi := range instruments {
		if pi.Method == PaymentMethodLoyaltyVoucher {
			return pi
		}
	}
	return nil
}

type TransactionType string

const (
	TransactionCapture TransactionType = "CAPTURE"
	TransactionAuth    TransactionType = "AUTH"
)

type PaymentTransaction struct {
	TransactionID    string
	Type             TransactionType
	PaymentProcessor string
}

type PaymentInstrument struct {
	ID          uuid.UUID
	BasketID    uuid.UUID
	OrderNo     *string
	Method      string
	Amount      Money
	Custom      map[string]string
	Transaction PaymentTransaction
	CreatedAt   time.Time
}

func NewPaymentInstrument(basketID uuid.UUID, method string, amount Money) *PaymentInstrument {
	return &PaymentInstrument{
		ID:        uuid.New(),
		BasketID:  basketID,
		Method:    method,
		Amount:    amount,
		Custom:    map[string]string{},
		CreatedAt: time.Now(),
	}
}

// SetCustom writes a custom attribute. Only attributes defined for the
// instrument's payment method are accepted.
func (pi *PaymentInstrument) SetCustom(key, value string) error {
	if _, ok := definedAttributes[pi.Method][key]; !ok {
		return NewUndefinedAttributeError(pi.Method, key)
	}
	if pi.Custom == nil {
		pi.Custom = map[string]string{}
	}
	pi.Custom[key] = value
	return nil
}

func (pi *PaymentInstrument) CustomValue(key string) string {
	return pi.Custom[key]
}

// Capture records the settled payment transaction for an order.
func (pi *PaymentInstrument) Capture(orderNo, processor string) {
	pi.Transaction = PaymentTransaction{
		TransactionID:    orderNo,
		Type:             TransactionCapture,
		PaymentProcessor: processor,
	}
}
