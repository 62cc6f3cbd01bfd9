package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderCreated OrderStatus = "CREATED"
	OrderPlaced  OrderStatus = "PLACED"
	OrderFailed  OrderStatus = "FAILED"
)

type Order struct {
	OrderNo            string
	BasketID           uuid.UUID
	CustomerNo         string
	Total              Money
	Status             OrderStatus
	PaymentInstruments []*PaymentInstrument
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewOrder snapshots an open basket into a CREATED order and moves the
// basket into checkout.
func NewOrder(orderNo string, basket *Basket) (*Order, error) {
	if orderNo == "" {
		return nil, NewMissingRequiredFieldError("order number")
	}
	if err := basket.BeginCheckout(); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Order{
		OrderNo:            orderNo,
		BasketID:           basket.ID,
		CustomerNo:         basket.CustomerNo,
		Total:              basket.Total(),
		Status:             OrderCreated,
		PaymentInstruments: basket.PaymentInstruments,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (o *Order) IsVoucherApplied() bool {
	return findVoucherInstrument(o.PaymentInstruments) != nil
}

func (o *Order) Place() error {
	if o.Status != OrderCreated {
		return NewInvalidTransitionError(o.Status, OrderPlaced)
	}
	o.Status = OrderPlaced
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Fail() error {
	if o.Status != OrderCreated {
		return NewInvalidTransitionError(o.Status, OrderFailed)
	}
	o.Status = OrderFailed
	o.UpdatedAt = time.Now()
	return nil
}
