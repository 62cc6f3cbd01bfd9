package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BasketModel struct {
	ID              uuid.UUID
	CustomerNo      string
	Currency        string
	TotalGrossPrice decimal.Decimal
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentInstrumentModel keeps custom attributes as a JSONB object. OrderNo is
// set while an order placement holds the instrument.
type PaymentInstrumentModel struct {
	ID               uuid.UUID
	BasketID         uuid.UUID
	OrderNo          *string
	Method           string
	Amount           decimal.Decimal
	Currency         string
	Custom           map[string]string
	TransactionID    *string
	TransactionType  *string
	PaymentProcessor *string
	CreatedAt        time.Time
}

type OrderModel struct {
	OrderNo    string
	BasketID   uuid.UUID
	CustomerNo string
	Total      decimal.Decimal
	Currency   string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CustomerModel struct {
	CustomerNo      string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	LoyaltyMemberID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
