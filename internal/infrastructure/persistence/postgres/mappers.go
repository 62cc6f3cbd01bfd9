package postgres

import (
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

func toDomainBasket(m BasketModel, instruments []*domain.PaymentInstrument) *domain.Basket {
	return &domain.Basket{
		ID:                 m.ID,
		CustomerNo:         m.CustomerNo,
		Currency:           m.Currency,
		TotalGrossPrice:    m.TotalGrossPrice,
		Status:             domain.BasketStatus(m.Status),
		PaymentInstruments: instruments,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toDomainInstrument(m PaymentInstrumentModel) *domain.PaymentInstrument {
	pi := &domain.PaymentInstrument{
		ID:        m.ID,
		BasketID:  m.BasketID,
		OrderNo:   m.OrderNo,
		Method:    m.Method,
		Amount:    domain.Money{Amount: m.Amount, Currency: m.Currency},
		Custom:    m.Custom,
		CreatedAt: m.CreatedAt,
	}
	if pi.Custom == nil {
		pi.Custom = map[string]string{}
	}
	if m.TransactionID != nil {
		pi.Transaction.TransactionID = *m.TransactionID
	}
	if m.TransactionType != nil {
		pi.Transaction.Type = domain.TransactionType(*m.TransactionType)
	}
	if m.PaymentProcessor != nil {
		pi.Transaction.PaymentProcessor = *m.PaymentProcessor
	}
	return pi
}

func toInstrumentModel(pi *domain.PaymentInstrument) PaymentInstrumentModel {
	custom := pi.Custom
	if custom == nil {
		custom = map[string]string{}
	}
	return PaymentInstrumentModel{
		ID:               pi.ID,
		BasketID:         pi.BasketID,
		OrderNo:          pi.OrderNo,
		Method:           pi.Method,
		Amount:           pi.Amount.Amount,
		Currency:         pi.Amount.Currency,
		Custom:           custom,
		TransactionID:    nullable(pi.Transaction.TransactionID),
		TransactionType:  nullable(string(pi.Transaction.Type)),
		PaymentProcessor: nullable(pi.Transaction.PaymentProcessor),
		CreatedAt:        pi.CreatedAt,
	}
}

func toDomainOrder(m OrderModel, instruments []*domain.PaymentInstrument) *domain.Order {
	return &domain.Order{
		OrderNo:            m.OrderNo,
		BasketID:           m.BasketID,
		CustomerNo:         m.CustomerNo,
		Total:              domain.Money{Amount: m.Total, Currency: m.Currency},
		Status:             domain.OrderStatus(m.Status),
		PaymentInstruments: instruments,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func toDomainCustomer(m CustomerModel) *domain.Customer {
	c := &domain.Customer{
		CustomerNo: m.CustomerNo,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Email:      m.Email,
		Phone:      m.Phone,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.LoyaltyMemberID != nil {
		c.LoyaltyMemberID = *m.LoyaltyMemberID
	}
	return c
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
