package application

import (
	"context"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/google/uuid"
)

// ServiceResult is the normalized outcome of one loyalty provider call.
// Transport failures are reported with OK=false rather than as a Go error.
type ServiceResult struct {
	OK           bool
	StatusCode   int
	Body         []byte
	ErrorMessage string
}

// LoyaltyGateway is the port for the remote loyalty provider.
type LoyaltyGateway interface {
	GetVouchers(ctx context.Context, membershipNumber string) ServiceResult
	ConsumeVoucher(ctx context.Context, voucherID, membershipNumber string) ServiceResult
	IssueVoucher(ctx context.Context, req IssueVoucherRequest) ServiceResult
	GetMemberProfile(ctx context.Context, memberID, membershipNumber string) ServiceResult
	EnrollMember(ctx context.Context, payload domain.EnrollmentPayload) ServiceResult
	GetTransactionHistory(ctx context.Context, membershipNumber, journalType string) ServiceResult
	GetTransactionLedgerSummary(ctx context.Context, membershipNumber string) ServiceResult
	ExecuteTransactionJournals(ctx context.Context, journals []TransactionJournal) ServiceResult
}

// BasketRepository is the port for basket persistence. Methods called through
// TransactionManager run inside the caller's transaction.
type BasketRepository interface {
	Create(ctx context.Context, basket *domain.Basket) error
	FindActiveByCustomer(ctx context.Context, customerNo string) (*domain.Basket, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Basket, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BasketStatus) error
	CreatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error
	UpdatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error
	RemovePaymentInstrument(ctx context.Context, id uuid.UUID) error
}

type OrderRepository interface {
	NextOrderNo(ctx context.Context) (string, error)
	Create(ctx context.Context, order *domain.Order) error
	FindByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, order *domain.Order) error
	DetachPaymentInstruments(ctx context.Context, orderNo string) error
}

type CustomerRepository interface {
	FindByCustomerNo(ctx context.Context, customerNo string) (*domain.Customer, error)
	SetLoyaltyMemberID(ctx context.Context, customerNo, memberID string) error
}

// SettingsStore holds what the data-sync job caches: the provider access
// token and the program configuration.
type SettingsStore interface {
	AccessToken(ctx context.Context) (string, error)
	SaveAccessToken(ctx context.Context, token string) error
	ProgramConfig(ctx context.Context) (*domain.ProgramConfig, error)
	SaveProgramConfig(ctx context.Context, cfg *domain.ProgramConfig) error
}

// TransactionManager runs fn in a single database transaction. The
// repositories handed to fn are bound to that transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, baskets BasketRepository, orders OrderRepository) error) error
}
