package testhelpers

import (
	"context"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockLoyaltyGateway is a testify mock of application.LoyaltyGateway.
type MockLoyaltyGateway struct {
	mock.Mock
}

var _ application.LoyaltyGateway = (*MockLoyaltyGateway)(nil)

// NewMockLoyaltyGateway registers AssertExpectations as a test cleanup.
func NewMockLoyaltyGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLoyaltyGateway {
	m := &MockLoyaltyGateway{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// OK builds a successful ServiceResult with the given body.
func OK(body string) application.ServiceResult {
	return application.ServiceResult{OK: true, StatusCode: 200, Body: []byte(body)}
}

// Failed builds a failed ServiceResult as the gateway reports it.
func Failed(status int, message string) application.ServiceResult {
	return application.ServiceResult{StatusCode: status, ErrorMessage: message}
}

func (m *MockLoyaltyGateway) result(args mock.Arguments) application.ServiceResult {
	return args.Get(0).(application.ServiceResult)
}

func (m *MockLoyaltyGateway) GetVouchers(ctx context.Context, membershipNumber string) application.ServiceResult {
	return m.result(m.Called(ctx, membershipNumber))
}

func (m *MockLoyaltyGateway) ConsumeVoucher(ctx context.Context, voucherID, membershipNumber string) application.ServiceResult {
	return m.result(m.Called(ctx, voucherID, membershipNumber))
}

func (m *MockLoyaltyGateway) IssueVoucher(ctx context.Context, req application.IssueVoucherRequest) application.ServiceResult {
	return m.result(m.Called(ctx, req))
}

func (m *MockLoyaltyGateway) GetMemberProfile(ctx context.Context, memberID, membershipNumber string) application.ServiceResult {
	return m.result(m.Called(ctx, memberID, membershipNumber))
}

func (m *MockLoyaltyGateway) EnrollMember(ctx context.Context, payload domain.EnrollmentPayload) application.ServiceResult {
	return m.result(m.Called(ctx, payload))
}

func (m *MockLoyaltyGateway) GetTransactionHistory(ctx context.Context, membershipNumber, journalType string) application.ServiceResult {
	return m.result(m.Called(ctx, membershipNumber, journalType))
}

func (m *MockLoyaltyGateway) GetTransactionLedgerSummary(ctx context.Context, membershipNumber string) application.ServiceResult {
	return m.result(m.Called(ctx, membershipNumber))
}

func (m *MockLoyaltyGateway) ExecuteTransactionJournals(ctx context.Context, journals []application.TransactionJournal) application.ServiceResult {
	return m.result(m.Called(ctx, journals))
}
