package services_test

import (
	"context"
	"testing"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services/testhelpers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func programConfig() *domain.ProgramConfig {
	return &domain.ProgramConfig{
		ID:   "0lp1",
		Name: "FicMart Rewards",
		JournalTypes: []domain.ProgramObject{
			{ID: "0lE1", Name: "Accrual", Type: domain.ObjectJournalType},
			{ID: "0lE2", Name: "Redemption", Type: domain.ObjectJournalType},
		},
		JournalSubtypes: []domain.ProgramObject{
			{ID: "0lS1", Name: "Newsletter Signup", Type: domain.ObjectJournalSubtype},
		},
	}
}

func TestNewsletterService_RecordSignup_SubmitsPendingAccrual(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	gateway := testhelpers.NewMockLoyaltyGateway(t)
	store.SeedCustomer(customerNo, "0lM000001")
	require.NoError(t, store.SaveProgramConfig(context.Background(), programConfig()))

	gateway.On("ExecuteTransactionJournals", mock.Anything, mock.MatchedBy(func(journals []application.TransactionJournal) bool {
		return len(journals) == 1 &&
			journals[0].JournalTypeID == "0lE1" &&
			journals[0].JournalSubTypeID == "0lS1" &&
			journals[0].MemberID == "0lM000001" &&
			journals[0].Status == "Pending" &&
			journals[0].ActivityDate != ""
	})).Return(testhelpers.OK(`{}`)).Once()

	svc := services.NewNewsletterService(store, store, gateway, testhelpers.Logger())
	svc.RecordSignup(context.Background(), customerNo)
}

func TestNewsletterService_RecordSignup_Skips(t *testing.T) {
	tests := []struct {
		name     string
		memberID string
		program  *domain.ProgramConfig
	}{
		{"customer not enrolled", "", programConfig()},
		{"program not synced", "0lM000001", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testhelpers.NewMemoryStore()
			store.SeedCustomer(customerNo, tt.memberID)
			require.NoError(t, store.SaveProgramConfig(context.Background(), tt.program))

			// No expectations: any gateway call fails the test.
			gateway := testhelpers.NewMockLoyaltyGateway(t)
			svc := services.NewNewsletterService(store, store, gateway, testhelpers.Logger())
			svc.RecordSignup(context.Background(), customerNo)

			gateway.AssertNotCalled(t, "ExecuteTransactionJournals", mock.Anything, mock.Anything)
		})
	}
}

func TestNewsletterService_RecordSignup_ProviderFailureIsSwallowed(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	gateway := testhelpers.NewMockLoyaltyGateway(t)
	store.SeedCustomer(customerNo, "0lM000001")
	require.NoError(t, store.SaveProgramConfig(context.Background(), programConfig()))
	gateway.On("ExecuteTransactionJournals", mock.Anything, mock.Anything).Return(testhelpers.Failed(500, "boom")).Once()

	svc := services.NewNewsletterService(store, store, gateway, testhelpers.Logger())

	require.NotPanics(t, func() { svc.RecordSignup(context.Background(), customerNo) })
}

func TestNewsletterService_RecordSignup_UnknownCustomer(t *testing.T) {
	store := testhelpers.NewMemoryStore()
	gateway := testhelpers.NewMockLoyaltyGateway(t)

	svc := services.NewNewsletterService(store, store, gateway, testhelpers.Logger())

	require.NotPanics(t, func() { svc.RecordSignup(context.Background(), "nobody") })
}
