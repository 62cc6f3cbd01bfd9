package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services/testhelpers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence/postgres"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	testDB *testhelpers.TestDatabase

	baskets   *postgres.BasketRepository
	orders    *postgres.OrderRepository
	customers *postgres.CustomerRepository
	settings  *postgres.SettingsRepository
	txManager *postgres.TransactionCoordinator
	ctx       context.Context
}

func (s *RepositoryTestSuite) SetupSuite() {
	s.testDB = testhelpers.SetupTestDatabase(s.T())
	s.ctx = context.Background()
	s.baskets = postgres.NewBasketRepository(s.testDB.DB)
	s.orders = postgres.NewOrderRepository(s.testDB.DB)
	s.customers = postgres.NewCustomerRepository(s.testDB.DB)
	s.settings = postgres.NewSettingsRepository(s.testDB.DB)
	s.txManager = postgres.NewTransactionCoordinator(s.testDB.DB)
}

func (s *RepositoryTestSuite) TearDownSuite() {
	s.testDB.Cleanup(s.T())
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.testDB.CleanTables(s.T())
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed repository tests in short mode")
	}
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) voucherInstrument(basket *domain.Basket, amount int64) *domain.PaymentInstrument {
	pi := domain.NewPaymentInstrument(basket.ID, domain.PaymentMethodLoyaltyVoucher,
		domain.Money{Amount: decimal.NewFromInt(amount), Currency: basket.Currency})
	s.Require().NoError(pi.SetCustom(domain.AttrVoucherCode, "V100"))
	s.Require().NoError(pi.SetCustom(domain.AttrVoucherID, "0kD001"))
	return pi
}

// ============================================================================
// BASKETS
// ============================================================================

func (s *RepositoryTestSuite) TestBasket_FindActiveByCustomer() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	created := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)

	found, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)

	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.True(decimal.NewFromInt(100).Equal(found.TotalGrossPrice))
	s.Equal(domain.BasketOpen, found.Status)
	s.Empty(found.PaymentInstruments)
	s.False(found.IsVoucherApplied())
}

func (s *RepositoryTestSuite) TestBasket_NotFound() {
	_, err := s.baskets.FindActiveByCustomer(s.ctx, "nobody")

	s.True(domain.IsErrorCode(err, domain.ErrCodeBasketNotFound))
}

func (s *RepositoryTestSuite) TestBasket_OrderedBasketIsNotOpen() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)

	s.Require().NoError(s.baskets.UpdateStatus(s.ctx, basket.ID, domain.BasketOrdered))

	_, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.ErrorIs(err, domain.ErrBasketNotFound)
}

func (s *RepositoryTestSuite) TestBasket_CheckoutBasketIsStillActive() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)

	s.Require().NoError(s.baskets.UpdateStatus(s.ctx, basket.ID, domain.BasketCheckout))

	found, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.Equal(basket.ID, found.ID)
	s.True(found.InCheckout())
	s.ErrorIs(found.EnsureEditable(), domain.ErrCheckoutInProgress)
}

// ============================================================================
// PAYMENT INSTRUMENTS
// ============================================================================

func (s *RepositoryTestSuite) TestInstrument_CustomAttributesRoundTrip() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)
	pi := s.voucherInstrument(basket, 100)

	s.Require().NoError(s.baskets.CreatePaymentInstrument(s.ctx, pi))

	found, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.True(found.IsVoucherApplied())

	got := found.VoucherInstrument()
	s.Equal(pi.ID, got.ID)
	s.Equal("V100", got.CustomValue(domain.AttrVoucherCode))
	s.Equal("0kD001", got.CustomValue(domain.AttrVoucherID))
	s.True(got.Amount.Equal(pi.Amount))
	s.Empty(got.Transaction.TransactionID)
}

func (s *RepositoryTestSuite) TestInstrument_AtMostOneVoucherPerBasket() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)

	s.Require().NoError(s.baskets.CreatePaymentInstrument(s.ctx, s.voucherInstrument(basket, 100)))
	err := s.baskets.CreatePaymentInstrument(s.ctx, s.voucherInstrument(basket, 100))

	s.Error(err)
}

func (s *RepositoryTestSuite) TestInstrument_UpdateTransactionAndRemove() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)
	pi := s.voucherInstrument(basket, 100)
	s.Require().NoError(s.baskets.CreatePaymentInstrument(s.ctx, pi))

	pi.Capture("00000042", "LOYALTY_MANAGEMENT_VOUCHER")
	s.Require().NoError(s.baskets.UpdatePaymentInstrument(s.ctx, pi))

	found, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.Equal("00000042", found.VoucherInstrument().Transaction.TransactionID)
	s.Equal(domain.TransactionCapture, found.VoucherInstrument().Transaction.Type)

	s.Require().NoError(s.baskets.RemovePaymentInstrument(s.ctx, pi.ID))
	s.ErrorIs(s.baskets.RemovePaymentInstrument(s.ctx, pi.ID), postgres.ErrPaymentInstrumentNotFound)
}

// ============================================================================
// TRANSACTIONS
// ============================================================================

func (s *RepositoryTestSuite) TestTransaction_RollbackOnError() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)
	boom := errors.New("boom")

	err := s.txManager.WithTransaction(s.ctx, func(ctx context.Context, baskets application.BasketRepository, _ application.OrderRepository) error {
		locked, err := baskets.FindByIDForUpdate(ctx, basket.ID)
		s.Require().NoError(err)
		s.Require().NoError(baskets.CreatePaymentInstrument(ctx, s.voucherInstrument(locked, 100)))
		return boom
	})

	s.ErrorIs(err, boom)
	found, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.False(found.IsVoucherApplied())
}

// ============================================================================
// ORDERS
// ============================================================================

func (s *RepositoryTestSuite) TestOrder_CreateLinksAndDetachesInstruments() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(s.T(), s.ctx, s.testDB.DB, customer.CustomerNo, 100)
	s.Require().NoError(s.baskets.CreatePaymentInstrument(s.ctx, s.voucherInstrument(basket, 100)))
	basket, err := s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)

	orderNo, err := s.orders.NextOrderNo(s.ctx)
	s.Require().NoError(err)
	s.Len(orderNo, 8)

	order, err := domain.NewOrder(orderNo, basket)
	s.Require().NoError(err)
	s.Require().NoError(s.orders.Create(s.ctx, order))

	found, err := s.orders.FindByOrderNo(s.ctx, orderNo)
	s.Require().NoError(err)
	s.Equal(domain.OrderCreated, found.Status)
	s.True(found.IsVoucherApplied())
	s.Equal(orderNo, *found.PaymentInstruments[0].OrderNo)

	s.Require().NoError(found.Fail())
	s.Require().NoError(s.orders.UpdateStatus(s.ctx, found))
	s.Require().NoError(s.orders.DetachPaymentInstruments(s.ctx, orderNo))
	s.Require().NoError(s.baskets.UpdateStatus(s.ctx, basket.ID, domain.BasketOpen))

	failed, err := s.orders.FindByOrderNo(s.ctx, orderNo)
	s.Require().NoError(err)
	s.Equal(domain.OrderFailed, failed.Status)
	s.False(failed.IsVoucherApplied())

	// the voucher stays on the basket
	basket, err = s.baskets.FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.True(basket.IsVoucherApplied())
	s.Nil(basket.VoucherInstrument().OrderNo)
}

func (s *RepositoryTestSuite) TestOrder_NotFound() {
	_, err := s.orders.FindByOrderNo(s.ctx, "99999999")

	s.ErrorIs(err, domain.ErrOrderNotFound)
}

// ============================================================================
// CUSTOMERS AND SETTINGS
// ============================================================================

func (s *RepositoryTestSuite) TestCustomer_SetLoyaltyMemberID() {
	customer := testhelpers.CreateCustomer(s.T(), s.ctx, s.testDB.DB)

	s.Require().NoError(s.customers.SetLoyaltyMemberID(s.ctx, customer.CustomerNo, "0lM999"))

	found, err := s.customers.FindByCustomerNo(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	s.Equal("0lM999", found.LoyaltyMemberID)
	s.True(found.IsEnrolled())

	s.ErrorIs(s.customers.SetLoyaltyMemberID(s.ctx, "nobody", "x"), domain.ErrCustomerNotFound)
}

func (s *RepositoryTestSuite) TestSettings_TokenAndProgramConfig() {
	token, err := s.settings.AccessToken(s.ctx)
	s.Require().NoError(err)
	s.Empty(token)

	cfg, err := s.settings.ProgramConfig(s.ctx)
	s.Require().NoError(err)
	s.Nil(cfg)

	s.Require().NoError(s.settings.SaveAccessToken(s.ctx, "first"))
	s.Require().NoError(s.settings.SaveAccessToken(s.ctx, "second"))
	token, err = s.settings.AccessToken(s.ctx)
	s.Require().NoError(err)
	s.Equal("second", token)

	s.Require().NoError(s.settings.SaveProgramConfig(s.ctx, &domain.ProgramConfig{
		ID:           "0lp1",
		Name:         "FicMart Rewards",
		JournalTypes: []domain.ProgramObject{{ID: "0lE1", Name: "Accrual"}},
	}))
	cfg, err = s.settings.ProgramConfig(s.ctx)
	s.Require().NoError(err)
	id, ok := cfg.FindID(domain.ObjectJournalType, "accrual")
	s.True(ok)
	s.Equal("0lE1", id)
}
