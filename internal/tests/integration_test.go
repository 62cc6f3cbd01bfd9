package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services/testhelpers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/config"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/loyalty"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeProvider serves the two provider calls the voucher flow makes.
type fakeProvider struct {
	vouchers      string
	consumeStatus atomic.Bool
	consumeCalls  atomic.Int32
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer tok-integration" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`[{"errorCode":"INVALID_SESSION_ID","message":"Session expired or invalid"}]`))
		return
	}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/vouchers"):
		_, _ = w.Write([]byte(p.vouchers))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/program-processes/Consume Voucher"):
		p.consumeCalls.Add(1)
		if p.consumeStatus.Load() {
			_, _ = w.Write([]byte(`{"status": true, "message": "Voucher consumed"}`))
		} else {
			_, _ = w.Write([]byte(`{"status": false, "message": "already consumed"}`))
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type IntegrationTestSuite struct {
	suite.Suite
	testDB   *testhelpers.TestDatabase
	provider *fakeProvider
	server   *httptest.Server
	router   http.Handler
	ctx      context.Context
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.testDB = testhelpers.SetupTestDatabase(s.T())

	s.provider = &fakeProvider{}
	s.server = httptest.NewServer(s.provider)

	db := s.testDB.DB
	logger := testhelpers.Logger()

	basketRepo := postgres.NewBasketRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	txManager := postgres.NewTransactionCoordinator(db)

	loyaltyCfg := config.LoyaltyConfig{
		Endpoint:    s.server.URL,
		APIVersion:  "64.0",
		ProgramName: "FicMart Rewards",
		Timeout:     5 * time.Second,
	}
	client := loyalty.NewClient(loyaltyCfg, settingsRepo, logger)

	validator := services.NewVoucherValidator(client, logger)
	applier := services.NewVoucherApplier(basketRepo, txManager, validator, logger)
	checkout := services.NewCheckoutService(basketRepo, txManager, logger)
	checkout.RegisterProcessor(domain.PaymentMethodLoyaltyVoucher, domain.PaymentMethodLoyaltyVoucher,
		services.NewVoucherConsumer(client, txManager, logger))

	s.router = handlers.NewRouter(
		handlers.NewHealthHandler(db, logger),
		middleware.Session(customerRepo, logger),
		handlers.NewVoucherHandler(validator, applier, services.NewRedemptionService(customerRepo, client, logger), logger),
		handlers.NewCheckoutHandler(checkout, logger),
		handlers.NewMemberHandler(
			services.NewMemberService(customerRepo, client, loyaltyCfg, logger),
			services.NewNewsletterService(customerRepo, settingsRepo, client, logger),
			logger,
		),
	)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.server.Close()
	s.testDB.Cleanup(s.T())
}

func (s *IntegrationTestSuite) SetupTest() {
	s.testDB.CleanTables(s.T())
	require.NoError(s.T(), postgres.NewSettingsRepository(s.testDB.DB).SaveAccessToken(s.ctx, "tok-integration"))
	s.provider.vouchers = string(testhelpers.VouchersBody(
		testhelpers.VoucherJSON("0kD1", "V100", 120, "Issued", "2099-12-31", true),
	))
	s.provider.consumeStatus.Store(true)
	s.provider.consumeCalls.Store(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *IntegrationTestSuite) call(method, path, customerNo string, body any) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(middleware.CustomerHeader, customerNo)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&env))
	return rec.Code, env
}

// ============================================================================
// FULL FLOW TESTS
// ============================================================================

func (s *IntegrationTestSuite) TestVoucherCheckout_FullFlow() {
	t := s.T()
	customer := testhelpers.CreateCustomer(t, s.ctx, s.testDB.DB)
	basket := testhelpers.CreateBasket(t, s.ctx, s.testDB.DB, customer.CustomerNo, 100)

	// 1. Validate
	code, env := s.call(http.MethodGet, "/vouchers/validate?voucherCode=V100", customer.CustomerNo, nil)
	s.Require().Equal(http.StatusOK, code, env.Message)

	// 2. Apply
	code, env = s.call(http.MethodPost, "/checkout/voucher", customer.CustomerNo, handlers.ApplyVoucherRequest{VoucherCode: "V100"})
	s.Require().Equal(http.StatusOK, code, env.Message)

	// 3. Basket shows the voucher
	code, env = s.call(http.MethodGet, "/checkout/basket", customer.CustomerNo, nil)
	s.Require().Equal(http.StatusOK, code)
	var view services.BasketView
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	assert.True(t, view.IsVoucherApplied)
	s.Require().Len(view.PaymentInstruments, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(view.PaymentInstruments[0].Amount.Amount))

	// 4. Place order
	code, env = s.call(http.MethodPost, "/checkout/orders", customer.CustomerNo, nil)
	s.Require().Equal(http.StatusCreated, code, env.Message)

	var result struct {
		OrderNo string             `json:"orderNo"`
		Status  domain.OrderStatus `json:"status"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	assert.Equal(t, domain.OrderPlaced, result.Status)
	assert.EqualValues(t, 1, s.provider.consumeCalls.Load())

	order, err := postgres.NewOrderRepository(s.testDB.DB).FindByOrderNo(s.ctx, result.OrderNo)
	s.Require().NoError(err)
	assert.Equal(t, basket.ID, order.BasketID)
	s.Require().Len(order.PaymentInstruments, 1)
	assert.Equal(t, domain.TransactionCapture, order.PaymentInstruments[0].Transaction.Type)
	assert.Equal(t, result.OrderNo, order.PaymentInstruments[0].Transaction.TransactionID)

	// The basket is closed.
	code, _ = s.call(http.MethodGet, "/checkout/basket", customer.CustomerNo, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func (s *IntegrationTestSuite) TestVoucherCheckout_ConsumptionRejected() {
	t := s.T()
	customer := testhelpers.CreateCustomer(t, s.ctx, s.testDB.DB)
	testhelpers.CreateBasket(t, s.ctx, s.testDB.DB, customer.CustomerNo, 100)
	s.provider.consumeStatus.Store(false)

	code, env := s.call(http.MethodPost, "/checkout/voucher", customer.CustomerNo, handlers.ApplyVoucherRequest{VoucherCode: "V100"})
	s.Require().Equal(http.StatusOK, code, env.Message)

	code, env = s.call(http.MethodPost, "/checkout/orders", customer.CustomerNo, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "already consumed", env.Message)

	// The voucher stays on the reopened basket, without a transaction.
	code, env = s.call(http.MethodGet, "/checkout/basket", customer.CustomerNo, nil)
	s.Require().Equal(http.StatusOK, code)
	var view services.BasketView
	s.Require().NoError(json.Unmarshal(env.Data, &view))
	assert.Equal(t, domain.BasketOpen, view.Status)
	assert.True(t, view.IsVoucherApplied)
	s.Require().Len(view.PaymentInstruments, 1)
	assert.False(t, view.PaymentInstruments[0].Captured)

	// Rollback clears it.
	code, _ = s.call(http.MethodDelete, "/checkout/voucher", customer.CustomerNo, nil)
	assert.Equal(t, http.StatusOK, code)
}

func (s *IntegrationTestSuite) TestVoucherApply_InsufficientValue() {
	t := s.T()
	customer := testhelpers.CreateCustomer(t, s.ctx, s.testDB.DB)
	testhelpers.CreateBasket(t, s.ctx, s.testDB.DB, customer.CustomerNo, 150)

	code, env := s.call(http.MethodPost, "/checkout/voucher", customer.CustomerNo, handlers.ApplyVoucherRequest{VoucherCode: "V100"})

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The voucher value must be greater than the order total.", env.Message)

	basket, err := postgres.NewBasketRepository(s.testDB.DB).FindActiveByCustomer(s.ctx, customer.CustomerNo)
	s.Require().NoError(err)
	assert.False(t, basket.IsVoucherApplied())
}

func (s *IntegrationTestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusOK, rec.Code)
}
