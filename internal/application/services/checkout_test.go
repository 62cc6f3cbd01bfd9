package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services/testhelpers"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	store    *testhelpers.MemoryStore
	gateway  *testhelpers.MockLoyaltyGateway
	checkout *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	store := testhelpers.NewMemoryStore()
	store.SeedCustomer(customerNo, "0lM000001")
	gateway := testhelpers.NewMockLoyaltyGateway(t)

	checkout := services.NewCheckoutService(store.Baskets(), store, testhelpers.Logger())
	checkout.RegisterProcessor(
		domain.PaymentMethodLoyaltyVoucher,
		processorID,
		services.NewVoucherConsumer(gateway, store, testhelpers.Logger()),
	)

	return &checkoutFixture{store: store, gateway: gateway, checkout: checkout}
}

func TestCheckoutService_GetBasket(t *testing.T) {
	f := newCheckoutFixture(t)
	_, pi := seedVoucherInstrument(t, f.store)

	view, err := f.checkout.GetBasket(context.Background(), customerNo)

	require.NoError(t, err)
	assert.True(t, view.IsVoucherApplied)
	assert.Equal(t, domain.BasketOpen, view.Status)
	require.Len(t, view.PaymentInstruments, 1)
	assert.Equal(t, pi.ID, view.PaymentInstruments[0].ID)
	assert.False(t, view.PaymentInstruments[0].Captured)
}

func TestCheckoutService_GetBasket_NotFound(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.GetBasket(context.Background(), customerNo)

	assert.ErrorIs(t, err, domain.ErrBasketNotFound)
}

// ============================================================================
// PLACE ORDER
// ============================================================================

func TestCheckoutService_PlaceOrder_Success(t *testing.T) {
	// Setup
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.OK(`{"status": true, "message": "Voucher consumed"}`)).Once()

	// Action
	result, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	// Assert
	require.NoError(t, err)
	require.False(t, result.Error, result.Message)
	assert.Equal(t, application.MsgOrderPlaced, result.Message)
	assert.Equal(t, "00000001", result.OrderNo)
	assert.Equal(t, domain.OrderPlaced, result.Status)
	assert.True(t, result.IsVoucherApplied)
	assert.True(t, decimal.NewFromInt(100).Equal(result.Total.Amount))

	order, err := f.store.Orders().FindByOrderNo(context.Background(), result.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPlaced, order.Status)
	assert.Equal(t, basket.ID, order.BasketID)
	require.Len(t, order.PaymentInstruments, 1)
	assert.Equal(t, domain.TransactionCapture, order.PaymentInstruments[0].Transaction.Type)
	assert.Equal(t, result.OrderNo, order.PaymentInstruments[0].Transaction.TransactionID)
	assert.Equal(t, processorID, order.PaymentInstruments[0].Transaction.PaymentProcessor)

	_, err = f.store.Baskets().FindActiveByCustomer(context.Background(), customerNo)
	assert.ErrorIs(t, err, domain.ErrBasketNotFound, "ordered basket is no longer open")
}

func TestCheckoutService_PlaceOrder_AuthorizationFailed(t *testing.T) {
	f := newCheckoutFixture(t)
	seedVoucherInstrument(t, f.store)
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.OK(`{"status": false, "message": "already consumed"}`)).Once()

	result, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	require.NoError(t, err)
	assert.True(t, result.Error)
	assert.Equal(t, "already consumed", result.Message)
	assert.Equal(t, []string{"already consumed"}, result.ServerErrors)
	assert.Equal(t, domain.OrderFailed, result.Status)

	order, err := f.store.Orders().FindByOrderNo(context.Background(), result.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFailed, order.Status)
	assert.Empty(t, order.PaymentInstruments, "instruments are handed back to the basket")

	// The voucher stays on the reopened basket for the customer to retry or roll back.
	assert.Equal(t, domain.BasketOpen, f.store.BasketStatus(order.BasketID))
	pi := storedInstrument(t, f.store)
	assert.Nil(t, pi.OrderNo)
	assert.Empty(t, pi.Transaction.TransactionID)
}

func TestCheckoutService_PlaceOrder_RetryAfterFailureUsesNewOrderNo(t *testing.T) {
	f := newCheckoutFixture(t)
	seedVoucherInstrument(t, f.store)
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.Failed(503, "Service Unavailable")).Once()
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.OK(`{"status": true}`)).Once()

	first, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)
	require.NoError(t, err)
	require.True(t, first.Error)
	assert.Equal(t, application.MsgTechnicalError, first.Message)

	second, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)
	require.NoError(t, err)
	require.False(t, second.Error, second.Message)
	assert.NotEqual(t, first.OrderNo, second.OrderNo)
}

func TestCheckoutService_PlaceOrder_NoPaymentInstrument(t *testing.T) {
	f := newCheckoutFixture(t)
	f.store.SeedBasket(customerNo, "100.00")

	_, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeBusinessRule, svcErr.Code)
	assert.Equal(t, application.MsgNoPaymentInstrument, svcErr.Message)
}

func TestCheckoutService_PlaceOrder_UnsupportedMethod(t *testing.T) {
	f := newCheckoutFixture(t)
	basket := f.store.SeedBasket(customerNo, "100.00")
	card := domain.NewPaymentInstrument(basket.ID, "CREDIT_CARD", basket.Total())
	require.NoError(t, f.store.Baskets().CreatePaymentInstrument(context.Background(), card))

	_, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.MsgUnsupportedMethod, svcErr.Message)
	_, err = f.store.Orders().FindByOrderNo(context.Background(), "00000001")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound, "no order is created")
}

// ============================================================================
// SUBMIT VOUCHER PAYMENT
// ============================================================================

func TestCheckoutService_SubmitVoucherPayment_ReconcilesAmount(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	f.store.SetTotal(basket.ID, "90.00")

	view, err := f.checkout.SubmitVoucherPayment(context.Background(), customerNo)

	require.NoError(t, err)
	require.Len(t, view.PaymentInstruments, 1)
	assert.True(t, decimal.NewFromInt(90).Equal(view.PaymentInstruments[0].Amount.Amount))

	pi := storedInstrument(t, f.store)
	assert.True(t, decimal.NewFromInt(90).Equal(pi.Amount.Amount))
	assert.Equal(t, "90", pi.CustomValue(domain.AttrVoucherRedeemedAmount))
}

func TestCheckoutService_SubmitVoucherPayment_TotalNowExceedsFaceValue(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	f.store.SetTotal(basket.ID, "125.00")

	_, err := f.checkout.SubmitVoucherPayment(context.Background(), customerNo)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.MsgInsufficientValue, svcErr.Message)
	assert.True(t, decimal.NewFromInt(100).Equal(storedInstrument(t, f.store).Amount.Amount))
}

func TestCheckoutService_SubmitVoucherPayment_NoVoucher(t *testing.T) {
	f := newCheckoutFixture(t)
	f.store.SeedBasket(customerNo, "100.00")

	_, err := f.checkout.SubmitVoucherPayment(context.Background(), customerNo)

	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.MsgVoucherNotApplied, svcErr.Message)
}

// ============================================================================
// PLACEMENT RACES
// ============================================================================

// blockConsume makes ConsumeVoucher wait until release is closed. entered is
// closed once the provider call has started.
func (f *checkoutFixture) blockConsume(body string) (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(testhelpers.OK(body)).Once()
	return entered, release
}

func (f *checkoutFixture) placeInBackground(ctx context.Context) <-chan *application.OrderResult {
	done := make(chan *application.OrderResult, 1)
	go func() {
		result, _ := f.checkout.PlaceOrder(ctx, customerNo, membershipNo)
		done <- result
	}()
	return done
}

func TestCheckoutService_PlaceOrder_VoucherFrozenWhileConsuming(t *testing.T) {
	f := newCheckoutFixture(t)
	validator, _ := newValidator(t)
	applier := services.NewVoucherApplier(f.store.Baskets(), f.store, validator, testhelpers.Logger())
	basket, _ := seedVoucherInstrument(t, f.store)
	entered, release := f.blockConsume(`{"status": true, "message": "Voucher consumed"}`)

	done := f.placeInBackground(context.Background())
	<-entered

	assert.Equal(t, domain.BasketCheckout, f.store.BasketStatus(basket.ID))

	rolledBack, err := applier.Rollback(context.Background(), customerNo)
	require.NoError(t, err)
	assert.True(t, rolledBack.Error)
	assert.Equal(t, application.MsgCheckoutInProgress, rolledBack.Message)

	applied, err := applier.Apply(context.Background(), customerNo, "V150", membershipNo)
	require.NoError(t, err)
	assert.True(t, applied.Error)
	assert.Equal(t, application.MsgCheckoutInProgress, applied.Message)

	_, err = f.checkout.SubmitVoucherPayment(context.Background(), customerNo)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	close(release)
	result := <-done

	require.NotNil(t, result)
	assert.False(t, result.Error)
	assert.Equal(t, domain.OrderPlaced, result.Status)

	order, err := f.store.Orders().FindByOrderNo(context.Background(), result.OrderNo)
	require.NoError(t, err)
	require.Len(t, order.PaymentInstruments, 1)
	assert.Equal(t, domain.TransactionCapture, order.PaymentInstruments[0].Transaction.Type)
	assert.Equal(t, 1, f.store.VoucherInstruments(basket.ID), "the consumed voucher stays recorded")
	assert.Equal(t, domain.BasketOrdered, f.store.BasketStatus(basket.ID))
}

func TestCheckoutService_PlaceOrder_SecondPlacementIsRefused(t *testing.T) {
	f := newCheckoutFixture(t)
	seedVoucherInstrument(t, f.store)
	entered, release := f.blockConsume(`{"status": true, "message": "Voucher consumed"}`)

	done := f.placeInBackground(context.Background())
	<-entered

	second, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	assert.Nil(t, second)
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	close(release)
	first := <-done
	require.NotNil(t, first)
	assert.Equal(t, domain.OrderPlaced, first.Status)
	f.gateway.AssertNumberOfCalls(t, "ConsumeVoucher", 1)

	_, err = f.store.Orders().FindByOrderNo(context.Background(), "00000002")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound, "only one order is created")
}

func TestCheckoutService_PlaceOrder_ConcurrentPlacementsConsumeOnce(t *testing.T) {
	f := newCheckoutFixture(t)
	seedVoucherInstrument(t, f.store)
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.OK(`{"status": true, "message": "Voucher consumed"}`)).Maybe()

	const workers = 8
	var (
		wg     sync.WaitGroup
		placed atomic.Int32
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)
			if err == nil && result.Status == domain.OrderPlaced {
				placed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, placed.Load())
	f.gateway.AssertNumberOfCalls(t, "ConsumeVoucher", 1)
}

// ============================================================================
// PLACEMENT RECONCILIATION
// ============================================================================

func TestCheckoutService_PlaceOrder_TotalRaisedAboveFaceValue(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	f.store.SetTotal(basket.ID, "125.00")

	result, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	assert.Nil(t, result)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.MsgInsufficientValue, svcErr.Message)
	f.gateway.AssertNotCalled(t, "ConsumeVoucher", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.store.Orders().FindByOrderNo(context.Background(), "00000001")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound, "no order is created")
	assert.Equal(t, domain.BasketOpen, f.store.BasketStatus(basket.ID))
}

func TestCheckoutService_PlaceOrder_TotalLoweredIsReconciled(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	f.store.SetTotal(basket.ID, "90.00")
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Return(testhelpers.OK(`{"status": true, "message": "Voucher consumed"}`)).Once()

	result, err := f.checkout.PlaceOrder(context.Background(), customerNo, membershipNo)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderPlaced, result.Status)
	assert.True(t, decimal.NewFromInt(90).Equal(result.Total.Amount))

	order, err := f.store.Orders().FindByOrderNo(context.Background(), result.OrderNo)
	require.NoError(t, err)
	require.Len(t, order.PaymentInstruments, 1)
	pi := order.PaymentInstruments[0]
	assert.True(t, decimal.NewFromInt(90).Equal(pi.Amount.Amount))
	assert.Equal(t, "90", pi.CustomValue(domain.AttrVoucherRedeemedAmount))
}

// ============================================================================
// CANCELLATION
// ============================================================================

func TestCheckoutService_PlaceOrder_CancelledAfterConsumeStillRecordsCapture(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Run(func(mock.Arguments) { cancel() }).
		Return(testhelpers.OK(`{"status": true, "message": "Voucher consumed"}`)).Once()

	result, err := f.checkout.PlaceOrder(ctx, customerNo, membershipNo)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderPlaced, result.Status)

	order, err := f.store.Orders().FindByOrderNo(context.Background(), result.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPlaced, order.Status)
	require.Len(t, order.PaymentInstruments, 1)
	assert.Equal(t, domain.TransactionCapture, order.PaymentInstruments[0].Transaction.Type)
	assert.Equal(t, domain.BasketOrdered, f.store.BasketStatus(basket.ID))
}

func TestCheckoutService_PlaceOrder_CancelledDuringRejectedConsumeReopensBasket(t *testing.T) {
	f := newCheckoutFixture(t)
	basket, _ := seedVoucherInstrument(t, f.store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.gateway.On("ConsumeVoucher", mock.Anything, "0kD1", membershipNo).
		Run(func(mock.Arguments) { cancel() }).
		Return(testhelpers.OK(`{"status": false, "message": "already consumed"}`)).Once()

	result, err := f.checkout.PlaceOrder(ctx, customerNo, membershipNo)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderFailed, result.Status)
	assert.Equal(t, domain.BasketOpen, f.store.BasketStatus(basket.ID))
	assert.Nil(t, storedInstrument(t, f.store).OrderNo)
}
