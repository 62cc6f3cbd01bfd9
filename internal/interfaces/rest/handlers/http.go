package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application/services"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest/middleware"
	"github.com/go-playground/validator"
)

type VoucherValidator interface {
	Validate(ctx context.Context, voucherCode, membershipNumber string) application.ValidationResult
}

type VoucherApplier interface {
	Apply(ctx context.Context, customerNo, voucherCode, membershipNumber string) (application.RedemptionResult, error)
	Rollback(ctx context.Context, customerNo string) (application.RedemptionResult, error)
}

type PointsRedeemer interface {
	RedeemPoints(ctx context.Context, customerNo string, points int64) (*services.PointsRedemption, error)
}

type CheckoutService interface {
	GetBasket(ctx context.Context, customerNo string) (*services.BasketView, error)
	SubmitVoucherPayment(ctx context.Context, customerNo string) (*services.BasketView, error)
	PlaceOrder(ctx context.Context, customerNo, membershipNumber string) (*application.OrderResult, error)
}

type MemberService interface {
	Enroll(ctx context.Context, customerNo string) (*domain.MemberProfile, error)
	Dashboard(ctx context.Context, customerNo string) (*services.Dashboard, error)
}

type NewsletterService interface {
	RecordSignup(ctx context.Context, customerNo string)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// sessionCustomer returns the customer resolved by middleware.Session and
// writes a 401 when there is none.
func sessionCustomer(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*domain.Customer, bool) {
	customer := middleware.CustomerFromContext(r.Context())
	if customer == nil {
		rest.WriteError(w, application.NewUnauthenticatedError(), logger)
		return nil, false
	}
	return customer, true
}

// enrolledCustomer additionally requires loyalty membership.
func enrolledCustomer(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*domain.Customer, bool) {
	customer, ok := sessionCustomer(w, r, logger)
	if !ok {
		return nil, false
	}
	if !customer.IsEnrolled() {
		rest.WriteError(w, domain.ErrNotEnrolled, logger)
		return nil, false
	}
	return customer, true
}

func validateRequest(validate *validator.Validate, req any) error {
	if err := validate.Struct(req); err != nil {
		return application.NewInvalidInputError(err.Error())
	}
	return nil
}
