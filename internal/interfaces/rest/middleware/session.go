package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
)

// CustomerHeader carries the storefront's authenticated customer number.
const CustomerHeader = "X-Customer-No"

type customerKey struct{}

// Session resolves the calling customer from CustomerHeader and stores the
// profile in the request context. Requests without a known customer get 401.
func Session(customers application.CustomerRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerNo := strings.TrimSpace(r.Header.Get(CustomerHeader))
			if customerNo == "" {
				rest.WriteError(w, application.NewUnauthenticatedError(), logger)
				return
			}

			customer, err := customers.FindByCustomerNo(r.Context(), customerNo)
			if err != nil {
				rest.WriteError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCustomer(r.Context(), customer)))
		})
	}
}

func WithCustomer(ctx context.Context, c *domain.Customer) context.Context {
	return context.WithValue(ctx, customerKey{}, c)
}

// CustomerFromContext returns the session customer, or nil outside Session.
func CustomerFromContext(ctx context.Context) *domain.Customer {
	c, _ := ctx.Value(customerKey{}).(*domain.Customer)
	return c
}
