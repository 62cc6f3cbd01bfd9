package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
)

// Recovery turns a handler panic into a 500 INTERNAL_ERROR response and logs it
// against the calling customer. http.ErrAbortHandler is passed through so the
// server can drop the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered", panicAttrs(r, rec)...)
				rest.WriteError(w, application.NewInternalError(fmt.Errorf("panic: %v", rec)), logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// panicAttrs identifies the customer from the session when Recovery runs inside
// Session, and from CustomerHeader otherwise.
func panicAttrs(r *http.Request, rec any) []any {
	attrs := []any{
		"panic", rec,
		"method", r.Method,
		"path", r.URL.Path,
	}

	if c := CustomerFromContext(r.Context()); c != nil {
		attrs = append(attrs, "customer_no", c.CustomerNo, "loyalty_member_id", c.LoyaltyMemberID)
	} else if customerNo := strings.TrimSpace(r.Header.Get(CustomerHeader)); customerNo != "" {
		attrs = append(attrs, "customer_no", customerNo)
	}

	return append(attrs, "stack", string(debug.Stack()))
}
