package handlers

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
)

type CheckoutHandler struct {
	checkout CheckoutService
	logger   *slog.Logger
}

func NewCheckoutHandler(checkout CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /checkout/basket", h.HandleGetBasket)
	mux.HandleFunc("POST /checkout/voucher-payment", h.HandleVoucherPayment)
	mux.HandleFunc("POST /checkout/orders", h.HandlePlaceOrder)
}

func (h *CheckoutHandler) HandleGetBasket(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.checkout.GetBasket(r.Context(), customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, "", view)
}

func (h *CheckoutHandler) HandleVoucherPayment(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.checkout.SubmitVoucherPayment(r.Context(), customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, application.MsgVoucherPaymentSubmitted, view)
}

// HandlePlaceOrder returns 201 for a placed order. A declined authorization is
// reported with 400 and the failed order in the body.
func (h *CheckoutHandler) HandlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.checkout.PlaceOrder(r.Context(), customer.CustomerNo, customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	if result.Error {
		rest.WriteJSON(w, http.StatusBadRequest, result.Message, result)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, result.Message, result)
}
