package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
	"github.com/go-playground/validator"
)

type ApplyVoucherRequest struct {
	VoucherCode string `json:"voucherCode" validate:"required"`
}

type RedeemPointsRequest struct {
	PointsToRedeem int64 `json:"pointsToRedeem" validate:"required,gt=0"`
}

// VoucherHandler serves voucher validation, apply/rollback on the basket and
// points redemption.
type VoucherHandler struct {
	validator VoucherValidator
	applier   VoucherApplier
	redeemer  PointsRedeemer
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewVoucherHandler(v VoucherValidator, applier VoucherApplier, redeemer PointsRedeemer, logger *slog.Logger) *VoucherHandler {
	return &VoucherHandler{
		validator: v,
		applier:   applier,
		redeemer:  redeemer,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (h *VoucherHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /vouchers/validate", h.HandleValidate)
	mux.HandleFunc("POST /vouchers/redeem", h.HandleRedeem)
	mux.HandleFunc("POST /checkout/voucher", h.HandleApply)
	mux.HandleFunc("DELETE /checkout/voucher", h.HandleRollback)
}

// HandleValidate checks a code without touching the basket. The membership
// number defaults to the session customer's.
func (h *VoucherHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	code := strings.TrimSpace(r.URL.Query().Get("voucherCode"))
	membershipNumber := strings.TrimSpace(r.URL.Query().Get("membershipNumber"))
	if membershipNumber == "" {
		membershipNumber = customer.CustomerNo
	}

	result := h.validator.Validate(r.Context(), code, membershipNumber)
	rest.WriteResult(w, result.Error, result.Message, result)
}

func (h *VoucherHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	customer, ok := enrolledCustomer(w, r, h.logger)
	if !ok {
		return
	}

	var req ApplyVoucherRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	req.VoucherCode = strings.TrimSpace(req.VoucherCode)
	if err := validateRequest(h.validate, req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	result, err := h.applier.Apply(r.Context(), customer.CustomerNo, req.VoucherCode, customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteResult(w, result.Error, result.Message, result)
}

func (h *VoucherHandler) HandleRollback(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.applier.Rollback(r.Context(), customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteResult(w, result.Error, result.Message, result)
}

func (h *VoucherHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	customer, ok := enrolledCustomer(w, r, h.logger)
	if !ok {
		return
	}

	var req RedeemPointsRequest
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	if err := validateRequest(h.validate, req); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	redemption, err := h.redeemer.RedeemPoints(r.Context(), customer.CustomerNo, req.PointsToRedeem)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, application.MsgVoucherRedeemed, redemption)
}
