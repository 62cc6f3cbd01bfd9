package handlers

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
)

type MemberHandler struct {
	members    MemberService
	newsletter NewsletterService
	logger     *slog.Logger
}

func NewMemberHandler(members MemberService, newsletter NewsletterService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, newsletter: newsletter, logger: logger}
}

func (h *MemberHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /members/enroll", h.HandleEnroll)
	mux.HandleFunc("GET /members/me", h.HandleDashboard)
	mux.HandleFunc("POST /newsletter/subscribe", h.HandleNewsletterSubscribe)
}

func (h *MemberHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.members.Enroll(r.Context(), customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, "Enrolled in the loyalty program.", profile)
}

func (h *MemberHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	dashboard, err := h.members.Dashboard(r.Context(), customer.CustomerNo)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, "", dashboard)
}

// HandleNewsletterSubscribe always succeeds; the accrual journal is best effort.
func (h *MemberHandler) HandleNewsletterSubscribe(w http.ResponseWriter, r *http.Request) {
	customer, ok := sessionCustomer(w, r, h.logger)
	if !ok {
		return
	}

	h.newsletter.RecordSignup(r.Context(), customer.CustomerNo)
	rest.WriteJSON(w, http.StatusOK, "Subscribed to the newsletter.", nil)
}
