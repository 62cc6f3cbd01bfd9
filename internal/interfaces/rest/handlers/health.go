package handlers

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/interfaces/rest"
)

type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		rest.WriteError(w, &application.ServiceError{
			Code:       "UNAVAILABLE",
			Message:    "database unreachable",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, "ok", nil)
}
