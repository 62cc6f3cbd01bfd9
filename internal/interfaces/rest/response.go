package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a success envelope when status is 2xx.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
}

// WriteResult reports a service result that carries its own error flag.
// A failed result is a client-side outcome and maps to 400.
func WriteResult(w http.ResponseWriter, failed bool, message string, data any) {
	status := http.StatusOK
	if failed {
		status = http.StatusBadRequest
	}
	WriteJSON(w, status, message, data)
}

// WriteError maps application errors to HTTP responses. Internal causes are
// logged and never sent to the client.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	svcErr := application.ToServiceError(err)

	if svcErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed",
			"code", svcErr.Code,
			"error", err,
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(svcErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Message: svcErr.Message,
		Error: &APIError{
			Code:    svcErr.Code,
			Message: svcErr.Message,
		},
	})
}

// DecodeJSON reads a request body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return application.NewInvalidInputError("Request body is not valid JSON.")
	}
	return nil
}
