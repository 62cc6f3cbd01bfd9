package loyalty

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is a non-2xx answer from the loyalty provider.
type GatewayError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

// providerError is the error envelope used by the REST and OAuth endpoints.
type providerError struct {
	ErrorCode        string `json:"errorCode"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("loyalty %s failed [%s]: %s (status: %d)", e.Service, e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}
