package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/config"
)

// Service names known to the gateway.
const (
	ServiceGetToken                    = "LoyaltyCloud_getToken"
	ServiceGetVouchers                 = "LoyaltyCloud_getVouchers"
	ServiceInvokeProcessRule           = "LoyaltyCloud_invokeProcessRule"
	ServiceGetMemberProfile            = "LoyaltyCloud_getMemberProfile"
	ServiceEnrollProgramMembers        = "LoyaltyCloud_enrollProgramMembers"
	ServiceTransactionHistory          = "LoyaltyCloud_transactionHistory"
	ServiceTransactionLedgerSummary    = "LoyaltyCloud_transactionLedgerSummary"
	ServiceTransactionJournalExecution = "LoyaltyCloud_transactionJournalsExecution"
	ServiceQuery                       = "LoyaltyCloud_query"
)

// Placeholders substituted into service paths.
const (
	placeholderVersion    = "{version}"
	placeholderProgram    = "{loyalty-program-name}"
	placeholderProcess    = "{process-name}"
	placeholderMembership = "{membership-number}"
)

// serviceRegistry maps each service to its path relative to the configured endpoint.
var serviceRegistry = map[string]string{
	ServiceGetToken:                    "services/oauth2/token",
	ServiceGetVouchers:                 "services/data/{version}/loyalty/programs/{loyalty-program-name}/members/{membership-number}/vouchers",
	ServiceInvokeProcessRule:           "services/data/{version}/connect/loyalty/programs/{loyalty-program-name}/program-processes/{process-name}",
	ServiceGetMemberProfile:            "services/data/{version}/loyalty-programs/{loyalty-program-name}/members",
	ServiceEnrollProgramMembers:        "services/data/{version}/loyalty-programs/{loyalty-program-name}/individual-member-enrollments",
	ServiceTransactionHistory:          "services/data/{version}/loyalty/programs/{loyalty-program-name}/transaction-history",
	ServiceTransactionLedgerSummary:    "services/data/{version}/loyalty/programs/{loyalty-program-name}/members/{membership-number}/transaction-ledger-summary",
	ServiceTransactionJournalExecution: "services/data/{version}/connect/realtime/loyalty/programs/{loyalty-program-name}",
	ServiceQuery:                       "services/data/{version}/query",
}

// TokenSource yields the cached provider access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// CallOptions customizes one provider call.
type CallOptions struct {
	Headers     map[string]string
	Payload     any
	QueryParams url.Values
	// EndpointProcessor rewrites the service path before query parameters are appended.
	EndpointProcessor func(path string) string
}

type Client struct {
	cfg        config.LoyaltyConfig
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

func NewClient(cfg config.LoyaltyConfig, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// Call performs an authenticated JSON request against a registered service.
// A body is only sent for POST, PATCH and PUT.
func (c *Client) Call(ctx context.Context, serviceName, method string, opts CallOptions) application.ServiceResult {
	path, ok := serviceRegistry[serviceName]
	if !ok {
		return application.ServiceResult{ErrorMessage: fmt.Sprintf("unknown loyalty service %q", serviceName)}
	}

	if opts.EndpointProcessor != nil {
		path = opts.EndpointProcessor(path)
	}
	endpoint := withQuery(c.baseURL()+"/"+path, opts.QueryParams)

	var bodyReader io.Reader
	if opts.Payload != nil && sendsBody(method) {
		jsonData, err := json.Marshal(opts.Payload)
		if err != nil {
			return c.failure(serviceName, 0, fmt.Errorf("error marshalling json: %w", err))
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return c.failure(serviceName, 0, fmt.Errorf("error creating request: %w", err))
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil || token == "" {
		c.logger.Error("failed to retrieve access token for loyalty service",
			"service", serviceName,
			"error", err,
		)
	} else {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failure(serviceName, 0, fmt.Errorf("error making request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failure(serviceName, resp.StatusCode, fmt.Errorf("error reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result := c.failure(serviceName, resp.StatusCode, newGatewayError(serviceName, resp.StatusCode, body))
		result.Body = body
		return result
	}

	c.logger.Debug("loyalty call succeeded", "service", serviceName, "status", resp.StatusCode)

	return application.ServiceResult{
		OK:         true,
		StatusCode: resp.StatusCode,
		Body:       body,
	}
}

func (c *Client) failure(serviceName string, status int, err error) application.ServiceResult {
	c.logger.Error("loyalty call failed",
		"service", serviceName,
		"status", status,
		"error", err,
	)
	return application.ServiceResult{
		StatusCode:   status,
		ErrorMessage: err.Error(),
	}
}

func (c *Client) baseURL() string {
	return strings.TrimRight(c.cfg.Endpoint, "/")
}

// pathParams returns an EndpointProcessor that fills the version and program
// placeholders plus any extra ones given as placeholder/value pairs.
func (c *Client) pathParams(extra ...string) func(string) string {
	pairs := []string{
		placeholderVersion, "v" + c.cfg.APIVersion,
		placeholderProgram, url.PathEscape(c.cfg.ProgramName),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		pairs = append(pairs, extra[i], url.PathEscape(extra[i+1]))
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace
}

func newGatewayError(serviceName string, status int, body []byte) *GatewayError {
	gwErr := &GatewayError{
		Service:    serviceName,
		StatusCode: status,
		Message:    http.StatusText(status),
	}

	// Provider REST errors come as an array of envelopes, OAuth errors as a single object.
	var list []providerError
	var single providerError
	switch {
	case json.Unmarshal(body, &list) == nil && len(list) > 0:
		gwErr.Code, gwErr.Message = list[0].ErrorCode, list[0].Message
	case json.Unmarshal(body, &single) == nil && (single.Error != "" || single.ErrorCode != ""):
		if single.Error != "" {
			gwErr.Code, gwErr.Message = single.Error, single.ErrorDescription
		} else {
			gwErr.Code, gwErr.Message = single.ErrorCode, single.Message
		}
	}

	return gwErr
}

func sendsBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPatch || method == http.MethodPut
}

func withQuery(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + params.Encode()
}
