package loyalty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

// Program process names.
const (
	ProcessConsumeVoucher = "Consume Voucher"
	ProcessIssueVoucher   = "Issue Voucher"
)

var _ application.LoyaltyGateway = (*Client)(nil)

func (c *Client) GetVouchers(ctx context.Context, membershipNumber string) application.ServiceResult {
	return c.Call(ctx, ServiceGetVouchers, http.MethodGet, CallOptions{
		EndpointProcessor: c.pathParams(placeholderMembership, membershipNumber),
	})
}

func (c *Client) ConsumeVoucher(ctx context.Context, voucherID, membershipNumber string) application.ServiceResult {
	return c.invokeProcess(ctx, ProcessConsumeVoucher, map[string]any{
		"MembershipNumber": membershipNumber,
		"VoucherId":        voucherID,
	})
}

func (c *Client) IssueVoucher(ctx context.Context, req application.IssueVoucherRequest) application.ServiceResult {
	return c.invokeProcess(ctx, ProcessIssueVoucher, map[string]any{
		"MemberId":              req.MemberID,
		"VoucherCode":           req.VoucherCode,
		"VoucherFaceValue":      json.Number(req.VoucherFaceValue.String()),
		"VoucherExpirationDate": req.VoucherExpirationDate,
	})
}

func (c *Client) invokeProcess(ctx context.Context, process string, params map[string]any) application.ServiceResult {
	return c.Call(ctx, ServiceInvokeProcessRule, http.MethodPost, CallOptions{
		Payload: application.ProcessRuleRequest{
			ProcessParameters: []map[string]any{params},
		},
		EndpointProcessor: c.pathParams(placeholderProcess, process),
	})
}

func (c *Client) GetMemberProfile(ctx context.Context, memberID, membershipNumber string) application.ServiceResult {
	query := url.Values{}
	query.Set("memberId", memberID)
	query.Set("membershipNumber", membershipNumber)
	query.Set("programCurrencyName", c.cfg.NonQualifyingCurrency())

	return c.Call(ctx, ServiceGetMemberProfile, http.MethodGet, CallOptions{
		QueryParams:       query,
		EndpointProcessor: c.pathParams(),
	})
}

func (c *Client) EnrollMember(ctx context.Context, payload domain.EnrollmentPayload) application.ServiceResult {
	return c.Call(ctx, ServiceEnrollProgramMembers, http.MethodPost, CallOptions{
		Payload:           payload,
		EndpointProcessor: c.pathParams(),
	})
}

func (c *Client) GetTransactionHistory(ctx context.Context, membershipNumber, journalType string) application.ServiceResult {
	return c.Call(ctx, ServiceTransactionHistory, http.MethodPost, CallOptions{
		QueryParams: url.Values{"page": []string{"1"}},
		Payload: map[string]string{
			"membershipNumber": membershipNumber,
			"journalType":      journalType,
		},
		EndpointProcessor: c.pathParams(),
	})
}

func (c *Client) GetTransactionLedgerSummary(ctx context.Context, membershipNumber string) application.ServiceResult {
	return c.Call(ctx, ServiceTransactionLedgerSummary, http.MethodGet, CallOptions{
		QueryParams:       url.Values{"membershipNumber": []string{membershipNumber}},
		EndpointProcessor: c.pathParams(placeholderMembership, membershipNumber),
	})
}

func (c *Client) ExecuteTransactionJournals(ctx context.Context, journals []application.TransactionJournal) application.ServiceResult {
	return c.Call(ctx, ServiceTransactionJournalExecution, http.MethodPost, CallOptions{
		Payload:           map[string]any{"transactionJournals": journals},
		EndpointProcessor: c.pathParams(),
	})
}

// Query runs a SOQL query against the provider's query service.
func (c *Client) Query(ctx context.Context, soql string) application.ServiceResult {
	return c.Call(ctx, ServiceQuery, http.MethodGet, CallOptions{
		QueryParams:       url.Values{"q": []string{soql}},
		EndpointProcessor: c.pathParams(),
	})
}
