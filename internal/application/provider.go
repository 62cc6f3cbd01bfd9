package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/shopspring/decimal"
)

// Payloads exchanged with the loyalty provider.

type VouchersResponse struct {
	Vouchers []VoucherDTO `json:"vouchers"`
}

type VoucherDTO struct {
	VoucherID                    string          `json:"voucherId"`
	VoucherCode                  string          `json:"voucherCode"`
	VoucherNumber                string          `json:"voucherNumber"`
	VoucherDefinition            string          `json:"voucherDefinition"`
	Type                         string          `json:"type"`
	FaceValue                    decimal.Decimal `json:"faceValue"`
	RemainingValue               decimal.Decimal `json:"remainingValue"`
	RedeemedValue                decimal.Decimal `json:"redeemedValue"`
	Status                       string          `json:"status"`
	EffectiveDate                string          `json:"effectiveDate"`
	ExpirationDate               string          `json:"expirationDate"`
	IsVoucherDefinitionActive    bool            `json:"isVoucherDefinitionActive"`
	IsVoucherPartiallyRedeemable bool            `json:"isVoucherPartiallyRedeemable"`
	HasTimeBasedVoucherPeriod    bool            `json:"hasTimeBasedVoucherPeriod"`
}

func (d VoucherDTO) ToDomain() (domain.Voucher, error) {
	effective, err := parseProviderDate(d.EffectiveDate)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("voucher %s effectiveDate: %w", d.VoucherCode, err)
	}
	expiration, err := parseProviderDate(d.ExpirationDate)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("voucher %s expirationDate: %w", d.VoucherCode, err)
	}

	return domain.Voucher{
		VoucherID:                    d.VoucherID,
		VoucherCode:                  d.VoucherCode,
		VoucherNumber:                d.VoucherNumber,
		VoucherDefinition:            d.VoucherDefinition,
		Type:                         d.Type,
		FaceValue:                    d.FaceValue,
		RemainingValue:               d.RemainingValue,
		RedeemedValue:                d.RedeemedValue,
		Status:                       domain.VoucherStatus(d.Status),
		EffectiveDate:                effective,
		ExpirationDate:               expiration,
		IsVoucherDefinitionActive:    d.IsVoucherDefinitionActive,
		IsVoucherPartiallyRedeemable: d.IsVoucherPartiallyRedeemable,
		HasTimeBasedVoucherPeriod:    d.HasTimeBasedVoucherPeriod,
	}, nil
}

// DecodeVouchers parses a voucher listing body into domain vouchers.
func DecodeVouchers(body []byte) ([]domain.Voucher, error) {
	var resp VouchersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	vouchers := make([]domain.Voucher, 0, len(resp.Vouchers))
	for _, dto := range resp.Vouchers {
		v, err := dto.ToDomain()
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, nil
}

// parseProviderDate accepts plain dates and RFC 3339 timestamps. Plain dates are midnight UTC.
func parseProviderDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ProcessRuleResponse is returned by program process invocations such as
// "Consume Voucher" and "Issue Voucher".
type ProcessRuleResponse struct {
	Status           bool            `json:"status"`
	Message          string          `json:"message"`
	OutputParameters json.RawMessage `json:"outputParameters,omitempty"`
}

type ProcessRuleRequest struct {
	ProcessParameters []map[string]any `json:"processParameters"`
}

type IssueVoucherRequest struct {
	MemberID              string
	VoucherCode           string
	VoucherFaceValue      decimal.Decimal
	VoucherExpirationDate string
}

type MemberCurrencyDTO struct {
	LoyaltyMemberCurrencyName string          `json:"loyaltyMemberCurrencyName"`
	PointsBalance             decimal.Decimal `json:"pointsBalance"`
}

type MemberTierDTO struct {
	LoyaltyMemberTierName string `json:"loyaltyMemberTierName"`
}

type MemberProfileResponse struct {
	LoyaltyProgramMemberID      string              `json:"loyaltyProgramMemberId"`
	LoyaltyProgramName          string              `json:"loyaltyProgramName"`
	MembershipNumber            string              `json:"membershipNumber"`
	MemberStatus                string              `json:"memberStatus"`
	MemberType                  string              `json:"memberType"`
	EnrollmentDate              string              `json:"enrollmentDate"`
	CanReceivePromotions        bool                `json:"canReceivePromotions"`
	CanReceivePartnerPromotions bool                `json:"canReceivePartnerPromotions"`
	MemberCurrencies            []MemberCurrencyDTO `json:"memberCurrencies"`
	MemberTiers                 []MemberTierDTO     `json:"memberTiers"`
}

// ToDomain maps the provider profile. Balances are picked by currency name.
func (r MemberProfileResponse) ToDomain(qualifyingName, nonQualifyingName string) domain.MemberProfile {
	qualifying, nonQualifying := decimal.Zero, decimal.Zero
	for _, c := range r.MemberCurrencies {
		switch c.LoyaltyMemberCurrencyName {
		case qualifyingName:
			qualifying = c.PointsBalance
		case nonQualifyingName:
			nonQualifying = c.PointsBalance
		}
	}

	var tier string
	if len(r.MemberTiers) > 0 {
		tier = r.MemberTiers[0].LoyaltyMemberTierName
	}

	return domain.MemberProfile{
		ID:                          r.LoyaltyProgramMemberID,
		ProgramName:                 r.LoyaltyProgramName,
		MembershipNumber:            r.MembershipNumber,
		MemberStatus:                r.MemberStatus,
		QualifyingPoints:            qualifying,
		NonQualifyingPoints:         nonQualifying,
		TotalPoints:                 qualifying.Add(nonQualifying),
		Tier:                        tier,
		EnrollmentDate:              r.EnrollmentDate,
		MemberType:                  r.MemberType,
		CanReceivePromotions:        r.CanReceivePromotions,
		CanReceivePartnerPromotions: r.CanReceivePartnerPromotions,
	}
}

type EnrollmentResponse struct {
	LoyaltyProgramMemberID string `json:"loyaltyProgramMemberId"`
	LoyaltyProgramName     string `json:"loyaltyProgramName"`
	MembershipNumber       string `json:"membershipNumber"`
}

type PointsChangeDTO struct {
	ChangeInPoints        decimal.Decimal `json:"changeInPoints"`
	LoyaltyMemberCurrency string          `json:"loyaltyMemberCurrency"`
}

type TransactionJournalDTO struct {
	TransactionJournalNumber string            `json:"transactionJournalNumber"`
	ActivityDate             string            `json:"activityDate"`
	JournalTypeName          string            `json:"journalTypeName"`
	JournalSubTypeName       string            `json:"journalSubTypeName"`
	PointsChange             []PointsChangeDTO `json:"pointsChange"`
}

// TransactionHistoryResponse serves both the history and the ledger summary
// endpoints; each fills its own count field.
type TransactionHistoryResponse struct {
	TransactionJournals     []TransactionJournalDTO `json:"transactionJournals"`
	TotalCount              int                     `json:"totalCount"`
	TransactionJournalCount int                     `json:"transactionJournalCount"`
}

// TransactionJournal is one journal submitted for realtime execution.
type TransactionJournal struct {
	ActivityDate     string `json:"ActivityDate"`
	JournalTypeID    string `json:"JournalTypeId"`
	JournalSubTypeID string `json:"JournalSubTypeId"`
	MemberID         string `json:"MemberId"`
	Status           string `json:"Status"`
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	InstanceURL      string `json:"instance_url"`
	TokenType        string `json:"token_type"`
	IssuedAt         string `json:"issued_at"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
