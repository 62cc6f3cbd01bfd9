package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/config"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

const journalTypeAccrual = "Accrual"

// MemberService enrolls customers and assembles the loyalty dashboard.
type MemberService struct {
	customers application.CustomerRepository
	gateway   application.LoyaltyGateway
	cfg       config.LoyaltyConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewMemberService(
	customers application.CustomerRepository,
	gateway application.LoyaltyGateway,
	cfg config.LoyaltyConfig,
	logger *slog.Logger,
) *MemberService {
	return &MemberService{
		customers: customers,
		gateway:   gateway,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Enroll registers the customer with the loyalty program and stores the
// returned member id on the customer profile.
func (s *MemberService) Enroll(ctx context.Context, customerNo string) (*domain.MemberProfile, error) {
	customer, err := s.customers.FindByCustomerNo(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	if customer.IsEnrolled() {
		return nil, application.NewBusinessRuleError("Customer is already enrolled in the loyalty program.")
	}

	payload, err := domain.NewEnrollmentPayload(customer, s.cfg.Website(), s.now())
	if err != nil {
		s.logger.Error("enrollment payload validation failed", "customer_no", customerNo, "error", err)
		return nil, err
	}

	result := s.gateway.EnrollMember(ctx, payload)
	if !result.OK {
		return nil, application.NewUpstreamError("Loyalty enrollment failed. Please try again later.", errors.New(result.ErrorMessage))
	}

	var resp application.EnrollmentResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, application.NewInternalError(fmt.Errorf("decode enrollment response: %w", err))
	}
	if resp.LoyaltyProgramMemberID == "" {
		return nil, application.NewUpstreamError("Loyalty enrollment failed. Please try again later.",
			errors.New("enrollment response did not contain a member id"))
	}

	if err := s.customers.SetLoyaltyMemberID(ctx, customerNo, resp.LoyaltyProgramMemberID); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("customer enrolled in loyalty program",
		"customer_no", customerNo,
		"member_id", resp.LoyaltyProgramMemberID,
	)

	profile, err := s.profile(ctx, resp.LoyaltyProgramMemberID, customerNo)
	if err != nil {
		s.logger.Warn("member profile unavailable after enrollment", "customer_no", customerNo, "error", err)
		return &domain.MemberProfile{
			ID:               resp.LoyaltyProgramMemberID,
			ProgramName:      resp.LoyaltyProgramName,
			MembershipNumber: customerNo,
			MemberStatus:     payload.MemberStatus,
			EnrollmentDate:   payload.EnrollmentDate,
		}, nil
	}
	return profile, nil
}

// VoucherSummary is a dashboard voucher row.
type VoucherSummary struct {
	application.VoucherData
	StatusBadge string `json:"statusBadge"`
}

type Dashboard struct {
	Profile                  domain.MemberProfile                `json:"profile"`
	TransactionHistory       []application.TransactionJournalDTO `json:"transactionHistory"`
	TransactionHistoryTotal  int                                 `json:"transactionHistoryTotal"`
	TransactionLedgerSummary []application.TransactionJournalDTO `json:"transactionLedgerSummary"`
	TransactionLedgerCount   int                                 `json:"transactionLedgerCount"`
	Vouchers                 []VoucherSummary                    `json:"vouchers"`
}

// Dashboard needs the member profile; history, ledger and vouchers degrade to
// empty lists when their calls fail.
func (s *MemberService) Dashboard(ctx context.Context, customerNo string) (*Dashboard, error) {
	customer, err := s.customers.FindByCustomerNo(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	if !customer.IsEnrolled() {
		return nil, domain.ErrNotEnrolled
	}

	profile, err := s.profile(ctx, customer.LoyaltyMemberID, customerNo)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Profile:                  *profile,
		TransactionHistory:       []application.TransactionJournalDTO{},
		TransactionLedgerSummary: []application.TransactionJournalDTO{},
		Vouchers:                 []VoucherSummary{},
	}

	if history, ok := s.journals(s.gateway.GetTransactionHistory(ctx, customerNo, journalTypeAccrual), "transaction history"); ok {
		dashboard.TransactionHistory = history.TransactionJournals
		dashboard.TransactionHistoryTotal = history.TotalCount
	}

	if ledger, ok := s.journals(s.gateway.GetTransactionLedgerSummary(ctx, customerNo), "ledger summary"); ok {
		dashboard.TransactionLedgerSummary = ledger.TransactionJournals
		dashboard.TransactionLedgerCount = ledger.TransactionJournalCount
	}

	vouchersResult := s.gateway.GetVouchers(ctx, customerNo)
	if vouchersResult.OK {
		vouchers, err := application.DecodeVouchers(vouchersResult.Body)
		if err != nil {
			s.logger.Error("failed to parse voucher listing", "customer_no", customerNo, "error", err)
		}
		now := s.now()
		for _, v := range vouchers {
			dashboard.Vouchers = append(dashboard.Vouchers, VoucherSummary{
				VoucherData: *application.NewVoucherData(v, now),
				StatusBadge: v.StatusBadge(),
			})
		}
	} else {
		s.logger.Error("voucher listing failed", "customer_no", customerNo, "error", vouchersResult.ErrorMessage)
	}

	return dashboard, nil
}

func (s *MemberService) profile(ctx context.Context, memberID, membershipNumber string) (*domain.MemberProfile, error) {
	result := s.gateway.GetMemberProfile(ctx, memberID, membershipNumber)
	if !result.OK {
		return nil, application.NewUpstreamError("Loyalty information is unavailable right now.", errors.New(result.ErrorMessage))
	}

	var resp application.MemberProfileResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		return nil, application.NewInternalError(fmt.Errorf("decode member profile: %w", err))
	}

	profile := resp.ToDomain(s.cfg.QualifyingCurrency(), s.cfg.NonQualifyingCurrency())
	if profile.ProgramName == "" {
		profile.ProgramName = s.cfg.ProgramName
	}
	return &profile, nil
}

func (s *MemberService) journals(result application.ServiceResult, what string) (*application.TransactionHistoryResponse, bool) {
	if !result.OK {
		s.logger.Error("loyalty call failed", "call", what, "error", result.ErrorMessage)
		return nil, false
	}

	var resp application.TransactionHistoryResponse
	if err := json.Unmarshal(result.Body, &resp); err != nil {
		s.logger.Error("failed to parse loyalty response", "call", what, "error", err)
		return nil, false
	}
	if resp.TransactionJournals == nil {
		resp.TransactionJournals = []application.TransactionJournalDTO{}
	}
	return &resp, true
}
