package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
)

const journalSubtypeNewsletterSignup = "Newsletter Signup"

// NewsletterService credits loyalty members for subscribing to the newsletter.
type NewsletterService struct {
	customers application.CustomerRepository
	settings  application.SettingsStore
	gateway   application.LoyaltyGateway
	logger    *slog.Logger
	now       func() time.Time
}

func NewNewsletterService(
	customers application.CustomerRepository,
	settings application.SettingsStore,
	gateway application.LoyaltyGateway,
	logger *slog.Logger,
) *NewsletterService {
	return &NewsletterService{
		customers: customers,
		settings:  settings,
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordSignup submits a pending accrual journal for the signup. The
// subscription itself never fails because of the loyalty program, so every
// problem here is only logged.
func (s *NewsletterService) RecordSignup(ctx context.Context, customerNo string) {
	customer, err := s.customers.FindByCustomerNo(ctx, customerNo)
	if err != nil {
		s.logger.Error("newsletter accrual skipped: customer lookup failed", "customer_no", customerNo, "error", err)
		return
	}
	if !customer.IsEnrolled() {
		s.logger.Debug("newsletter accrual skipped: customer not enrolled", "customer_no", customerNo)
		return
	}

	program, err := s.settings.ProgramConfig(ctx)
	if err != nil || program == nil {
		s.logger.Warn("newsletter accrual skipped: program configuration not synced", "error", err)
		return
	}

	journalTypeID, _ := program.FindID(domain.ObjectJournalType, journalTypeAccrual)
	journalSubtypeID, _ := program.FindID(domain.ObjectJournalSubtype, journalSubtypeNewsletterSignup)

	result := s.gateway.ExecuteTransactionJournals(ctx, []application.TransactionJournal{{
		ActivityDate:     s.now().UTC().Format(time.RFC3339),
		JournalTypeID:    journalTypeID,
		JournalSubTypeID: journalSubtypeID,
		MemberID:         customer.LoyaltyMemberID,
		Status:           "Pending",
	}})
	if !result.OK {
		s.logger.Error("newsletter accrual journal failed",
			"customer_no", customerNo,
			"status", result.StatusCode,
			"error", result.ErrorMessage,
		)
		return
	}

	s.logger.Info("newsletter accrual journal submitted", "customer_no", customerNo)
}
