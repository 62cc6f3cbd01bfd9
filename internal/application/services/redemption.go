package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/shopspring/decimal"
)

// PointsRedemption describes a voucher issued in exchange for points.
type PointsRedemption struct {
	VoucherCode    string          `json:"voucherCode"`
	VoucherValue   decimal.Decimal `json:"voucherValue"`
	ExpirationDate string          `json:"expirationDate"`
	PointsRedeemed int64           `json:"pointsRedeemed"`
}

// RedemptionService converts loyalty points into a new voucher.
type RedemptionService struct {
	customers application.CustomerRepository
	gateway   application.LoyaltyGateway
	logger    *slog.Logger
	now       func() time.Time
}

func NewRedemptionService(customers application.CustomerRepository, gateway application.LoyaltyGateway, logger *slog.Logger) *RedemptionService {
	return &RedemptionService{
		customers: customers,
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RedemptionService) WithClock(now func() time.Time) *RedemptionService {
	s.now = now
	return s
}

// RedeemPoints issues a voucher worth one currency unit per hundred points.
// The code is VOUCHER followed by the last six digits of the current unix
// milliseconds and the voucher expires one year from today.
func (s *RedemptionService) RedeemPoints(ctx context.Context, customerNo string, points int64) (*PointsRedemption, error) {
	value, err := domain.PointsToVoucherValue(points)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByCustomerNo(ctx, customerNo)
	if err != nil {
		return nil, err
	}
	if !customer.IsEnrolled() {
		return nil, domain.ErrNotEnrolled
	}

	now := s.now()
	redemption := &PointsRedemption{
		VoucherCode:    fmt.Sprintf("VOUCHER%06d", now.UnixMilli()%1_000_000),
		VoucherValue:   value,
		ExpirationDate: now.AddDate(1, 0, 0).UTC().Format(time.DateOnly),
		PointsRedeemed: points,
	}

	result := s.gateway.IssueVoucher(ctx, application.IssueVoucherRequest{
		MemberID:              customer.LoyaltyMemberID,
		VoucherCode:           redemption.VoucherCode,
		VoucherFaceValue:      value,
		VoucherExpirationDate: redemption.ExpirationDate,
	})
	if !result.OK {
		s.logger.Error("voucher redemption failed",
			"customer_no", customerNo,
			"points", points,
			"error", result.ErrorMessage,
		)
		return nil, application.NewUpstreamError(application.MsgRedemptionFailed, errors.New(result.ErrorMessage))
	}

	s.logger.Info("points redeemed for voucher",
		"customer_no", customerNo,
		"voucher_code", redemption.VoucherCode,
		"voucher_value", value.String(),
	)

	return redemption, nil
}
