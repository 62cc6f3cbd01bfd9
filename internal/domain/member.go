package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultPhone = "0000000000"

// Customer is the storefront profile of a shopper.
type Customer struct {
	CustomerNo      string
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	LoyaltyMemberID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Customer) IsEnrolled() bool {
	return c.LoyaltyMemberID != ""
}

type AssociatedAccountDetails struct {
	Name                  string `json:"name"`
	Phone                 string `json:"phone"`
	Website               string `json:"website"`
	AllowDuplicateRecords string `json:"allowDuplicateRecords"`
}

// EnrollmentPayload is the provider's individual member enrollment body.
type EnrollmentPayload struct {
	EnrollmentDate            string                   `json:"enrollmentDate"`
	MembershipNumber          string                   `json:"membershipNumber"`
	AssociatedAccountDetails  AssociatedAccountDetails `json:"associatedAccountDetails"`
	MemberStatus              string                   `json:"memberStatus"`
	CreateTransactionJournals string                   `json:"createTransactionJournals"`
}

// NewEnrollmentPayload requires first and last name; the phone falls back to a placeholder.
func NewEnrollmentPayload(c *Customer, website string, now time.Time) (EnrollmentPayload, error) {
	if c.FirstName == "" || c.LastName == "" {
		return EnrollmentPayload{}, &DomainError{
			Code:    ErrCodeMissingRequiredField,
			Message: "first name and last name are required to enroll a loyalty member",
		}
	}

	phone := c.Phone
	if phone == "" {
		phone = defaultPhone
	}

	return EnrollmentPayload{
		EnrollmentDate:   now.UTC().Format(time.RFC3339),
		MembershipNumber: c.CustomerNo,
		AssociatedAccountDetails: AssociatedAccountDetails{
			Name:                  strings.TrimSpace(c.FirstName + " " + c.LastName),
			Phone:                 phone,
			Website:               website,
			AllowDuplicateRecords: "false",
		},
		MemberStatus:              "Active",
		CreateTransactionJournals: "true",
	}, nil
}

// MemberProfile is the member summary shown on the account dashboard.
type MemberProfile struct {
	ID                          string          `json:"id"`
	ProgramName                 string          `json:"programName"`
	MembershipNumber            string          `json:"membershipNumber"`
	MemberStatus                string          `json:"memberStatus"`
	QualifyingPoints            decimal.Decimal `json:"qualifyingPoints"`
	NonQualifyingPoints         decimal.Decimal `json:"nonQualifyingPoints"`
	TotalPoints                 decimal.Decimal `json:"totalPoints"`
	Tier                        string          `json:"tier"`
	EnrollmentDate              string          `json:"enrollmentDate"`
	MemberType                  string          `json:"memberType"`
	CanReceivePromotions        bool            `json:"canReceivePromotions"`
	CanReceivePartnerPromotions bool            `json:"canReceivePartnerPromotions"`
}

// Points redemption rules.
const (
	MinRedeemablePoints = 1000
	PointsPerUnit       = 100
)

// PointsToVoucherValue converts points into a whole-unit voucher face value.
func PointsToVoucherValue(points int64) (decimal.Decimal, error) {
	if points < MinRedeemablePoints {
		return decimal.Zero, NewInvalidAmountError("minimum 1000 points required for voucher redemption")
	}
	return decimal.NewFromInt(points / PointsPerUnit), nil
}
