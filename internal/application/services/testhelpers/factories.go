package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateCustomer stores an enrolled customer with a random membership number.
func CreateCustomer(t *testing.T, ctx context.Context, db *persistence.DB) *domain.Customer {
	now := time.Now()
	c := &domain.Customer{
		CustomerNo:      "cust-" + uuid.New().String()[:8],
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		Phone:           "5550100",
		LoyaltyMemberID: "0lM" + uuid.New().String()[:8],
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, postgres.NewCustomerRepository(db).Create(ctx, c))
	return c
}

// CreateBasket stores an open USD basket with the given gross total.
func CreateBasket(t *testing.T, ctx context.Context, db *persistence.DB, customerNo string, total int64) *domain.Basket {
	basket, err := domain.NewBasket(customerNo, "USD", decimal.NewFromInt(total))
	require.NoError(t, err)
	require.NoError(t, postgres.NewBasketRepository(db).Create(ctx, basket))
	return basket
}

// VoucherJSON renders one voucher listing entry in the provider's format.
func VoucherJSON(id, code string, faceValue int, status string, expiration string, definitionActive bool) string {
	exp := "null"
	if expiration != "" {
		exp = `"` + expiration + `"`
	}
	return `{
		"voucherId": "` + id + `",
		"voucherCode": "` + code + `",
		"faceValue": ` + decimal.NewFromInt(int64(faceValue)).String() + `,
		"remainingValue": ` + decimal.NewFromInt(int64(faceValue)).String() + `,
		"status": "` + status + `",
		"expirationDate": ` + exp + `,
		"isVoucherDefinitionActive": ` + boolString(definitionActive) + `
	}`
}

// VouchersBody wraps entries into a voucher listing response.
func VouchersBody(entries ...string) []byte {
	body := `{"vouchers": [`
	for i, e := range entries {
		if i > 0 {
			body += ","
		}
		body += e
	}
	return []byte(body + `]}`)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
