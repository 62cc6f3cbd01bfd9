package postgres

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
)

type CustomerRepository struct {
	q persistence.Executor
}

var _ application.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db *persistence.DB) *CustomerRepository {
	return &CustomerRepository{q: db.Pool}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (customer_no, first_name, last_name, email, phone, loyalty_member_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		c.CustomerNo,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		nullable(c.LoyaltyMemberID),
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return fmt.Errorf("customer %s already exists: %w", c.CustomerNo, err)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) FindByCustomerNo(ctx context.Context, customerNo string) (*domain.Customer, error) {
	query := `
		SELECT customer_no, first_name, last_name, email, phone, loyalty_member_id, created_at, updated_at
		FROM customers
		WHERE customer_no = $1
	`

	var m CustomerModel
	err := r.q.QueryRow(ctx, query, customerNo).Scan(
		&m.CustomerNo, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.LoyaltyMemberID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if persistence.IsNoRows(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return toDomainCustomer(m), nil
}

func (r *CustomerRepository) SetLoyaltyMemberID(ctx context.Context, customerNo, memberID string) error {
	query := `
		UPDATE customers
		SET loyalty_member_id = $1, updated_at = NOW()
		WHERE customer_no = $2
	`

	tag, err := r.q.Exec(ctx, query, memberID, customerNo)
	if err != nil {
		return fmt.Errorf("failed to store loyalty member id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}
