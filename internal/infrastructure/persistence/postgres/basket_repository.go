package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentInstrumentNotFound = errors.New("payment instrument not found")

const basketColumns = `id, customer_no, currency, total_gross_price, status, created_at, updated_at`

const instrumentColumns = `
	id, basket_id, order_no, method, amount, currency, custom,
	transaction_id, transaction_type, payment_processor, created_at`

type BasketRepository struct {
	q persistence.Executor
}

var _ application.BasketRepository = (*BasketRepository)(nil)

func NewBasketRepository(db *persistence.DB) *BasketRepository {
	return &BasketRepository{q: db.Pool}
}

func (r *BasketRepository) Create(ctx context.Context, basket *domain.Basket) error {
	query := `
		INSERT INTO baskets (` + basketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.Exec(ctx, query,
		basket.ID,
		basket.CustomerNo,
		basket.Currency,
		basket.TotalGrossPrice,
		string(basket.Status),
		basket.CreatedAt,
		basket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create basket: %w", err)
	}

	for _, pi := range basket.PaymentInstruments {
		if err := r.CreatePaymentInstrument(ctx, pi); err != nil {
			return err
		}
	}

	return nil
}

// FindActiveByCustomer returns the customer's open or in-checkout basket with
// its payment instruments.
func (r *BasketRepository) FindActiveByCustomer(ctx context.Context, customerNo string) (*domain.Basket, error) {
	query := `
		SELECT ` + basketColumns + `
		FROM baskets
		WHERE customer_no = $1 AND status IN ('OPEN', 'CHECKOUT')
	`

	m, err := scanBasket(r.q.QueryRow(ctx, query, customerNo))
	if err != nil {
		return nil, err
	}
	return r.withInstruments(ctx, m)
}

// FindByIDForUpdate retrieves a basket with a row-level lock. Only meaningful
// inside a transaction.
func (r *BasketRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Basket, error) {
	query := `
		SELECT ` + basketColumns + `
		FROM baskets
		WHERE id = $1
		FOR UPDATE
	`

	m, err := scanBasket(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return r.withInstruments(ctx, m)
}

func (r *BasketRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BasketStatus) error {
	query := `
		UPDATE baskets
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := r.q.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update basket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBasketNotFound
	}
	return nil
}

func (r *BasketRepository) CreatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error {
	query := `
		INSERT INTO payment_instruments (` + instrumentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	m := toInstrumentModel(pi)
	_, err := r.q.Exec(ctx, query,
		m.ID,
		m.BasketID,
		m.OrderNo,
		m.Method,
		m.Amount,
		m.Currency,
		m.Custom,
		m.TransactionID,
		m.TransactionType,
		m.PaymentProcessor,
		m.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return fmt.Errorf("basket %s already holds a %s instrument: %w", pi.BasketID, pi.Method, err)
		}
		return fmt.Errorf("failed to create payment instrument: %w", err)
	}
	return nil
}

// UpdatePaymentInstrument persists amount, custom attributes, order link and transaction.
func (r *BasketRepository) UpdatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error {
	query := `
		UPDATE payment_instruments
		SET order_no = $1, amount = $2, currency = $3, custom = $4,
			transaction_id = $5, transaction_type = $6, payment_processor = $7
		WHERE id = $8
	`

	m := toInstrumentModel(pi)
	tag, err := r.q.Exec(ctx, query,
		m.OrderNo,
		m.Amount,
		m.Currency,
		m.Custom,
		m.TransactionID,
		m.TransactionType,
		m.PaymentProcessor,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment instrument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentInstrumentNotFound
	}
	return nil
}

func (r *BasketRepository) RemovePaymentInstrument(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM payment_instruments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove payment instrument: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentInstrumentNotFound
	}
	return nil
}

func (r *BasketRepository) withInstruments(ctx context.Context, m BasketModel) (*domain.Basket, error) {
	query := `
		SELECT ` + instrumentColumns + `
		FROM payment_instruments
		WHERE basket_id = $1
		ORDER BY created_at ASC
	`

	instruments, err := queryInstruments(ctx, r.q, query, m.ID)
	if err != nil {
		return nil, err
	}
	return toDomainBasket(m, instruments), nil
}

// scanBasket returns domain.ErrBasketNotFound if the row doesn't exist.
func scanBasket(row pgx.Row) (BasketModel, error) {
	var m BasketModel
	err := row.Scan(&m.ID, &m.CustomerNo, &m.Currency, &m.TotalGrossPrice, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if persistence.IsNoRows(err) {
			return m, domain.ErrBasketNotFound
		}
		return m, fmt.Errorf("failed to scan basket: %w", err)
	}
	return m, nil
}

func queryInstruments(ctx context.Context, q persistence.Executor, query string, args ...any) ([]*domain.PaymentInstrument, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payment instruments: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentInstrument, error) {
		var m PaymentInstrumentModel
		err := row.Scan(
			&m.ID, &m.BasketID, &m.OrderNo, &m.Method, &m.Amount, &m.Currency, &m.Custom,
			&m.TransactionID, &m.TransactionType, &m.PaymentProcessor, &m.CreatedAt,
		)
		return toDomainInstrument(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payment instruments: %w", err)
	}
	return results, nil
}
