package postgres

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/infrastructure/persistence"
)

type OrderRepository struct {
	q persistence.Executor
}

var _ application.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *persistence.DB) *OrderRepository {
	return &OrderRepository{q: db.Pool}
}

// NextOrderNo draws from order_no_seq and zero-pads to eight digits.
func (r *OrderRepository) NextOrderNo(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('order_no_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return fmt.Sprintf("%08d", n), nil
}

// Create inserts the order and links every instrument of its basket to it.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (order_no, basket_id, customer_no, total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		order.OrderNo,
		order.BasketID,
		order.CustomerNo,
		order.Total.Amount,
		order.Total.Currency,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return fmt.Errorf("order %s already exists: %w", order.OrderNo, err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	_, err = r.q.Exec(ctx,
		`UPDATE payment_instruments SET order_no = $1 WHERE basket_id = $2`,
		order.OrderNo, order.BasketID,
	)
	if err != nil {
		return fmt.Errorf("failed to link payment instruments to order: %w", err)
	}

	orderNo := order.OrderNo
	for _, pi := range order.PaymentInstruments {
		pi.OrderNo = &orderNo
	}

	return nil
}

func (r *OrderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	query := `
		SELECT order_no, basket_id, customer_no, total, currency, status, created_at, updated_at
		FROM orders
		WHERE order_no = $1
	`

	var m OrderModel
	err := r.q.QueryRow(ctx, query, orderNo).Scan(
		&m.OrderNo, &m.BasketID, &m.CustomerNo, &m.Total, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if persistence.IsNoRows(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	instruments, err := queryInstruments(ctx, r.q, `
		SELECT `+instrumentColumns+`
		FROM payment_instruments
		WHERE order_no = $1
		ORDER BY created_at ASC
	`, orderNo)
	if err != nil {
		return nil, err
	}

	return toDomainOrder(m, instruments), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE order_no = $3
	`

	tag, err := r.q.Exec(ctx, query, string(order.Status), order.UpdatedAt, order.OrderNo)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// DetachPaymentInstruments returns a failed order's instruments to its basket.
// Recorded transactions are cleared with the link.
func (r *OrderRepository) DetachPaymentInstruments(ctx context.Context, orderNo string) error {
	query := `
		UPDATE payment_instruments
		SET order_no = NULL, transaction_id = NULL, transaction_type = NULL, payment_processor = NULL
		WHERE order_no = $1
	`

	if _, err := r.q.Exec(ctx, query, orderNo); err != nil {
		return fmt.Errorf("failed to detach payment instruments from order %s: %w", orderNo, err)
	}
	return nil
}
