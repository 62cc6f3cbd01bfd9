package testhelpers

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/application"
	"github.com/DanielPopoola/ficmart-loyalty-connector/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory stand-in for the Postgres repositories.
// Baskets and Orders return views over the same data. WithTransaction
// serializes callers, refuses a cancelled context like pgxpool.Begin does and
// restores a snapshot when fn fails. The *Fn fields override single methods.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	baskets     map[uuid.UUID]domain.Basket
	instruments map[uuid.UUID]domain.PaymentInstrument
	orders      map[string]domain.Order
	customers   map[string]domain.Customer
	token       string
	program     *domain.ProgramConfig
	orderSeq    int64

	CreatePaymentInstrumentFn func(ctx context.Context, pi *domain.PaymentInstrument) error
	UpdatePaymentInstrumentFn func(ctx context.Context, pi *domain.PaymentInstrument) error
	RemovePaymentInstrumentFn func(ctx context.Context, id uuid.UUID) error
}

type memoryBaskets struct{ s *MemoryStore }

type memoryOrders struct{ s *MemoryStore }

var (
	_ application.BasketRepository   = (*memoryBaskets)(nil)
	_ application.OrderRepository    = (*memoryOrders)(nil)
	_ application.CustomerRepository = (*MemoryStore)(nil)
	_ application.SettingsStore      = (*MemoryStore)(nil)
	_ application.TransactionManager = (*MemoryStore)(nil)
)

func (s *MemoryStore) Baskets() application.BasketRepository { return &memoryBaskets{s: s} }

func (s *MemoryStore) Orders() application.OrderRepository { return &memoryOrders{s: s} }

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		baskets:     make(map[uuid.UUID]domain.Basket),
		instruments: make(map[uuid.UUID]domain.PaymentInstrument),
		orders:      make(map[string]domain.Order),
		customers:   make(map[string]domain.Customer),
	}
}

// SeedCustomer stores an enrolled customer and returns it.
func (s *MemoryStore) SeedCustomer(customerNo, memberID string) *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Customer{
		CustomerNo:      customerNo,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		LoyaltyMemberID: memberID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	s.customers[customerNo] = c
	return &c
}

// SeedBasket stores an open USD basket with the given gross total.
func (s *MemoryStore) SeedBasket(customerNo string, total string) *domain.Basket {
	basket, err := domain.NewBasket(customerNo, "USD", decimal.RequireFromString(total))
	if err != nil {
		panic(err)
	}
	if err := s.Baskets().Create(context.Background(), basket); err != nil {
		panic(err)
	}
	return basket
}

// SetTotal changes a stored basket total, as a cart edit would.
func (s *MemoryStore) SetTotal(id uuid.UUID, total string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.baskets[id]
	b.TotalGrossPrice = decimal.RequireFromString(total)
	s.baskets[id] = b
}

// BasketStatus reports the stored status of a basket.
func (s *MemoryStore) BasketStatus(id uuid.UUID) domain.BasketStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baskets[id].Status
}

// VoucherInstruments counts stored voucher instruments for a basket.
func (s *MemoryStore) VoucherInstruments(basketID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, pi := range s.instruments {
		if pi.BasketID == basketID && pi.Method == domain.PaymentMethodLoyaltyVoucher {
			n++
		}
	}
	return n
}

// ============================================================================
// TransactionManager
// ============================================================================

func (s *MemoryStore) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, baskets application.BasketRepository, orders application.OrderRepository) error,
) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(ctx, s.Baskets(), s.Orders()); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	baskets     map[uuid.UUID]domain.Basket
	instruments map[uuid.UUID]domain.PaymentInstrument
	orders      map[string]domain.Order
	customers   map[string]domain.Customer
}

func (s *MemoryStore) snapshot() memorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	instruments := make(map[uuid.UUID]domain.PaymentInstrument, len(s.instruments))
	for id, pi := range s.instruments {
		instruments[id] = copyInstrument(pi)
	}
	return memorySnapshot{
		baskets:     maps.Clone(s.baskets),
		instruments: instruments,
		orders:      maps.Clone(s.orders),
		customers:   maps.Clone(s.customers),
	}
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baskets = snap.baskets
	s.instruments = snap.instruments
	s.orders = snap.orders
	s.customers = snap.customers
}

// ============================================================================
// BasketRepository
// ============================================================================

func (r *memoryBaskets) Create(ctx context.Context, basket *domain.Basket) error {
	s := r.s
	s.mu.Lock()
	b := *basket
	b.PaymentInstruments = nil
	s.baskets[b.ID] = b
	s.mu.Unlock()

	for _, pi := range basket.PaymentInstruments {
		if err := r.CreatePaymentInstrument(ctx, pi); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryBaskets) FindActiveByCustomer(_ context.Context, customerNo string) (*domain.Basket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.baskets {
		if b.CustomerNo == customerNo && (b.IsOpen() || b.InCheckout()) {
			return s.loadBasket(b), nil
		}
	}
	return nil, domain.ErrBasketNotFound
}

func (r *memoryBaskets) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*domain.Basket, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[id]
	if !ok {
		return nil, domain.ErrBasketNotFound
	}
	return s.loadBasket(b), nil
}

func (r *memoryBaskets) UpdateStatus(_ context.Context, id uuid.UUID, status domain.BasketStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.baskets[id]
	if !ok {
		return domain.ErrBasketNotFound
	}
	b.Status = status
	s.baskets[id] = b
	return nil
}

func (r *memoryBaskets) CreatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error {
	s := r.s
	if s.CreatePaymentInstrumentFn != nil {
		return s.CreatePaymentInstrumentFn(ctx, pi)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pi.Method == domain.PaymentMethodLoyaltyVoucher {
		for _, existing := range s.instruments {
			if existing.BasketID == pi.BasketID && existing.Method == pi.Method {
				return fmt.Errorf("basket %s already holds a %s instrument", pi.BasketID, pi.Method)
			}
		}
	}
	s.instruments[pi.ID] = copyInstrument(*pi)
	return nil
}

func (r *memoryBaskets) UpdatePaymentInstrument(ctx context.Context, pi *domain.PaymentInstrument) error {
	s := r.s
	if s.UpdatePaymentInstrumentFn != nil {
		return s.UpdatePaymentInstrumentFn(ctx, pi)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instruments[pi.ID]; !ok {
		return fmt.Errorf("payment instrument %s not found", pi.ID)
	}
	s.instruments[pi.ID] = copyInstrument(*pi)
	return nil
}

func (r *memoryBaskets) RemovePaymentInstrument(ctx context.Context, id uuid.UUID) error {
	s := r.s
	if s.RemovePaymentInstrumentFn != nil {
		return s.RemovePaymentInstrumentFn(ctx, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instruments[id]; !ok {
		return fmt.Errorf("payment instrument %s not found", id)
	}
	delete(s.instruments, id)
	return nil
}

// loadBasket must be called with mu held.
func (s *MemoryStore) loadBasket(b domain.Basket) *domain.Basket {
	basket := b
	basket.PaymentInstruments = nil
	for _, pi := range s.instruments {
		if pi.BasketID == b.ID {
			c := copyInstrument(pi)
			basket.PaymentInstruments = append(basket.PaymentInstruments, &c)
		}
	}
	return &basket
}

// ============================================================================
// OrderRepository
// ============================================================================

func (r *memoryOrders) NextOrderNo(_ context.Context) (string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderSeq++
	return fmt.Sprintf("%08d", s.orderSeq), nil
}

func (r *memoryOrders) Create(_ context.Context, order *domain.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderNo]; exists {
		return fmt.Errorf("order %s already exists", order.OrderNo)
	}
	o := *order
	o.PaymentInstruments = nil
	s.orders[o.OrderNo] = o

	orderNo := order.OrderNo
	for id, pi := range s.instruments {
		if pi.BasketID == order.BasketID {
			pi.OrderNo = &orderNo
			s.instruments[id] = pi
		}
	}
	for _, pi := range order.PaymentInstruments {
		pi.OrderNo = &orderNo
	}
	return nil
}

func (r *memoryOrders) FindByOrderNo(_ context.Context, orderNo string) (*domain.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderNo]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	order := o
	for _, pi := range s.instruments {
		if pi.OrderNo != nil && *pi.OrderNo == orderNo {
			c := copyInstrument(pi)
			order.PaymentInstruments = append(order.PaymentInstruments, &c)
		}
	}
	return &order, nil
}

func (r *memoryOrders) UpdateStatus(_ context.Context, order *domain.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[order.OrderNo]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = order.Status
	o.UpdatedAt = order.UpdatedAt
	s.orders[order.OrderNo] = o
	return nil
}

func (r *memoryOrders) DetachPaymentInstruments(_ context.Context, orderNo string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pi := range s.instruments {
		if pi.OrderNo != nil && *pi.OrderNo == orderNo {
			pi.OrderNo = nil
			pi.Transaction = domain.PaymentTransaction{}
			s.instruments[id] = pi
		}
	}
	return nil
}

// ============================================================================
// CustomerRepository
// ============================================================================

func (s *MemoryStore) FindByCustomerNo(_ context.Context, customerNo string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerNo]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (s *MemoryStore) SetLoyaltyMemberID(_ context.Context, customerNo, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerNo]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	c.LoyaltyMemberID = memberID
	s.customers[customerNo] = c
	return nil
}

// ============================================================================
// SettingsStore
// ============================================================================

func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) SaveAccessToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) ProgramConfig(_ context.Context) (*domain.ProgramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program, nil
}

func (s *MemoryStore) SaveProgramConfig(_ context.Context, cfg *domain.ProgramConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = cfg
	return nil
}

func copyInstrument(pi domain.PaymentInstrument) domain.PaymentInstrument {
	c := pi
	c.Custom = maps.Clone(pi.Custom)
	if pi.OrderNo != nil {
		orderNo := *pi.OrderNo
		c.OrderNo = &orderNo
	}
	return c
}
