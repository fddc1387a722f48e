// Package memory keeps orders in process memory. Used by standalone runs and
// tests in place of PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

const createdBy = "order-api"

type OrderRepository struct {
	mu      sync.RWMutex
	nextID  int
	nextLog int
	orders  map[string]*domain.Order
	history map[int][]*domain.StatusLog
	perDay  map[string]int
	clock   func() time.Time
}

var _ interfaces.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*domain.Order),
		history: make(map[int][]*domain.StatusLog),
		perDay:  make(map[string]int),
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.Number == "" {
		return fmt.Errorf("order repository: number is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.Number]; exists {
		return fmt.Errorf("order repository: order %s already exists", order.Number)
	}

	r.nextID++
	order.ID = r.nextID
	r.orders[order.Number] = order.Clone()
	r.appendLogLocked(order.ID, order.Status, createdBy)
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, number string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[number]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	delete(r.orders, number)
	delete(r.history, order.ID)
	return nil
}

func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	return order.Clone(), nil
}

// GenerateOrderNumber hands out ORD_YYYYMMDD_NNN numbers counted per UTC day.
// Numbers are reserved on issue, so two concurrent orders never share one.
func (r *OrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	day := r.clock().Format("20060102")
	r.perDay[day]++
	return fmt.Sprintf("ORD_%s_%03d", day, r.perDay[day]), nil
}

func (r *OrderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, changedBy string) error {
	_ = ctx
	if order == nil {
		return fmt.Errorf("order repository: order is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.Number]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.Number)
	}
	r.orders[order.Number] = order.Clone()
	r.appendLogLocked(order.ID, order.Status, changedBy)
	return nil
}

func (r *OrderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := r.history[orderID]
	out := make([]*domain.StatusLog, len(logs))
	for i, l := range logs {
		cp := *l
		out[i] = &cp
	}
	return out, nil
}

func (r *OrderRepository) appendLogLocked(orderID int, status domain.Status, changedBy string) {
	r.nextLog++
	r.history[orderID] = append(r.history[orderID], &domain.StatusLog{
		ID:        r.nextLog,
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: r.clock(),
	})
}
