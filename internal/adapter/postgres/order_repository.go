package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

const createdBy = "order-api"

type orderRepository struct {
	db  DB
	now func() time.Time
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return inTx(ctx, r.db, func(tx Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO orders (number, full_name, size, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, order.Number, order.FullName, order.Size, order.Status, order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i, id := range order.Toppings {
			_, err = tx.Exec(ctx,
				`INSERT INTO order_toppings (order_id, topping_id, position) VALUES ($1, $2, $3)`,
				order.ID, id, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order topping: %w", err)
			}
		}

		return logStatus(ctx, tx, order.ID, order.Status, createdBy, order.CreatedAt)
	})
}

func (r *orderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `
		SELECT id, number, full_name, size, status, processed_by, created_at, updated_at, completed_at
		FROM orders
		WHERE number = $1
	`

	var order domain.Order
	err := r.db.QueryRow(ctx, query, number).Scan(
		&order.ID, &order.Number, &order.FullName, &order.Size, &order.Status,
		&order.ProcessedBy, &order.CreatedAt, &order.UpdatedAt, &order.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT topping_id FROM order_toppings WHERE order_id = $1 ORDER BY position`, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order toppings: %w", err)
	}
	defer rows.Close()

	order.Toppings = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan order topping: %w", err)
		}
		order.Toppings = append(order.Toppings, id)
	}

	return &order, nil
}

// UpdateStatusWithLog stores the order's new status and appends the matching
// log entry in one transaction.
func (r *orderRepository) UpdateStatusWithLog(ctx context.Context, order *domain.Order, changedBy string) error {
	return inTx(ctx, r.db, func(tx Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = $1, processed_by = $2, updated_at = $3, completed_at = $4
			WHERE id = $5
		`, order.Status, order.ProcessedBy, order.UpdatedAt, order.CompletedAt, order.ID)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.Number)
		}
		return logStatus(ctx, tx, order.ID, order.Status, changedBy, order.UpdatedAt)
	})
}

// Delete drops the order row; toppings and the status log go with it.
func (r *orderRepository) Delete(ctx context.Context, number string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE number = $1`, number)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, number)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, nil
}

// GenerateOrderNumber reserves the next ORD_YYYYMMDD_NNN number of the UTC day.
// The per-day counter row is bumped atomically, so concurrent callers never
// receive the same number.
func (r *orderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	now := r.now()

	query := `
		INSERT INTO order_number_counters (day, last) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last = order_number_counters.last + 1
		RETURNING last
	`

	var seq int
	if err := r.db.QueryRow(ctx, query, now.Format("2006-01-02")).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to reserve order number: %w", err)
	}

	return fmt.Sprintf("ORD_%s_%03d", now.Format("20060102"), seq), nil
}

func logStatus(ctx context.Context, tx Querier, orderID int, status domain.Status, changedBy string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`, orderID, status, changedBy, at)
	if err != nil {
		return fmt.Errorf("failed to log status: %w", err)
	}
	return nil
}
