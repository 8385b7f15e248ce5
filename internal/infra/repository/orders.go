package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"parkgate/internal/domain/order"
	"parkgate/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `
	id, park_id, visit_day, visit_slot, order_type, visitors,
	contact_name, contact_email, contact_phone,
	status, paid, price_cents, entrance_cents,
	enqueued_at, created_at, status_changed_at`

type OrderRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewOrderRepository(pool *pgxpool.Pool, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{pool: pool, logger: logger}
}

func (r *OrderRepository) Load(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load order", err)
	}
	return o, nil
}

// Save upserts the full order row; the engine owns the aggregate, so the
// last write for an order id always carries the latest lifecycle state.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			paid = EXCLUDED.paid,
			status_changed_at = EXCLUDED.status_changed_at`,
		o.ID(), o.ParkID(), o.Slot().Day(), o.Slot().Start(), o.OrderType().String(), o.Visitors(),
		o.Contact().Name(), o.Contact().Email(), o.Contact().Phone(),
		o.Status().String(), o.Paid(), o.PriceCents(), o.EntranceCents(),
		o.EnqueuedAt(), o.CreatedAt(), o.StatusChangedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save order", err)
	}
	return nil
}

func (r *OrderRepository) ListActive(ctx context.Context) ([]*order.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE status NOT IN ('completed', 'cancelled', 'time_passed', 'irrelevant')
		ORDER BY created_at`,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list active orders", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan order row", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate order rows", err)
	}
	return out, nil
}

func (r *OrderRepository) ListByPark(ctx context.Context, parkID uuid.UUID) ([]*order.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+orderColumns+`
		FROM orders
		WHERE park_id = $1
		ORDER BY created_at`,
		parkID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list park orders", err)
	}
	defer rows.Close()

	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan order row", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate order rows", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		id, parkID                 uuid.UUID
		day, slotStart, typ        string
		visitors                   int
		name, email, phone         string
		status                     string
		paid                       bool
		priceCents, entranceCents  int64
		enqueuedAt                 *time.Time
		createdAt, statusChangedAt time.Time
	)
	if err := row.Scan(
		&id, &parkID, &day, &slotStart, &typ, &visitors,
		&name, &email, &phone,
		&status, &paid, &priceCents, &entranceCents,
		&enqueuedAt, &createdAt, &statusChangedAt,
	); err != nil {
		return nil, err
	}

	slot, err := order.NewVisitSlot(parkID, day, slotStart)
	if err != nil {
		return nil, err
	}
	contact, err := order.NewContact(name, email, phone)
	if err != nil {
		return nil, err
	}

	return order.Reconstruct(
		id, slot, order.Type(typ), visitors, contact,
		order.Status(status), paid, priceCents, entranceCents,
		enqueuedAt, createdAt, statusChangedAt,
	), nil
}
