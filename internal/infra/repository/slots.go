package repository

import (
	"context"
	"errors"
	"log/slog"

	"parkgate/internal/domain/order"
	"parkgate/internal/domain/park"
	"parkgate/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSlotRepository(pool *pgxpool.Pool, logger *slog.Logger) *SlotRepository {
	return &SlotRepository{pool: pool, logger: logger}
}

func (r *SlotRepository) LoadSlot(ctx context.Context, slot order.VisitSlot) (*park.CapacitySlot, error) {
	var (
		maxCapacity, reservedFloor int
		reserved, occupied         int
	)
	err := r.pool.QueryRow(ctx, `
		SELECT max_capacity, reserved_floor, current_reserved, current_occupied
		FROM capacity_slots
		WHERE park_id = $1 AND visit_day = $2 AND visit_slot = $3`,
		slot.ParkID(), slot.Day(), slot.Start(),
	).Scan(&maxCapacity, &reservedFloor, &reserved, &occupied)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "capacity slot not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load capacity slot", err)
	}

	return park.ReconstructCapacitySlot(slot, maxCapacity, reservedFloor, reserved, occupied), nil
}

func (r *SlotRepository) SaveSlot(ctx context.Context, s *park.CapacitySlot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO capacity_slots (park_id, visit_day, visit_slot, max_capacity, reserved_floor, current_reserved, current_occupied)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (park_id, visit_day, visit_slot) DO UPDATE SET
			current_reserved = EXCLUDED.current_reserved,
			current_occupied = EXCLUDED.current_occupied`,
		s.Slot().ParkID(), s.Slot().Day(), s.Slot().Start(),
		s.MaxCapacity(), s.ReservedFloor(), s.Reserved(), s.Occupied(),
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to save capacity slot", err)
	}
	return nil
}
