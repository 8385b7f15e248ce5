package repository

import (
	"context"
	"errors"
	"log/slog"

	"parkgate/internal/domain/park"
	"parkgate/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParkRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewParkRepository(pool *pgxpool.Pool, logger *slog.Logger) *ParkRepository {
	return &ParkRepository{pool: pool, logger: logger}
}

func (r *ParkRepository) FindByID(ctx context.Context, id uuid.UUID) (*park.Park, error) {
	var (
		name                       string
		basePriceCents             int64
		maxCapacity, reservedFloor int
		available                  bool
	)
	err := r.pool.QueryRow(ctx, `
		SELECT name, base_price_cents, max_capacity, reserved_floor, available
		FROM parks
		WHERE id = $1`,
		id,
	).Scan(&name, &basePriceCents, &maxCapacity, &reservedFloor, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "park not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to load park", err)
	}

	return park.NewPark(id, name, basePriceCents, maxCapacity, reservedFloor, available)
}
