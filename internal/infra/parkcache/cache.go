// Package parkcache puts a redis read-through cache in front of park
// configuration lookups. Park rows change rarely and every availability
// query needs one, so a short TTL removes most of the read load.
package parkcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"parkgate/internal/domain/park"
	"parkgate/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type cachedPark struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	BasePriceCents int64     `json:"base_price_cents"`
	MaxCapacity    int       `json:"max_capacity"`
	ReservedFloor  int       `json:"reserved_floor"`
	Available      bool      `json:"available"`
}

type CachedParkReader struct {
	source queries.ParkReader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(source queries.ParkReader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedParkReader {
	return &CachedParkReader{source: source, client: client, ttl: ttl, logger: logger}
}

func (c *CachedParkReader) FindByID(ctx context.Context, id uuid.UUID) (*park.Park, error) {
	key := "park:" + id.String()

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cp cachedPark
		if err := json.Unmarshal(raw, &cp); err == nil {
			return park.NewPark(cp.ID, cp.Name, cp.BasePriceCents, cp.MaxCapacity, cp.ReservedFloor, cp.Available)
		}
	} else if err != redis.Nil {
		// Cache outage degrades to direct reads.
		c.logger.Warn("park cache read failed", slog.String("error", err.Error()))
	}

	p, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cachedPark{
		ID:             p.ID(),
		Name:           p.Name(),
		BasePriceCents: p.BasePriceCents(),
		MaxCapacity:    p.MaxCapacity(),
		ReservedFloor:  p.ReservedFloor(),
		Available:      p.Available(),
	})
	if err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("park cache write failed", slog.String("error", err.Error()))
		}
	}
	return p, nil
}
