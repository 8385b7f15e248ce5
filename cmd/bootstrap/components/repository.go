package components

import (
	"log/slog"
	"time"

	"parkgate/internal/infra/parkcache"
	"parkgate/internal/infra/repository"
	"parkgate/internal/ledger"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/commands"
	"parkgate/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		repository.NewParkRepository,
		fx.Annotate(
			repository.NewOrderRepository,
			fx.As(new(commands.OrderStore)),
			fx.As(new(queries.OrderReader)),
		),
		fx.Annotate(
			repository.NewSlotRepository,
			fx.As(new(ledger.SlotStore)),
		),
		// Commands read the park row directly so capacity decisions never
		// act on stale config; read queries go through the redis cache.
		func(repo *repository.ParkRepository) commands.ParkStore { return repo },
		fx.Annotate(
			NewCachedParkReader,
			fx.As(new(queries.ParkReader)),
		),
	),
)

func NewCachedParkReader(repo *repository.ParkRepository, client *redis.Client, cfg config.Config, logger *slog.Logger) *parkcache.CachedParkReader {
	ttl := cfg.Redis.ParkTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return parkcache.New(repo, client, ttl, logger)
}
