package bootstrap

import (
	"parkgate/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	AMQPModule,
	RedisModule,
	components.RepositoryModule,
	components.EngineModule,
	components.HandlerModule,
)
