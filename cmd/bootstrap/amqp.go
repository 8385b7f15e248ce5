package bootstrap

import (
	"context"
	"log/slog"

	"parkgate/internal/infra/notify"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/commands"

	"go.uber.org/fx"
)

var AMQPModule = fx.Module("amqp",
	fx.Provide(
		fx.Annotate(
			NewAMQPNotifier,
			fx.As(new(commands.Notifier)),
		),
	),
)

func NewAMQPNotifier(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*notify.AMQPNotifier, error) {
	notifier, cleanup, err := notify.Connect(cfg.AMQP, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return notifier, nil
}
