package components

import (
	"context"
	"log/slog"
	"time"

	"parkgate/internal/deadline"
	"parkgate/internal/ledger"
	"parkgate/internal/pkg/clock"
	"parkgate/internal/pkg/config"
	"parkgate/internal/usecase/commands"
	"parkgate/internal/usecase/queries"
	"parkgate/internal/waitlist"

	"go.uber.org/fx"
)

var EngineModule = fx.Module("engine",
	fx.Provide(
		clock.NewRealClock,
		ledger.New,
		NewWaitlist,
		NewEngine,
		NewScheduler,
		func(e *commands.Engine) commands.OrderCommands { return e },
		queries.NewOrderQueries,
	),
	fx.Invoke(startEngine),
)

func NewWaitlist(cfg config.Config) *waitlist.Manager {
	return waitlist.New(cfg.Engine.WaitlistStrictFIFO)
}

func NewEngine(
	orders commands.OrderStore,
	parks commands.ParkStore,
	led *ledger.Ledger,
	wl *waitlist.Manager,
	notifier commands.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	cfg config.Config,
) *commands.Engine {
	return commands.NewEngine(orders, parks, led, wl, notifier, clk, logger, cfg.Engine)
}

func NewScheduler(clk clock.Clock, engine *commands.Engine, logger *slog.Logger, cfg config.Config) *deadline.Scheduler {
	return deadline.New(clk, engine, logger, cfg.Engine.RetryBase, cfg.Engine.RetryMax)
}

// startEngine closes the engine/ledger/scheduler cycle and runs the
// background loops: the deadline scheduler and the day-rollover sweep
// that zeroes counters of past slots.
func startEngine(lc fx.Lifecycle, engine *commands.Engine, led *ledger.Ledger, sched *deadline.Scheduler, logger *slog.Logger) {
	engine.SetScheduler(sched)
	led.SetPromoter(engine)

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := engine.Restore(ctx); err != nil {
				cancel()
				return err
			}

			go sched.Run(runCtx)

			go func() {
				ticker := time.NewTicker(time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						led.ZeroPastSlots(runCtx)
					}
				}
			}()

			logger.Info("engine started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			logger.Info("engine stopped")
			return nil
		},
	})
}
