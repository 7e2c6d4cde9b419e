package components

import (
	"context"

	"cart-service/internal/domain/delivery"
	"cart-service/internal/pkg/clock"
	"cart-service/internal/pkg/config"
	"cart-service/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewDeliveryEngine,
		usecase.NewIdempotencyCoordinator,
		usecase.NewPreconditionGuard,
		usecase.NewCartUseCase,
	),
	fx.Invoke(StartSweeper),
)

func NewDeliveryEngine(cfg config.PricingConfig) (*delivery.Engine, error) {
	engine := delivery.NewEngine()
	strategies := []delivery.Strategy{
		delivery.NewCourier(cfg.DefaultFreeThresholdCents),
		delivery.NewPickupPoint(cfg.DefaultFreeThresholdCents, cfg.PickupSurchargeCents),
	}
	for _, s := range strategies {
		if err := engine.Register(s); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func StartSweeper(lc fx.Lifecycle, coordinator *usecase.IdempotencyCoordinator, cfg config.IdempotencyConfig) {
	sweeper := usecase.NewIdempotencySweeper(coordinator, cfg.SweepInterval)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			sweeper.Stop()
			return nil
		},
	})
}
