package bootstrap

import (
	"cart-service/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.IdempotencyConfig { return cfg.Idempotency },
		func(cfg config.Config) config.ConcurrencyConfig { return cfg.Concurrency },
		func(cfg config.Config) config.PricingConfig { return cfg.Pricing },
	),
)
