package components

import (
	"cart-service/internal/infra/db"
	"cart-service/internal/infra/quotecache"
	repo_impl "cart-service/internal/infra/repository"
	"cart-service/internal/infra/uow"
	"cart-service/internal/pkg/config"
	"cart-service/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			repo_impl.NewCartRepository,
			fx.As(new(usecase.CartRepository)),
		),
		fx.Annotate(
			repo_impl.NewProductRepository,
			fx.As(new(usecase.ProductRepository)),
		),
		fx.Annotate(
			repo_impl.NewLocationPricingRepository,
			fx.As(new(usecase.LocationPricingSource)),
		),
		fx.Annotate(
			repo_impl.NewIdempotencyRepository,
			fx.As(new(usecase.IdempotencyLedger)),
		),
		fx.Annotate(
			NewQuoteCache,
			fx.As(new(usecase.QuoteCache)),
		),
		fx.Annotate(
			uow.NewRunner,
			fx.As(new(usecase.TxRunner)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewQuoteCache(rdb *redis.Client, cfg config.PricingConfig) *quotecache.RedisQuoteCache {
	return quotecache.NewRedisQuoteCache(rdb, cfg.QuoteCacheTTL)
}
