package components

import (
	"cart-service/internal/handler"
	"cart-service/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCartHandler,
	),
	fx.Invoke(handler.NewRouter),
)
