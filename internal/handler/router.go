package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cart-service/internal/handler/api"
	"cart-service/internal/handler/middleware"
	"cart-service/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *slog.Logger, cartHandler *api.CartHandler) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, cartHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *slog.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(logger, cfg.Log))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, cartHandler *api.CartHandler) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		carts := apiGroup.Group("/carts")
		{
			addRoutes(carts, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: cartHandler.GetCart},
				{Method: http.MethodGet, Path: "/:id/delivery-quote", Handler: cartHandler.DeliveryQuote},
				{Method: http.MethodPost, Path: "/:id/items", Handler: cartHandler.AddItem},
				{Method: http.MethodPatch, Path: "/:id/items/:itemId", Handler: cartHandler.UpdateItem},
				{Method: http.MethodDelete, Path: "/:id/items/:itemId", Handler: cartHandler.RemoveItem},
				{Method: http.MethodPost, Path: "/:id/batch", Handler: cartHandler.Batch},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
