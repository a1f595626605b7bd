package httpserver

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"diorder/internal/cartstore"
	"diorder/internal/checkout"
	"diorder/internal/domain"
)

// Catalog is the read side of the storefront: merchants, menus, settings.
type Catalog interface {
	Merchants(ctx context.Context) ([]domain.Merchant, error)
	Menu(ctx context.Context, merchantID int64) ([]domain.MenuItem, error)
	Settings(ctx context.Context) (*domain.Settings, error)
}

// CheckoutService submits the current cart.
type CheckoutService interface {
	Submit(ctx context.Context) (*checkout.Result, error)
}

// Deps carries everything the routes need.
type Deps struct {
	Catalog  Catalog
	Cart     *cartstore.Store
	Checkout CheckoutService
	DB       *pgxpool.Pool
	Redis    *redis.Client

	// AllowedOrigins feeds the CORS layer; empty means allow all.
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB, deps.Redis))

	api := router.Group("/api")
	{
		api.GET("/merchants", listMerchantsHandler(deps.Catalog))
		api.GET("/merchants/:merchantID/menu", merchantMenuHandler(deps.Catalog))
		api.GET("/settings", settingsHandler(deps.Catalog))

		api.GET("/cart", cartHandler(deps.Cart))
		api.POST("/cart/items", addItemHandler(deps.Cart, deps.Catalog))
		api.POST("/cart/items/decrement", decrementItemHandler(deps.Cart))
		api.PUT("/cart/items/quantity", setQuantityHandler(deps.Cart))
		api.PUT("/cart/items/notes", setNotesHandler(deps.Cart))
		api.DELETE("/cart", clearCartHandler(deps.Cart))
		api.DELETE("/cart/merchants/:merchantID", clearMerchantHandler(deps.Cart))

		api.GET("/cart/customer", getCustomerHandler(deps.Cart))
		api.PUT("/cart/customer", setCustomerHandler(deps.Cart))
		api.GET("/cart/notifications", notificationsHandler(deps.Cart))

		api.POST("/checkout", checkoutHandler(deps.Checkout))
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
