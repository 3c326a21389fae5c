package routes

import (
	"log/slog"

	"food-ordering-api/config"
	"food-ordering-api/handlers"
	"food-ordering-api/metrics"
	"food-ordering-api/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the global middleware and every route
func NewRouter(h *handlers.Handler, auth *middleware.Authorizer, m *metrics.Metrics, log *slog.Logger) *gin.Engine {
	r := gin.New()
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.Use(handlers.Recovery(log), m.Middleware(), middleware.CORS())

	SetupRoutes(r, h, auth)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, auth *middleware.Authorizer) {
	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	{
		// Named operations, authorized per operation inside the handler
		api.POST("/rpc", h.RPC)

		api.GET("/state-machine", auth.Require(config.OpStateMachine), handlers.GetStateMachineInfo)
		api.GET("/restaurants/:id", h.GetRestaurant)
		api.GET("/me", auth.Require(config.OpMe), handlers.Me)
	}

	// ── Orders ─────────────────────────────────────────────────────
	orders := api.Group("/orders")
	{
		orders.POST("", auth.Require(config.OpCreateOrder), h.CreateOrder)
		orders.GET("", auth.Require(config.OpViewOrders), h.ListOrders)
		orders.GET("/:id", auth.Require(config.OpViewOrder), h.GetOrder)
		orders.PUT("/:id/status", auth.Require(config.OpEditOrder), h.UpdateOrderStatus)
		orders.PUT("/:id/take", auth.Require(config.OpTakeOrder), h.TakeOrder)
	}

	// ── Subscriptions (WebSocket) ──────────────────────────────────
	subs := api.Group("/subscriptions")
	{
		subs.GET("/pending-orders", auth.Require(config.OpPendingOrders), h.PendingOrders)
		subs.GET("/cooked-orders", auth.Require(config.OpCookedOrders), h.CookedOrders)
		subs.GET("/order-updates", auth.Require(config.OpOrderUpdates), h.OrderUpdates)
	}
}
