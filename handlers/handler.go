package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/orders"
	"food-ordering-api/pubsub"

	"github.com/gorilla/websocket"
)

// OrderService is the order lifecycle the handlers expose. *orders.Service
// satisfies it.
type OrderService interface {
	CreateOrder(ctx context.Context, in orders.CreateOrderInput, customer *models.User) (uint, error)
	ViewOrder(ctx context.Context, orderID uint, caller *models.User) (*models.Order, error)
	ViewOrders(ctx context.Context, status *models.OrderStatus, caller *models.User) ([]models.Order, error)
	EditOrder(ctx context.Context, orderID uint, status models.OrderStatus, caller *models.User) error
	TakeOrder(ctx context.Context, orderID uint, driver *models.User) error
}

// Catalog reads restaurants for the public menu endpoint
type Catalog interface {
	FindRestaurantMenu(ctx context.Context, id uint) (*models.Restaurant, error)
}

// Handler serves the REST routes, the RPC endpoint and the subscription
// sockets on top of one OrderService and one Bus.
type Handler struct {
	orders   OrderService
	catalog  Catalog
	bus      *pubsub.Bus
	auth     *middleware.Authorizer
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func New(svc OrderService, catalog Catalog, bus *pubsub.Bus, auth *middleware.Authorizer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	RegisterValidators()
	return &Handler{
		orders:  svc,
		catalog: catalog,
		bus:     bus,
		auth:    auth,
		log:     log.With("component", "http"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}
