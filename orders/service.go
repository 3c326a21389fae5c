// Package orders owns the order lifecycle: placing orders, reading them back
// and moving them through their statuses.
//
// Every operation returns either nil or an *Error. Storage faults are logged
// here and surface as ErrInternal so no driver error ever reaches a client.
// Events are published only after the owning transaction committed.
package orders

import (
	"context"
	"errors"
	"log/slog"

	"food-ordering-api/metrics"
	"food-ordering-api/models"
	"food-ordering-api/pricing"
	"food-ordering-api/pubsub"
	"food-ordering-api/statemachine"
	"food-ordering-api/store"
)

// Store is the persistence the service needs. *store.Store satisfies it.
type Store interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	FindRestaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	FindDishes(ctx context.Context, ids []uint) ([]models.Dish, error)
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	FindOrder(ctx context.Context, id uint, preloads ...string) (*models.Order, error)
	ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) error
	AssignDriver(ctx context.Context, orderID, driverID uint) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
}

// Publisher pushes events to subscribers. *pubsub.Bus satisfies it.
type Publisher interface {
	Publish(ch pubsub.Channel, payload any) int
}

type Service struct {
	store   Store
	bus     Publisher
	log     *slog.Logger
	metrics *metrics.Metrics
}

func New(st Store, bus Publisher, log *slog.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:   st,
		bus:     bus,
		log:     log.With("component", "orders"),
		metrics: m,
	}
}

// CreateOrderInput is a customer's order request
type CreateOrderInput struct {
	RestaurantID uint
	Items        []pricing.Item
}

// CreateOrder prices and stores a new Pending order and notifies the
// restaurant's owner. It returns the new order's id.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput, customer *models.User) (uint, error) {
	restaurant, err := s.store.FindRestaurant(ctx, in.RestaurantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrRestaurantNotFound
		}
		return 0, s.internal("find restaurant", err)
	}

	dishes, err := s.store.FindDishes(ctx, pricing.DistinctDishIDs(in.Items))
	if err != nil {
		return 0, s.internal("find dishes", err)
	}
	total, err := pricing.Total(dishes, in.Items)
	if err != nil {
		return 0, ErrDishNotFound
	}

	items := make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = models.OrderItem{DishID: item.DishID, Options: item.Options}
	}
	order := &models.Order{
		CustomerID:   customer.ID,
		RestaurantID: restaurant.ID,
		Total:        total,
		Status:       models.StatusPending,
	}

	err = s.store.Do(ctx, func(ctx context.Context) error {
		if err := s.store.CreateOrder(ctx, order, items); err != nil {
			return err
		}
		return s.store.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: customer.ID,
			Note:      "order placed",
		})
	})
	if err != nil {
		return 0, s.internal("create order", err)
	}

	s.metrics.OrderCreated()
	s.log.Info("order created", "order_id", order.ID, "restaurant_id", restaurant.ID, "customer_id", customer.ID, "total", total)

	order.Restaurant = restaurant
	s.bus.Publish(pubsub.NewPendingOrder, pubsub.PendingOrder{Order: *order, OwnerID: restaurant.OwnerID})
	return order.ID, nil
}

// ViewOrder returns one order with its items, restaurant and history
func (s *Service) ViewOrder(ctx context.Context, orderID uint, caller *models.User) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID, "Items.Dish", "StatusHistory")
	if err != nil {
		return nil, err
	}
	if !order.AccessibleBy(caller) {
		return nil, ErrUnauthorized
	}
	return order, nil
}

// ViewOrders lists the caller's orders, newest first: a client's own orders,
// a driver's assigned orders or every order of an owner's restaurants.
func (s *Service) ViewOrders(ctx context.Context, status *models.OrderStatus, caller *models.User) ([]models.Order, error) {
	f := store.OrderFilter{Status: status}
	switch caller.Role {
	case models.RoleClient:
		f.CustomerID = caller.ID
	case models.RoleDelivery:
		f.DriverID = caller.ID
	case models.RoleOwner:
		f.OwnerID = caller.ID
	default:
		return nil, ErrUnauthorized
	}

	orders, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, s.internal("list orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// EditOrder sets a new status. Owners may set Cooking and Cooked, drivers
// PickedUp and Delivered, clients nothing.
func (s *Service) EditOrder(ctx context.Context, orderID uint, status models.OrderStatus, caller *models.User) error {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.AccessibleBy(caller) {
		return ErrUnauthorized
	}
	if err := statemachine.CanTransition(caller.Role, status); err != nil {
		s.log.Debug("status change rejected", "order_id", orderID, "role", caller.Role, "status", status)
		return ErrCannotEditStatus
	}

	from := order.Status
	err = s.store.Do(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateStatus(ctx, orderID, status); err != nil {
			return err
		}
		return s.store.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   status,
			ChangedBy:  caller.ID,
		})
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		return s.internal("edit order", err)
	}

	s.metrics.StatusTransition(string(caller.Role), string(status))
	s.log.Info("order status changed", "order_id", orderID, "from", from, "to", status, "by", caller.ID)

	order.Status = status
	if caller.Role == models.RoleOwner && status == models.StatusCooked {
		s.bus.Publish(pubsub.CookedOrder, *order)
	}
	s.bus.Publish(pubsub.OrderUpdate, *order)
	return nil
}

// TakeOrder assigns driver to an order that has no driver yet. Of several
// concurrent calls on the same order exactly one succeeds.
func (s *Service) TakeOrder(ctx context.Context, orderID uint, driver *models.User) error {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.HasDriver() {
		s.metrics.OrderClaim("conflict")
		return ErrOrderAlreadyAssigned
	}

	err = s.store.Do(ctx, func(ctx context.Context) error {
		claimed, err := s.store.AssignDriver(ctx, orderID, driver.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrOrderAlreadyAssigned
		}
		return s.store.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:    orderID,
			FromStatus: order.Status,
			ToStatus:   order.Status,
			ChangedBy:  driver.ID,
			Note:       "driver assigned",
		})
	})
	if errors.Is(err, ErrOrderAlreadyAssigned) {
		s.metrics.OrderClaim("conflict")
		return ErrOrderAlreadyAssigned
	}
	if err != nil {
		return s.internal("take order", err)
	}

	s.metrics.OrderClaim("assigned")
	s.log.Info("order taken", "order_id", orderID, "driver_id", driver.ID)

	order.DriverID = &driver.ID
	order.Driver = driver
	s.bus.Publish(pubsub.OrderUpdate, *order)
	return nil
}

func (s *Service) findOrder(ctx context.Context, id uint, preloads ...string) (*models.Order, error) {
	order, err := s.store.FindOrder(ctx, id, preloads...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, s.internal("find order", err)
	}
	return order, nil
}

func (s *Service) internal(op string, err error) error {
	s.log.Error(op+" failed", "error", err)
	return ErrInternal
}
