package pubsub

import "food-ordering-api/models"

// Channel names an event stream
type Channel string

const (
	NewPendingOrder Channel = "newPendingOrder"
	CookedOrder     Channel = "cookedOrder"
	OrderUpdate     Channel = "orderUpdate"
)

// Args are the arguments a client subscribed with
type Args struct {
	OrderID uint `json:"orderId"`
}

// Filter decides whether a published payload reaches one subscription
type Filter func(payload any, args Args, caller *models.User) bool

// Resolver projects the raw payload to the value the subscriber receives
type Resolver func(payload any) any

// Route is the filter/resolver pair attached to every subscription of a
// channel. A nil Filter accepts everything; a nil Resolve delivers the raw
// payload.
type Route struct {
	Filter  Filter
	Resolve Resolver
}

// PendingOrder is published on NewPendingOrder when a customer places an
// order. OwnerID is the owner of the order's restaurant.
type PendingOrder struct {
	Order   models.Order
	OwnerID uint
}

// DefaultRoutes returns the routes of the order channels
func DefaultRoutes() map[Channel]Route {
	return map[Channel]Route{
		NewPendingOrder: {Filter: pendingOrderFilter, Resolve: pendingOrderResolve},
		CookedOrder:     {Filter: cookedOrderFilter, Resolve: orderResolve},
		OrderUpdate:     {Filter: orderUpdateFilter, Resolve: orderResolve},
	}
}

// pendingOrderFilter delivers only to the owner of the restaurant
func pendingOrderFilter(payload any, _ Args, caller *models.User) bool {
	p, ok := payload.(PendingOrder)
	return ok && caller != nil && caller.ID == p.OwnerID
}

func pendingOrderResolve(payload any) any {
	if p, ok := payload.(PendingOrder); ok {
		return p.Order
	}
	return payload
}

// cookedOrderFilter delivers to every driver. No restaurant or region scoping.
func cookedOrderFilter(_ any, _ Args, caller *models.User) bool {
	return caller != nil && caller.Role == models.RoleDelivery
}

// orderUpdateFilter delivers to the order's participants that subscribed to
// this very order.
func orderUpdateFilter(payload any, args Args, caller *models.User) bool {
	order, ok := asOrder(payload)
	if !ok || caller == nil {
		return false
	}
	return args.OrderID == order.ID && order.IsParticipant(caller.ID)
}

func orderResolve(payload any) any {
	if order, ok := asOrder(payload); ok {
		return *order
	}
	return payload
}

func asOrder(payload any) (*models.Order, bool) {
	switch v := payload.(type) {
	case models.Order:
		return &v, true
	case *models.Order:
		return v, v != nil
	default:
		return nil, false
	}
}
