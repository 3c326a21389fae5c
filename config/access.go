package config

// Operation names. They key the access table and name the RPC operations.
const (
	OpCreateOrder  = "createOrder"
	OpViewOrder    = "viewOrder"
	OpViewOrders   = "viewOrders"
	OpEditOrder    = "editOrder"
	OpTakeOrder    = "takeOrder"
	OpMe           = "me"
	OpStateMachine = "stateMachine"

	OpPendingOrders = "pendingOrders"
	OpCookedOrders  = "cookedOrders"
	OpOrderUpdates  = "orderUpdates"
)

// AnyRole grants an operation to every authenticated caller
const AnyRole = "Any"

// DefaultAccess is the operation → allowed roles table. An empty list makes
// the operation public.
func DefaultAccess() map[string][]string {
	return map[string][]string{
		OpCreateOrder:  {"Client"},
		OpViewOrder:    {AnyRole},
		OpViewOrders:   {AnyRole},
		OpEditOrder:    {AnyRole},
		OpTakeOrder:    {"Delivery"},
		OpMe:           {AnyRole},
		OpStateMachine: {},

		OpPendingOrders: {"Owner"},
		OpCookedOrders:  {"Delivery"},
		OpOrderUpdates:  {AnyRole},
	}
}
