package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"food-ordering-api/metrics"
	"food-ordering-api/models"
	"food-ordering-api/pricing"
	"food-ordering-api/pubsub"
	"food-ordering-api/store"
	"food-ordering-api/store/storetest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	st    *store.Store
	bus   *pubsub.Bus
	world *storetest.World
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, _ := storetest.Open(t)
	bus := pubsub.New(pubsub.WithLogger(storetest.Logger()))
	t.Cleanup(bus.Close)
	return &fixture{
		svc:   New(st, bus, storetest.Logger(), metrics.New(prometheus.NewRegistry())),
		st:    st,
		bus:   bus,
		world: storetest.Seed(t, st),
	}
}

func (f *fixture) place(t *testing.T, items ...pricing.Item) uint {
	t.Helper()
	id, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		RestaurantID: f.world.Restaurant.ID,
		Items:        items,
	}, &f.world.Customer)
	require.NoError(t, err)
	return id
}

func next(t *testing.T, sub *pubsub.Subscription) (pubsub.Event, bool) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev, true
	default:
		return pubsub.Event{}, false
	}
}

func TestCreateOrderFlatOptionExtra(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending, err := f.bus.Subscribe(pubsub.NewPendingOrder, pubsub.Args{}, &f.world.Owner)
	require.NoError(t, err)

	id := f.place(t, pricing.Item{
		DishID:  f.world.Burger.ID,
		Options: []models.OrderItemOption{{Name: "Bacon"}},
	})

	order, err := f.svc.ViewOrder(ctx, id, &f.world.Customer)
	require.NoError(t, err)
	assert.Equal(t, 14.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Burger", order.Items[0].Dish.Name)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistory[0].ToStatus)

	ev, ok := next(t, pending)
	require.True(t, ok, "owner is notified of the new order")
	assert.Equal(t, id, ev.Data.(models.Order).ID)
}

func TestCreateOrderChoiceExtra(t *testing.T) {
	f := newFixture(t)

	id := f.place(t, pricing.Item{
		DishID:  f.world.Curry.ID,
		Options: []models.OrderItemOption{{Name: "Spice", Choice: "Hot"}},
	})

	order, err := f.svc.ViewOrder(context.Background(), id, &f.world.Owner)
	require.NoError(t, err)
	assert.Equal(t, 11.0, order.Total)
	assert.Equal(t, []models.OrderItemOption{{Name: "Spice", Choice: "Hot"}}, []models.OrderItemOption(order.Items[0].Options))
}

func TestCreateOrderFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		RestaurantID: 999,
		Items:        []pricing.Item{{DishID: f.world.Burger.ID}},
	}, &f.world.Customer)
	assert.Equal(t, ErrRestaurantNotFound, err)

	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{
		RestaurantID: f.world.Restaurant.ID,
		Items:        []pricing.Item{{DishID: f.world.Burger.ID}, {DishID: 999}},
	}, &f.world.Customer)
	assert.Equal(t, ErrDishNotFound, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	orders, err := f.svc.ViewOrders(ctx, nil, &f.world.Customer)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

type failingHistory struct {
	*store.Store
}

func (failingHistory) AppendHistory(context.Context, *models.OrderStatusHistory) error {
	return errors.New("disk full")
}

func TestCreateOrderRollsBackAllWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := New(failingHistory{f.st}, f.bus, storetest.Logger(), nil)
	pending, err := f.bus.Subscribe(pubsub.NewPendingOrder, pubsub.Args{}, &f.world.Owner)
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		RestaurantID: f.world.Restaurant.ID,
		Items:        []pricing.Item{{DishID: f.world.Burger.ID}},
	}, &f.world.Customer)
	assert.Equal(t, ErrInternal, err)

	orders, err := f.st.ListOrders(ctx, store.OrderFilter{CustomerID: f.world.Customer.ID})
	require.NoError(t, err)
	assert.Empty(t, orders)

	var items int64
	require.NoError(t, f.st.DB(ctx).Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items, "order items roll back with the order")

	_, ok := next(t, pending)
	assert.False(t, ok, "nothing is published for a rolled back order")
}

func TestViewOrderAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})

	_, err := f.svc.ViewOrder(ctx, id, &f.world.OtherCustomer)
	assert.Equal(t, ErrUnauthorized, err)
	assert.Equal(t, "Invalid Approach", err.Error())

	_, err = f.svc.ViewOrder(ctx, id, &f.world.OtherOwner)
	assert.Equal(t, ErrUnauthorized, err)

	_, err = f.svc.ViewOrder(ctx, id, &f.world.Driver)
	assert.Equal(t, ErrUnauthorized, err, "unassigned driver")

	_, err = f.svc.ViewOrder(ctx, 4242, &f.world.Customer)
	assert.Equal(t, ErrOrderNotFound, err)

	require.NoError(t, f.svc.TakeOrder(ctx, id, &f.world.Driver))
	_, err = f.svc.ViewOrder(ctx, id, &f.world.Driver)
	assert.NoError(t, err)
}

func TestViewOrdersByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.place(t, pricing.Item{DishID: f.world.Burger.ID})
	second := f.place(t, pricing.Item{DishID: f.world.Curry.ID})
	require.NoError(t, f.svc.TakeOrder(ctx, first, &f.world.Driver))
	require.NoError(t, f.svc.EditOrder(ctx, second, models.StatusCooking, &f.world.Owner))

	mine, err := f.svc.ViewOrders(ctx, nil, &f.world.Customer)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second, mine[0].ID)

	theirs, err := f.svc.ViewOrders(ctx, nil, &f.world.OtherCustomer)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	assigned, err := f.svc.ViewOrders(ctx, nil, &f.world.Driver)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, first, assigned[0].ID)

	cooking := models.StatusCooking
	owned, err := f.svc.ViewOrders(ctx, &cooking, &f.world.Owner)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, second, owned[0].ID)

	none, err := f.svc.ViewOrders(ctx, nil, &f.world.OtherOwner)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEditOrderRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})
	require.NoError(t, f.svc.TakeOrder(ctx, id, &f.world.Driver))

	cases := []struct {
		name   string
		caller *models.User
		status models.OrderStatus
		want   error
	}{
		{"owner to pending", &f.world.Owner, models.StatusPending, ErrCannotEditStatus},
		{"owner to picked up", &f.world.Owner, models.StatusPickedUp, ErrCannotEditStatus},
		{"owner to cooking", &f.world.Owner, models.StatusCooking, nil},
		{"owner to cooked", &f.world.Owner, models.StatusCooked, nil},
		{"driver to cooking", &f.world.Driver, models.StatusCooking, ErrCannotEditStatus},
		{"driver to picked up", &f.world.Driver, models.StatusPickedUp, nil},
		{"client to delivered", &f.world.Customer, models.StatusDelivered, ErrCannotEditStatus},
		{"client to pending", &f.world.Customer, models.StatusPending, ErrCannotEditStatus},
		{"other owner", &f.world.OtherOwner, models.StatusCooking, ErrUnauthorized},
		{"other driver", &f.world.OtherDriver, models.StatusDelivered, ErrUnauthorized},
		{"driver skips to delivered", &f.world.Driver, models.StatusDelivered, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.EditOrder(ctx, id, tc.status, tc.caller)
			if tc.want == nil {
				require.NoError(t, err)
				order, err := f.svc.ViewOrder(ctx, id, tc.caller)
				require.NoError(t, err)
				assert.Equal(t, tc.status, order.Status)
				return
			}
			assert.Equal(t, tc.want, err)
		})
	}

	assert.Equal(t, ErrOrderNotFound, f.svc.EditOrder(ctx, 4242, models.StatusCooking, &f.world.Owner))
}

func TestEditOrderRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})

	require.NoError(t, f.svc.EditOrder(ctx, id, models.StatusCooking, &f.world.Owner))

	order, err := f.svc.ViewOrder(ctx, id, &f.world.Owner)
	require.NoError(t, err)
	require.Len(t, order.StatusHistory, 2)
	last := order.StatusHistory[1]
	assert.Equal(t, models.StatusPending, last.FromStatus)
	assert.Equal(t, models.StatusCooking, last.ToStatus)
	assert.Equal(t, f.world.Owner.ID, last.ChangedBy)
}

func TestCookedOrderNotifiesDriversOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})
	otherID := f.place(t, pricing.Item{DishID: f.world.Curry.ID})

	cooked, err := f.bus.Subscribe(pubsub.CookedOrder, pubsub.Args{}, &f.world.Driver)
	require.NoError(t, err)
	elsewhere, err := f.bus.Subscribe(pubsub.OrderUpdate, pubsub.Args{OrderID: otherID}, &f.world.Customer)
	require.NoError(t, err)
	watching, err := f.bus.Subscribe(pubsub.OrderUpdate, pubsub.Args{OrderID: id}, &f.world.Customer)
	require.NoError(t, err)

	require.NoError(t, f.svc.EditOrder(ctx, id, models.StatusCooked, &f.world.Owner))

	ev, ok := next(t, cooked)
	require.True(t, ok)
	assert.Equal(t, models.StatusCooked, ev.Data.(models.Order).Status)

	_, ok = next(t, elsewhere)
	assert.False(t, ok, "update for a different order id")

	ev, ok = next(t, watching)
	require.True(t, ok)
	assert.Equal(t, id, ev.Data.(models.Order).ID)
}

func TestCookingDoesNotNotifyDrivers(t *testing.T) {
	f := newFixture(t)
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})
	cooked, err := f.bus.Subscribe(pubsub.CookedOrder, pubsub.Args{}, &f.world.Driver)
	require.NoError(t, err)

	require.NoError(t, f.svc.EditOrder(context.Background(), id, models.StatusCooking, &f.world.Owner))

	_, ok := next(t, cooked)
	assert.False(t, ok)
}

func TestTakeOrderTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})
	updates, err := f.bus.Subscribe(pubsub.OrderUpdate, pubsub.Args{OrderID: id}, &f.world.Customer)
	require.NoError(t, err)

	require.NoError(t, f.svc.TakeOrder(ctx, id, &f.world.Driver))
	assert.Equal(t, ErrOrderAlreadyAssigned, f.svc.TakeOrder(ctx, id, &f.world.OtherDriver))
	assert.Equal(t, ErrOrderAlreadyAssigned, f.svc.TakeOrder(ctx, id, &f.world.Driver))
	assert.Equal(t, ErrOrderNotFound, f.svc.TakeOrder(ctx, 4242, &f.world.Driver))

	ev, ok := next(t, updates)
	require.True(t, ok)
	got := ev.Data.(models.Order)
	require.NotNil(t, got.DriverID)
	assert.Equal(t, f.world.Driver.ID, *got.DriverID)
	_, ok = next(t, updates)
	assert.False(t, ok, "failed claims publish nothing")
}

func TestTakeOrderConcurrent(t *testing.T) {
	f := newFixture(t)
	id := f.place(t, pricing.Item{DishID: f.world.Burger.ID})

	drivers := []*models.User{&f.world.Driver, &f.world.OtherDriver}
	errs := make([]error, len(drivers))
	var wg sync.WaitGroup
	for i, d := range drivers {
		wg.Add(1)
		go func(i int, d *models.User) {
			defer wg.Done()
			errs[i] = f.svc.TakeOrder(context.Background(), id, d)
		}(i, d)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch err {
		case nil:
			ok++
		case ErrOrderAlreadyAssigned:
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)

	order, err := f.st.FindOrder(context.Background(), id, "StatusHistory")
	require.NoError(t, err)
	assert.Len(t, order.StatusHistory, 2, "one history row for the single successful claim")
}
