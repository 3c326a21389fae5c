package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"food-ordering-api/models"
	"food-ordering-api/store"
	"food-ordering-api/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWorkCommits(t *testing.T) {
	st, _ := storetest.Open(t)
	ctx := context.Background()

	err := st.Do(ctx, func(ctx context.Context) error {
		assert.True(t, store.InTx(ctx))
		return st.CreateUser(ctx, &models.User{Email: "a@example.com", Role: models.RoleClient})
	})
	require.NoError(t, err)

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUnitOfWorkRollsBackOnError(t *testing.T) {
	st, _ := storetest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, st.CreateUser(ctx, &models.User{Email: "a@example.com", Role: models.RoleClient}))
		require.NoError(t, st.CreateUser(ctx, &models.User{Email: "b@example.com", Role: models.RoleClient}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnitOfWorkRollsBackOnPanic(t *testing.T) {
	st, _ := storetest.Open(t)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = st.Do(ctx, func(ctx context.Context) error {
			_ = st.CreateUser(ctx, &models.User{Email: "a@example.com", Role: models.RoleClient})
			panic("mid transaction")
		})
	})

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNestedDoJoinsOuterTransaction(t *testing.T) {
	st, _ := storetest.Open(t)
	ctx := context.Background()
	boom := errors.New("outer fails")

	err := st.Do(ctx, func(outer context.Context) error {
		err := st.Do(outer, func(inner context.Context) error {
			assert.Same(t, st.DB(outer), st.DB(inner))
			return st.CreateUser(inner, &models.User{Email: "nested@example.com", Role: models.RoleOwner})
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "inner write must roll back with the outer transaction")
}

func TestCreateOrderWritesItemsAndJoinRows(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)
	ctx := context.Background()

	order := storetest.PlaceOrder(t, st, w.Customer, w.Restaurant, w.Burger, w.Curry)
	require.NotZero(t, order.ID)

	loaded, err := st.FindOrder(ctx, order.ID, "Items.Dish")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, loaded.Status)
	assert.Equal(t, w.Owner.ID, loaded.OwnerID())
	require.Len(t, loaded.Items, 2)
	names := []string{loaded.Items[0].Dish.Name, loaded.Items[1].Dish.Name}
	assert.ElementsMatch(t, []string{"Burger", "Curry"}, names)
}

func TestFindOrderNotFound(t *testing.T) {
	st, _ := storetest.Open(t)

	_, err := st.FindOrder(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindDishesSkipsMissing(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)

	dishes, err := st.FindDishes(context.Background(), []uint{w.Burger.ID, 9999})
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Burger", dishes[0].Name)
	require.Len(t, dishes[0].Options, 1)
	assert.Equal(t, 2.0, dishes[0].Options[0].Extra)
}

func TestListOrdersScopes(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)
	ctx := context.Background()

	first := storetest.PlaceOrder(t, st, w.Customer, w.Restaurant, w.Burger)
	second := storetest.PlaceOrder(t, st, w.Customer, w.OtherRestaurant, w.Salad)
	storetest.PlaceOrder(t, st, w.OtherCustomer, w.Restaurant, w.Curry)

	mine, err := st.ListOrders(ctx, store.OrderFilter{CustomerID: w.Customer.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID, "newest first")
	assert.Equal(t, first.ID, mine[1].ID)

	owned, err := st.ListOrders(ctx, store.OrderFilter{OwnerID: w.Owner.ID})
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	_, err = st.AssignDriver(ctx, first.ID, w.Driver.ID)
	require.NoError(t, err)
	assigned, err := st.ListOrders(ctx, store.OrderFilter{DriverID: w.Driver.ID})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, first.ID, assigned[0].ID)

	cooking := models.StatusCooking
	require.NoError(t, st.UpdateStatus(ctx, first.ID, cooking))
	filtered, err := st.ListOrders(ctx, store.OrderFilter{OwnerID: w.Owner.ID, Status: &cooking})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	_, err = st.ListOrders(ctx, store.OrderFilter{})
	assert.Error(t, err)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	st, _ := storetest.Open(t)

	err := st.UpdateStatus(context.Background(), 77, models.StatusCooked)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssignDriverOnlyOnce(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)
	ctx := context.Background()
	order := storetest.PlaceOrder(t, st, w.Customer, w.Restaurant, w.Burger)

	ok, err := st.AssignDriver(ctx, order.ID, w.Driver.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.AssignDriver(ctx, order.ID, w.OtherDriver.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := st.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.DriverID)
	assert.Equal(t, w.Driver.ID, *loaded.DriverID)
}

func TestAssignDriverConcurrent(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)
	order := storetest.PlaceOrder(t, st, w.Customer, w.Restaurant, w.Burger)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for _, d := range []models.User{w.Driver, w.OtherDriver, w.Driver, w.OtherDriver} {
		wg.Add(1)
		go func(driverID uint) {
			defer wg.Done()
			err := st.Do(context.Background(), func(ctx context.Context) error {
				ok, err := st.AssignDriver(ctx, order.ID, driverID)
				if ok {
					wins.Add(1)
				}
				return err
			})
			assert.NoError(t, err)
		}(d.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestAppendHistory(t *testing.T) {
	st, _ := storetest.Open(t)
	w := storetest.Seed(t, st)
	ctx := context.Background()
	order := storetest.PlaceOrder(t, st, w.Customer, w.Restaurant, w.Burger)

	require.NoError(t, st.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: models.StatusPending,
		ToStatus:   models.StatusCooking,
		ChangedBy:  w.Owner.ID,
	}))

	loaded, err := st.FindOrder(ctx, order.ID, "StatusHistory")
	require.NoError(t, err)
	require.Len(t, loaded.StatusHistory, 1)
	assert.Equal(t, models.StatusCooking, loaded.StatusHistory[0].ToStatus)
}
