// Package storetest opens throwaway SQLite databases and seeds the small
// world most order tests need.
package storetest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"food-ordering-api/config"
	"food-ordering-api/models"
	"food-ordering-api/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open migrates a fresh database under t.TempDir and closes it when the test
// ends.
func Open(t testing.TB) (*store.Store, *gorm.DB) {
	t.Helper()

	cfg := config.Defaults()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")

	db, err := config.OpenDB(cfg, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDB(db) })

	return store.New(db), db
}

// Logger discards everything
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// World is the seeded cast: two customers, two owners each with a
// restaurant, and two drivers.
type World struct {
	Customer      models.User
	OtherCustomer models.User
	Owner         models.User
	OtherOwner    models.User
	Driver        models.User
	OtherDriver   models.User

	Restaurant      models.Restaurant
	OtherRestaurant models.Restaurant

	// Burger costs 12 with a flat "Bacon" option of 2.
	Burger models.Dish
	// Curry costs 10 with a "Spice" option whose "Hot" choice costs 1.
	Curry models.Dish
	// Salad belongs to OtherRestaurant.
	Salad models.Dish
}

// Seed writes the World
func Seed(t testing.TB, st *store.Store) *World {
	t.Helper()
	ctx := context.Background()
	w := &World{}

	users := []*models.User{
		{Email: "customer@example.com", Role: models.RoleClient},
		{Email: "other.customer@example.com", Role: models.RoleClient},
		{Email: "owner@example.com", Role: models.RoleOwner},
		{Email: "other.owner@example.com", Role: models.RoleOwner},
		{Email: "driver@example.com", Role: models.RoleDelivery},
		{Email: "other.driver@example.com", Role: models.RoleDelivery},
	}
	for _, u := range users {
		require.NoError(t, st.CreateUser(ctx, u))
	}
	w.Customer, w.OtherCustomer = *users[0], *users[1]
	w.Owner, w.OtherOwner = *users[2], *users[3]
	w.Driver, w.OtherDriver = *users[4], *users[5]

	w.Restaurant = models.Restaurant{Name: "Grill House", OwnerID: w.Owner.ID}
	require.NoError(t, st.CreateRestaurant(ctx, &w.Restaurant))
	w.OtherRestaurant = models.Restaurant{Name: "Green Bowl", OwnerID: w.OtherOwner.ID}
	require.NoError(t, st.CreateRestaurant(ctx, &w.OtherRestaurant))

	w.Burger = models.Dish{
		RestaurantID: w.Restaurant.ID,
		Name:         "Burger",
		Price:        12,
		Options:      []models.DishOption{{Name: "Bacon", Extra: 2}},
	}
	w.Curry = models.Dish{
		RestaurantID: w.Restaurant.ID,
		Name:         "Curry",
		Price:        10,
		Options: []models.DishOption{{
			Name:    "Spice",
			Choices: []models.DishChoice{{Name: "Mild"}, {Name: "Hot", Extra: 1}},
		}},
	}
	w.Salad = models.Dish{RestaurantID: w.OtherRestaurant.ID, Name: "Salad", Price: 8}
	for _, d := range []*models.Dish{&w.Burger, &w.Curry, &w.Salad} {
		require.NoError(t, st.CreateDish(ctx, d))
	}
	return w
}

// PlaceOrder inserts a Pending order for customer at restaurant without
// going through pricing.
func PlaceOrder(t testing.TB, st *store.Store, customer models.User, restaurant models.Restaurant, dishes ...models.Dish) *models.Order {
	t.Helper()
	ctx := context.Background()

	items := make([]models.OrderItem, len(dishes))
	total := 0.0
	for i, d := range dishes {
		items[i] = models.OrderItem{DishID: d.ID}
		total += d.Price
	}
	order := &models.Order{
		CustomerID:   customer.ID,
		RestaurantID: restaurant.ID,
		Total:        total,
		Status:       models.StatusPending,
	}
	err := st.Do(ctx, func(ctx context.Context) error {
		return st.CreateOrder(ctx, order, items)
	})
	require.NoError(t, err)
	return order
}
