// Package store is the relational persistence layer: gorm repositories whose
// writes all go through the Unit of Work transaction carried by the context.
package store

import (
	"context"
	"errors"
	"fmt"

	"food-ordering-api/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("not found")

// Store implements the repositories on top of a UnitOfWork
type Store struct {
	*UnitOfWork
}

func New(db *gorm.DB) *Store {
	return &Store{UnitOfWork: NewUnitOfWork(db)}
}

// OrderFilter selects the orders visible to one role. Exactly one of the
// id fields is expected to be set.
type OrderFilter struct {
	CustomerID uint
	DriverID   uint
	OwnerID    uint
	Status     *models.OrderStatus
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

// ── Identity ────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB(ctx).Create(user).Error
}

// FindUser is the identity lookup used by the authorization layer
func (s *Store) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// ── Catalog ─────────────────────────────────────────────────────────────────

func (s *Store) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	return s.DB(ctx).Omit("Owner", "Menu").Create(restaurant).Error
}

func (s *Store) FindRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB(ctx).First(&restaurant, id).Error; err != nil {
		return nil, notFound(err, "restaurant", id)
	}
	return &restaurant, nil
}

// FindRestaurantMenu loads a restaurant with its dishes
func (s *Store) FindRestaurantMenu(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := s.DB(ctx).Preload("Menu", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).First(&restaurant, id).Error
	if err != nil {
		return nil, notFound(err, "restaurant", id)
	}
	return &restaurant, nil
}

func (s *Store) CreateDish(ctx context.Context, dish *models.Dish) error {
	return s.DB(ctx).Create(dish).Error
}

// FindDishes batch-fetches dishes by id. Missing ids are simply absent from
// the result.
func (s *Store) FindDishes(ctx context.Context, ids []uint) ([]models.Dish, error) {
	var dishes []models.Dish
	if len(ids) == 0 {
		return dishes, nil
	}
	if err := s.DB(ctx).Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("load dishes: %w", err)
	}
	return dishes, nil
}

// ── Orders ──────────────────────────────────────────────────────────────────

// CreateOrder inserts the items first, then the order with its join rows.
// Call it inside Do so both inserts share one transaction.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	db := s.DB(ctx)
	if len(items) > 0 {
		if err := db.Omit("Dish").Create(&items).Error; err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
	}
	order.Items = items
	if err := db.Omit("Items.*", "Customer", "Driver", "Restaurant").Create(order).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FindOrder loads an order with its restaurant plus any extra preloads
func (s *Store) FindOrder(ctx context.Context, id uint, preloads ...string) (*models.Order, error) {
	query := s.DB(ctx).Preload("Restaurant")
	for _, p := range preloads {
		if p == "StatusHistory" {
			query = query.Preload(p, func(db *gorm.DB) *gorm.DB { return db.Order("id") })
			continue
		}
		query = query.Preload(p)
	}
	var order models.Order
	if err := query.First(&order, id).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	return &order, nil
}

// ListOrders returns the orders matching f, newest first
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := s.DB(ctx).Model(&models.Order{}).Preload("Restaurant").Preload("Items")

	switch {
	case f.CustomerID != 0:
		query = query.Where("orders.customer_id = ?", f.CustomerID)
	case f.DriverID != 0:
		query = query.Where("orders.driver_id = ?", f.DriverID)
	case f.OwnerID != 0:
		query = query.Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
			Where("restaurants.owner_id = ?", f.OwnerID)
	default:
		return nil, errors.New("list orders: no scope given")
	}
	if f.Status != nil {
		query = query.Where("orders.status = ?", *f.Status)
	}

	var orders []models.Order
	if err := query.Order("orders.created_at desc").Order("orders.id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *Store) UpdateStatus(ctx context.Context, orderID uint, status models.OrderStatus) error {
	res := s.DB(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update order %d status: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	return nil
}

// AssignDriver sets the driver only if none is set yet. It reports false,
// without touching the row, when another driver already claimed the order.
func (s *Store) AssignDriver(ctx context.Context, orderID, driverID uint) (bool, error) {
	res := s.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND driver_id IS NULL", orderID).
		Update("driver_id", driverID)
	if res.Error != nil {
		return false, fmt.Errorf("assign driver to order %d: %w", orderID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	if err := s.DB(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}
