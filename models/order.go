package models

import (
	"time"

	"gorm.io/datatypes"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusCooking   OrderStatus = "Cooking"
	StatusCooked    OrderStatus = "Cooked"
	StatusPickedUp  OrderStatus = "PickedUp"
	StatusDelivered OrderStatus = "Delivered"
)

// OrderStatuses lists the statuses in lifecycle order
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusCooking,
	StatusCooked,
	StatusPickedUp,
	StatusDelivered,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItemOption is the option a customer picked for one item, with the
// chosen choice name when the option has choices.
type OrderItemOption struct {
	Name   string `json:"name"`
	Choice string `json:"choice,omitempty"`
}

// OrderItem is written once together with its order and never updated.
type OrderItem struct {
	ID        uint                                 `json:"id" gorm:"primaryKey"`
	DishID    uint                                 `json:"dishId" gorm:"not null;index"`
	Dish      *Dish                                `json:"dish,omitempty" gorm:"foreignKey:DishID"`
	Options   datatypes.JSONSlice[OrderItemOption] `json:"options,omitempty"`
	CreatedAt time.Time                            `json:"createdAt"`
}

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	CustomerID    uint                 `json:"customerId" gorm:"not null;index"`
	Customer      *User                `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	DriverID      *uint                `json:"driverId" gorm:"index"`
	Driver        *User                `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	RestaurantID  uint                 `json:"restaurantId" gorm:"not null;index"`
	Restaurant    *Restaurant          `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Items         []OrderItem          `json:"items,omitempty" gorm:"many2many:order_order_items"`
	Total         float64              `json:"total"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'Pending';index"`
	StatusHistory []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// OrderStatusHistory is the audit trail of every change made to an order
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// HasDriver reports whether a driver already claimed the order
func (o *Order) HasDriver() bool {
	return o.DriverID != nil
}

// OwnerID returns the owner of the order's restaurant, or 0 when the
// restaurant was not loaded.
func (o *Order) OwnerID() uint {
	if o.Restaurant == nil {
		return 0
	}
	return o.Restaurant.OwnerID
}

// IsParticipant reports whether userID is the order's customer, its assigned
// driver or the owner of its restaurant.
func (o *Order) IsParticipant(userID uint) bool {
	if userID == 0 {
		return false
	}
	if o.CustomerID == userID {
		return true
	}
	if o.DriverID != nil && *o.DriverID == userID {
		return true
	}
	return o.OwnerID() == userID
}

// AccessibleBy applies the role-aware access check: a client must be the
// customer, a driver must be the assigned driver and an owner must own the
// restaurant.
func (o *Order) AccessibleBy(u *User) bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case RoleClient:
		return o.CustomerID == u.ID
	case RoleDelivery:
		return o.DriverID != nil && *o.DriverID == u.ID
	case RoleOwner:
		return o.OwnerID() == u.ID
	default:
		return false
	}
}
