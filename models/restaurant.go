package models

import (
	"time"

	"gorm.io/datatypes"
)

type Restaurant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	OwnerID   uint      `json:"ownerId" gorm:"not null;index"`
	Owner     *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Menu      []Dish    `json:"menu,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DishChoice is one selectable value inside an option, e.g. "Hot" for "Spice".
type DishChoice struct {
	Name  string  `json:"name"`
	Extra float64 `json:"extra,omitempty"`
}

// DishOption is a customisation offered on a dish. A non-zero Extra is a flat
// charge for the option itself; otherwise the charge comes from the chosen
// Choice.
type DishOption struct {
	Name    string       `json:"name"`
	Extra   float64      `json:"extra,omitempty"`
	Choices []DishChoice `json:"choices,omitempty"`
}

type Dish struct {
	ID           uint                            `json:"id" gorm:"primaryKey"`
	RestaurantID uint                            `json:"restaurantId" gorm:"not null;index"`
	Name         string                          `json:"name" gorm:"not null"`
	Description  string                          `json:"description"`
	Price        float64                         `json:"price" gorm:"not null"`
	Options      datatypes.JSONSlice[DishOption] `json:"options,omitempty"`
	CreatedAt    time.Time                       `json:"createdAt"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// FindOption returns the first option named name. Duplicate names are not
// rejected; the first one wins.
func (d *Dish) FindOption(name string) (DishOption, bool) {
	for _, opt := range d.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return DishOption{}, false
}

// FindChoice returns the first choice named name.
func (o DishOption) FindChoice(name string) (DishChoice, bool) {
	for _, choice := range o.Choices {
		if choice.Name == name {
			return choice, true
		}
	}
	return DishChoice{}, false
}
