// Package pricing computes order totals from dish catalog data and the
// options a customer selected.
package pricing

import (
	"errors"

	"food-ordering-api/models"

	"github.com/shopspring/decimal"
)

// ErrDishNotFound is returned when fewer dishes were resolved than distinct
// dish ids were requested.
var ErrDishNotFound = errors.New("dish not found")

// Item is one requested line: a dish and the options picked for it.
type Item struct {
	DishID  uint
	Options []models.OrderItemOption
}

// DistinctDishIDs returns the requested dish ids without duplicates, in first
// seen order.
func DistinctDishIDs(items []Item) []uint {
	seen := make(map[uint]bool, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if seen[item.DishID] {
			continue
		}
		seen[item.DishID] = true
		ids = append(ids, item.DishID)
	}
	return ids
}

// CheckResolved applies the count check between resolved dishes and distinct
// requested ids. It does not verify membership of each id.
func CheckResolved(dishes []models.Dish, items []Item) error {
	wanted := len(DistinctDishIDs(items))
	if len(dishes) == 0 || len(dishes) < wanted {
		return ErrDishNotFound
	}
	return nil
}

// ItemPrice prices a single item. Option names that match nothing on the dish
// add nothing.
func ItemPrice(dish *models.Dish, item Item) decimal.Decimal {
	price := decimal.NewFromFloat(dish.Price)
	for _, selected := range item.Options {
		opt, ok := dish.FindOption(selected.Name)
		if !ok {
			continue
		}
		if opt.Extra != 0 {
			price = price.Add(decimal.NewFromFloat(opt.Extra))
			continue
		}
		if choice, ok := opt.FindChoice(selected.Choice); ok && choice.Extra != 0 {
			price = price.Add(decimal.NewFromFloat(choice.Extra))
		}
	}
	return price
}

// Total sums the price of every item. dishes is the batch fetched for the
// requested ids.
func Total(dishes []models.Dish, items []Item) (float64, error) {
	if err := CheckResolved(dishes, items); err != nil {
		return 0, err
	}

	byID := make(map[uint]*models.Dish, len(dishes))
	for i := range dishes {
		byID[dishes[i].ID] = &dishes[i]
	}

	total := decimal.Zero
	for _, item := range items {
		dish, ok := byID[item.DishID]
		if !ok {
			return 0, ErrDishNotFound
		}
		total = total.Add(ItemPrice(dish, item))
	}
	return total.InexactFloat64(), nil
}
