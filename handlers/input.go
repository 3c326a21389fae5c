package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"food-ordering-api/models"
	"food-ordering-api/orders"
	"food-ordering-api/pricing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type OrderItemOptionInput struct {
	Name   string `json:"name" binding:"required"`
	Choice string `json:"choice"`
}

type CreateOrderItemInput struct {
	DishID  uint                   `json:"dishId" binding:"required"`
	Options []OrderItemOptionInput `json:"options" binding:"omitempty,dive"`
}

type CreateOrderInput struct {
	RestaurantID uint                   `json:"restaurantId" binding:"required"`
	Items        []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type ViewOrderInput struct {
	OrderID uint `json:"orderId" binding:"required"`
}

type ViewOrdersInput struct {
	Status models.OrderStatus `json:"status" form:"status" binding:"omitempty,orderstatus"`
}

type EditOrderInput struct {
	ID     uint               `json:"id" binding:"required"`
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
}

type TakeOrderInput struct {
	ID uint `json:"id" binding:"required"`
}

// toService converts the request into the service input
func (in CreateOrderInput) toService() orders.CreateOrderInput {
	items := make([]pricing.Item, len(in.Items))
	for i, item := range in.Items {
		opts := make([]models.OrderItemOption, len(item.Options))
		for j, o := range item.Options {
			opts[j] = models.OrderItemOption{Name: o.Name, Choice: o.Choice}
		}
		items[i] = pricing.Item{DishID: item.DishID, Options: opts}
	}
	return orders.CreateOrderInput{RestaurantID: in.RestaurantID, Items: items}
}

// statusPtr returns nil when no status filter was given
func (in ViewOrdersInput) statusPtr() *models.OrderStatus {
	if in.Status == "" {
		return nil
	}
	s := in.Status
	return &s
}

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules to gin's validator
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
	})
}

// validationError turns binding failures into a single readable message
func validationError(err error) *orders.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return orders.Validation("Invalid input: " + err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param()))
		case "orderstatus":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), statusList()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return orders.Validation(strings.Join(msgs, "; "))
}

func statusList() string {
	names := make([]string, len(models.OrderStatuses))
	for i, s := range models.OrderStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
