package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"food-ordering-api/models"
	"food-ordering-api/orders"
	"food-ordering-api/statemachine"
	"food-ordering-api/store"

	"github.com/gin-gonic/gin"
)

// Health reports that the process is serving
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"error":   nil,
		"status":  "healthy",
		"service": "Food Ordering API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo returns which role may set which status
func GetStateMachineInfo(c *gin.Context) {
	succeed(c, gin.H{
		"statuses":    models.OrderStatuses,
		"transitions": statemachine.GetAllTransitions(),
		"description": "Owners set Cooking and Cooked, drivers set PickedUp and Delivered, clients never edit status",
	})
}

// GetRestaurant returns a restaurant with its menu (public)
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, "Invalid restaurant id")
		return
	}
	restaurant, err := h.catalog.FindRestaurantMenu(c.Request.Context(), uint(id))
	if errors.Is(err, store.ErrNotFound) {
		failErr(c, orders.ErrRestaurantNotFound)
		return
	}
	if err != nil {
		h.log.Error("load restaurant failed", "restaurant_id", id, "error", err)
		failErr(c, orders.ErrInternal)
		return
	}
	succeed(c, gin.H{"restaurant": restaurant})
}
