package handlers

import (
	"context"
	"strconv"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/orders"

	"github.com/gin-gonic/gin"
)

// ── Operations ──────────────────────────────────────────────────────────────
// Shared by the REST routes and the RPC endpoint. Each returns the envelope
// payload on success.

func (h *Handler) createOrder(ctx context.Context, in CreateOrderInput, user *models.User) (gin.H, error) {
	id, err := h.orders.CreateOrder(ctx, in.toService(), user)
	if err != nil {
		return nil, err
	}
	return gin.H{"orderId": id}, nil
}

func (h *Handler) viewOrder(ctx context.Context, in ViewOrderInput, user *models.User) (gin.H, error) {
	order, err := h.orders.ViewOrder(ctx, in.OrderID, user)
	if err != nil {
		return nil, err
	}
	return gin.H{"orderInfo": order}, nil
}

func (h *Handler) viewOrders(ctx context.Context, in ViewOrdersInput, user *models.User) (gin.H, error) {
	list, err := h.orders.ViewOrders(ctx, in.statusPtr(), user)
	if err != nil {
		return nil, err
	}
	return gin.H{"orders": list}, nil
}

func (h *Handler) editOrder(ctx context.Context, in EditOrderInput, user *models.User) (gin.H, error) {
	if err := h.orders.EditOrder(ctx, in.ID, in.Status, user); err != nil {
		return nil, err
	}
	return gin.H{}, nil
}

func (h *Handler) takeOrder(ctx context.Context, in TakeOrderInput, user *models.User) (gin.H, error) {
	if err := h.orders.TakeOrder(ctx, in.ID, user); err != nil {
		return nil, err
	}
	return gin.H{}, nil
}

// ── REST ────────────────────────────────────────────────────────────────────

// CreateOrder places an order for the calling client
func (h *Handler) CreateOrder(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	var in CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failErr(c, validationError(err))
		return
	}
	h.reply(c)(h.createOrder(c.Request.Context(), in, user))
}

// ListOrders returns the caller's orders, optionally narrowed by ?status=
func (h *Handler) ListOrders(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	var in ViewOrdersInput
	if err := c.ShouldBindQuery(&in); err != nil {
		failErr(c, validationError(err))
		return
	}
	h.reply(c)(h.viewOrders(c.Request.Context(), in, user))
}

// GetOrder returns one order with items and status history
func (h *Handler) GetOrder(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.reply(c)(h.viewOrder(c.Request.Context(), ViewOrderInput{OrderID: id}, user))
}

type statusBody struct {
	Status models.OrderStatus `json:"status" binding:"required,orderstatus"`
}

// UpdateOrderStatus moves an order to the requested status
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		failErr(c, validationError(err))
		return
	}
	in := EditOrderInput{ID: id, Status: body.Status}
	h.reply(c)(h.editOrder(c.Request.Context(), in, user))
}

// TakeOrder assigns the calling driver to an order
func (h *Handler) TakeOrder(c *gin.Context) {
	user, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.reply(c)(h.takeOrder(c.Request.Context(), TakeOrderInput{ID: id}, user))
}

// reply writes the result of an operation
func (h *Handler) reply(c *gin.Context) func(gin.H, error) {
	return func(payload gin.H, err error) {
		if err != nil {
			if orders.KindOf(err) == orders.KindInternal {
				h.log.Warn("operation failed", "path", c.FullPath(), "error", err)
			}
			failErr(c, err)
			return
		}
		succeed(c, payload)
	}
}

// caller returns the authorized user or aborts when the route let an
// anonymous request through
func caller(c *gin.Context) (*models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.Deny(c, middleware.ErrMissingToken)
		return nil, false
	}
	return user, true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		failErr(c, orders.Validation("Invalid order id"))
		return 0, false
	}
	return uint(id), true
}
