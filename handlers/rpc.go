package handlers

import (
	"context"
	"encoding/json"

	"food-ordering-api/config"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/orders"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// RPCRequest names one operation and carries its input
type RPCRequest struct {
	Operation string          `json:"operation" binding:"required"`
	Input     json.RawMessage `json:"input"`
}

type rpcOp func(h *Handler, ctx context.Context, raw json.RawMessage, user *models.User) (gin.H, error)

var rpcOps = map[string]rpcOp{
	config.OpCreateOrder: rpc((*Handler).createOrder),
	config.OpViewOrder:   rpc((*Handler).viewOrder),
	config.OpViewOrders:  rpc((*Handler).viewOrders),
	config.OpEditOrder:   rpc((*Handler).editOrder),
	config.OpTakeOrder:   rpc((*Handler).takeOrder),
	config.OpMe: func(_ *Handler, _ context.Context, _ json.RawMessage, user *models.User) (gin.H, error) {
		return gin.H{"user": user}, nil
	},
}

// rpc adapts a typed operation: the raw input is decoded into T and checked
// against its binding rules before the operation runs.
func rpc[T any](op func(*Handler, context.Context, T, *models.User) (gin.H, error)) rpcOp {
	return func(h *Handler, ctx context.Context, raw json.RawMessage, user *models.User) (gin.H, error) {
		if user == nil {
			return nil, orders.ErrUnauthorized
		}
		var in T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, orders.Validation("Invalid input: " + err.Error())
			}
		}
		if err := binding.Validator.ValidateStruct(&in); err != nil {
			return nil, validationError(err)
		}
		return op(h, ctx, in, user)
	}
}

// RPC serves POST /api/rpc. The caller is authorized against the policy of
// the named operation.
func (h *Handler) RPC(c *gin.Context) {
	var req RPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failErr(c, validationError(err))
		return
	}
	op, found := rpcOps[req.Operation]
	policy, configured := h.auth.Policy(req.Operation)
	if !found || !configured {
		failErr(c, orders.Validation("Unknown operation: "+req.Operation))
		return
	}

	user, err := h.auth.Resolve(c.Request.Context(), middleware.TokenFrom(c), policy)
	if err != nil {
		middleware.Deny(c, err)
		return
	}
	h.reply(c)(op(h, c.Request.Context(), req.Input, user))
}
