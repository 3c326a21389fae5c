package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"food-ordering-api/middleware"
	"food-ordering-api/orders"
	"food-ordering-api/pubsub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4 * 1024
)

// Frame is one pushed event on a subscription socket
type Frame struct {
	OK      bool           `json:"ok"`
	Channel pubsub.Channel `json:"channel"`
	Data    any            `json:"data"`
}

type orderUpdatesQuery struct {
	OrderID uint `form:"orderId" binding:"required"`
}

// PendingOrders streams newly placed orders of the caller's restaurants
func (h *Handler) PendingOrders(c *gin.Context) {
	h.subscribe(c, pubsub.NewPendingOrder, pubsub.Args{})
}

// CookedOrders streams orders that became ready for pickup
func (h *Handler) CookedOrders(c *gin.Context) {
	h.subscribe(c, pubsub.CookedOrder, pubsub.Args{})
}

// OrderUpdates streams changes to the order named by ?orderId=
func (h *Handler) OrderUpdates(c *gin.Context) {
	var q orderUpdatesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		failErr(c, validationError(err))
		return
	}
	h.subscribe(c, pubsub.OrderUpdate, pubsub.Args{OrderID: q.OrderID})
}

func (h *Handler) subscribe(c *gin.Context, ch pubsub.Channel, args pubsub.Args) {
	user := middleware.CurrentUser(c)
	if user == nil {
		middleware.Deny(c, middleware.ErrMissingToken)
		return
	}
	sub, err := h.bus.Subscribe(ch, args, user)
	if err != nil {
		if errors.Is(err, pubsub.ErrClosed) {
			fail(c, http.StatusServiceUnavailable, "Server is shutting down")
			return
		}
		h.log.Error("subscribe failed", "channel", ch, "error", err)
		failErr(c, orders.ErrInternal)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Warn("websocket upgrade failed", "channel", ch, "error", err)
		sub.Close()
		return
	}

	s := &session{
		conn: conn,
		sub:  sub,
		log:  h.log.With("channel", ch, "subscription", sub.ID, "user_id", user.ID),
	}
	s.log.Debug("subscription socket opened")
	go s.writePump()
	go s.readPump()
}

// session couples one socket with one subscription. Whichever pump stops
// first ends both.
type session struct {
	conn *websocket.Conn
	sub  *pubsub.Subscription
	log  *slog.Logger
}

// readPump only watches for the client going away; inbound messages are
// discarded.
func (s *session) readPump() {
	defer func() {
		s.sub.Close()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("subscription socket error", "error", err)
			}
			return
		}
	}
}

// writePump forwards events until the subscription ends, pinging the client
// in between.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.sub.Events():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription closed"))
				s.log.Debug("subscription socket closed")
				return
			}
			if err := s.conn.WriteJSON(Frame{OK: true, Channel: ev.Channel, Data: ev.Data}); err != nil {
				s.log.Debug("subscription write failed", "error", err)
				s.sub.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.sub.Close()
				return
			}
		}
	}
}
