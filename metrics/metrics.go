// Package metrics holds the Prometheus collectors for orders, the event bus
// and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ordersCreated     prometheus.Counter
	statusTransitions *prometheus.CounterVec
	orderClaims       *prometheus.CounterVec
	published         *prometheus.CounterVec
	delivered         *prometheus.CounterVec
	dropped           *prometheus.CounterVec
	subscriptions     *prometheus.GaugeVec
	httpRequests      *prometheus.CounterVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders successfully created",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status edits by caller role and target status",
		}, []string{"role", "status"}),
		orderClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_claims_total",
			Help: "Driver claim attempts by result",
		}, []string{"result"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubsub_published_total",
			Help: "Events published per channel",
		}, []string{"channel"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubsub_delivered_total",
			Help: "Events handed to a subscriber per channel",
		}, []string{"channel"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubsub_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		}, []string{"channel"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pubsub_subscriptions",
			Help: "Open subscriptions per channel",
		}, []string{"channel"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(
		m.ordersCreated,
		m.statusTransitions,
		m.orderClaims,
		m.published,
		m.delivered,
		m.dropped,
		m.subscriptions,
		m.httpRequests,
	)
	return m
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) StatusTransition(role, status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(role, status).Inc()
}

// OrderClaim records a take-order attempt: "assigned" or "conflict"
func (m *Metrics) OrderClaim(result string) {
	if m == nil {
		return
	}
	m.orderClaims.WithLabelValues(result).Inc()
}

func (m *Metrics) EventPublished(channel string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(channel).Inc()
}

func (m *Metrics) EventDelivered(channel string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(channel).Inc()
}

func (m *Metrics) EventDropped(channel string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(channel).Inc()
}

// SubscriptionOpened and SubscriptionClosed keep the open-subscription gauge
func (m *Metrics) SubscriptionOpened(channel string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(channel).Inc()
}

func (m *Metrics) SubscriptionClosed(channel string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(channel).Dec()
}

// Middleware counts every request by its route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
