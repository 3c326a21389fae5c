package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.StatusTransition("Owner", "Cooked")
		m.OrderClaim("assigned")
		m.EventPublished("orderUpdate")
		m.EventDelivered("orderUpdate")
		m.EventDropped("orderUpdate")
		m.SubscriptionOpened("orderUpdate")
		m.SubscriptionClosed("orderUpdate")
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OrderCreated()
	m.OrderCreated()
	m.OrderClaim("conflict")
	m.SubscriptionOpened("cookedOrder")
	m.SubscriptionOpened("cookedOrder")
	m.SubscriptionClosed("cookedOrder")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderClaims.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptions.WithLabelValues("cookedOrder")))
}

func TestMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/orders/7", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/orders/:id", "418")))
}
