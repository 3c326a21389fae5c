// Package pubsub is the in-process event bus that pushes order events to
// long-lived subscriptions.
//
// One Bus is built at process start and handed to every publisher and
// subscriber. Delivery is best-effort and at most once: an event published
// while nobody is subscribed is lost, and an event for a subscriber whose
// buffer is full is dropped rather than blocking the publisher.
package pubsub

import (
	"errors"
	"log/slog"
	"sync"

	"food-ordering-api/metrics"
	"food-ordering-api/models"

	"github.com/google/uuid"
)

var (
	ErrUnknownChannel = errors.New("unknown channel")
	ErrClosed         = errors.New("bus closed")
)

// Event is what a subscriber receives: the resolved value for its channel
type Event struct {
	Channel Channel `json:"channel"`
	Data    any     `json:"data"`
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[Channel]map[string]*Subscription
	routes map[Channel]Route
	closed bool

	buffer  int
	log     *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Bus)

// WithBuffer sets the per-subscription event buffer
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithRoute registers or replaces the route of a channel
func WithRoute(ch Channel, r Route) Option {
	return func(b *Bus) { b.routes[ch] = r }
}

// New returns a bus with the order channels' routes registered
func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[Channel]map[string]*Subscription),
		routes: DefaultRoutes(),
		buffer: 16,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", "pubsub")
	return b
}

// Subscribe opens a subscription on ch. args and caller are handed to the
// channel's filter on every publish.
func (b *Bus) Subscribe(ch Channel, args Args, caller *models.User) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	route, ok := b.routes[ch]
	if !ok {
		return nil, ErrUnknownChannel
	}

	sub := &Subscription{
		ID:      uuid.NewString(),
		Channel: ch,
		Args:    args,
		Caller:  caller,
		route:   route,
		events:  make(chan Event, b.buffer),
		bus:     b,
	}
	if b.subs[ch] == nil {
		b.subs[ch] = make(map[string]*Subscription)
	}
	b.subs[ch][sub.ID] = sub
	b.metrics.SubscriptionOpened(string(ch))
	b.log.Debug("subscription opened", "channel", ch, "subscription", sub.ID)
	return sub, nil
}

// Publish hands payload to every subscription on ch whose filter accepts it
// and returns how many received it. It never blocks on a slow subscriber.
func (b *Bus) Publish(ch Channel, payload any) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}
	b.metrics.EventPublished(string(ch))

	delivered := 0
	for _, sub := range b.subs[ch] {
		if !sub.accepts(payload, b.log) {
			continue
		}
		select {
		case sub.events <- Event{Channel: ch, Data: sub.resolve(payload)}:
			delivered++
			b.metrics.EventDelivered(string(ch))
		default:
			b.metrics.EventDropped(string(ch))
			b.log.Warn("subscriber buffer full, event dropped", "channel", ch, "subscription", sub.ID)
		}
	}
	return delivered
}

// Count returns the open subscriptions on ch
func (b *Bus) Count(ch Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[ch])
}

// Close ends every subscription. Later Subscribe calls fail with ErrClosed
// and Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch, subs := range b.subs {
		for id, sub := range subs {
			sub.once.Do(func() { close(sub.events) })
			delete(subs, id)
			b.metrics.SubscriptionClosed(string(ch))
		}
	}
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[sub.Channel]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(b.subs, sub.Channel)
	}
	sub.once.Do(func() { close(sub.events) })
	b.metrics.SubscriptionClosed(string(sub.Channel))
	b.log.Debug("subscription closed", "channel", sub.Channel, "subscription", sub.ID)
}
