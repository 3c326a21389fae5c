package pubsub

import (
	"log/slog"
	"sync"

	"food-ordering-api/models"
)

// Subscription is one open stream on a channel. It lives until Close is
// called or the bus shuts down, whichever comes first.
type Subscription struct {
	ID      string
	Channel Channel
	Args    Args
	Caller  *models.User

	route  Route
	events chan Event
	bus    *Bus
	once   sync.Once
}

// Events yields delivered events. The channel is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close deregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.remove(s)
}

func (s *Subscription) accepts(payload any, log *slog.Logger) (ok bool) {
	if s.route.Filter == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("subscription filter panicked", "channel", s.Channel, "subscription", s.ID, "panic", r)
			ok = false
		}
	}()
	return s.route.Filter(payload, s.Args, s.Caller)
}

func (s *Subscription) resolve(payload any) any {
	if s.route.Resolve == nil {
		return payload
	}
	return s.route.Resolve(payload)
}
