// Package feed is the in-process realtime change feed: table changes are
// published once and fanned out to subscriptions keyed by table and row filter.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

const defaultBufferSize = 64

// ChangeType tags a row change.
type ChangeType string

// Row change types.
const (
	Insert ChangeType = "INSERT"
	Update ChangeType = "UPDATE"
	Delete ChangeType = "DELETE"
)

// Filter selects rows whose Column equals Value.
type Filter struct {
	Column string
	Value  string
}

func (f Filter) String() string {
	return f.Column + "=eq." + f.Value
}

// Topic names a channel of changes on one table, optionally filtered.
type Topic struct {
	Name   string
	Table  string
	Filter Filter
}

func (t Topic) matches(n Notification) bool {
	if n.Table != t.Table {
		return false
	}
	if t.Filter.Column == "" {
		return true
	}
	return n.Row[t.Filter.Column] == t.Filter.Value
}

// Notification describes one committed row change.
type Notification struct {
	Table string
	Type  ChangeType
	Row   map[string]string
	At    time.Time
}

// Publisher publishes row changes.
type Publisher interface {
	Publish(ctx context.Context, n Notification) int
}

// Subscriber opens subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, topic Topic) (*Subscription, error)
}

// Subscription receives the notifications matching its topic. Close it to
// stop delivery; the channel is closed afterwards.
type Subscription struct {
	id    string
	topic Topic
	ch    chan Notification
	hub   *Hub
}

// ID returns the subscription id.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() Topic { return s.topic }

// C returns the delivery channel.
func (s *Subscription) C() <-chan Notification { return s.ch }

// Close removes the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.id)
}

// Hub fans notifications out to subscriptions. Delivery never blocks the
// publisher: a full subscription drops the notification.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
	closed     bool
	log        logger.Logger
}

// NewHub creates a Hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:       make(map[string]*Subscription),
		bufferSize: defaultBufferSize,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe opens a subscription for topic.
func (h *Hub) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	if topic.Table == "" {
		return nil, fmt.Errorf("%w: table is required", ErrInvalidTopic)
	}
	if topic.Name == "" {
		topic.Name = topic.Table
		if topic.Filter.Column != "" {
			topic.Name += ":" + topic.Filter.String()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	s := &Subscription{
		id:    uuid.NewString(),
		topic: topic,
		ch:    make(chan Notification, h.bufferSize),
		hub:   h,
	}
	h.subs[s.id] = s
	metrics.UpdateFeedSubscribers(len(h.subs))
	h.log.Debug(ctx, "subscribed", logger.String("topic", topic.Name), logger.String("subscription_id", s.id))
	return s, nil
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(s.ch)
	metrics.UpdateFeedSubscribers(len(h.subs))
}

// Publish delivers n to every matching subscription and returns how many
// received it.
func (h *Hub) Publish(ctx context.Context, n Notification) int {
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	metrics.RecordChangeNotification(string(n.Type))

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}

	delivered := 0
	for _, s := range h.subs {
		if !s.topic.matches(n) {
			continue
		}
		select {
		case s.ch <- n:
			delivered++
		default:
			metrics.RecordChangeDropped()
			h.log.Warn(ctx, "subscription full, notification dropped",
				logger.String("topic", s.topic.Name),
				logger.String("type", string(n.Type)),
			)
		}
	}
	return delivered
}

// Len returns the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later publishes are dropped and later
// subscribes fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
	metrics.UpdateFeedSubscribers(0)
	return nil
}
