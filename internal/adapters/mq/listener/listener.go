// Package listener reloads the active event's board when its record changes.
package listener

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pizarra/internal/adapters/mq/dedupe"
	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/pkg/logger"
	"github.com/okian/pizarra/pkg/metrics"
)

// Board record table and the column notifications are filtered on.
const (
	BoardTable  = "pizarras_tacticas"
	EventColumn = "evento_id"
)

// Reloader reloads an event's board from the store.
type Reloader interface {
	Reload(ctx context.Context, eventID string) error
}

// Topic returns the change channel of eventID's board record.
func Topic(eventID string) feed.Topic {
	return feed.Topic{
		Name:   "pizarra-" + eventID,
		Table:  BoardTable,
		Filter: feed.Filter{Column: EventColumn, Value: eventID},
	}
}

// Listener consumes one event's board notifications. Inserts and updates
// trigger an unconditional reload; deletes and redelivered versions are
// ignored.
type Listener struct {
	eventID  string
	reloader Reloader
	sub      *feed.Subscription
	seen     dedupe.Deduper
	name     string
	log      logger.Logger

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}
}

// Start subscribes to eventID's board changes and runs the listener in a
// goroutine until Stop or ctx cancellation.
func Start(ctx context.Context, sub feed.Subscriber, eventID string, r Reloader, opts ...Option) (*Listener, error) {
	s, err := sub.Subscribe(ctx, Topic(eventID))
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", eventID, err)
	}
	l := &Listener{
		eventID:  eventID,
		reloader: r,
		sub:      s,
		name:     "listener",
		log:      logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.seen == nil {
		l.seen = dedupe.New()
	}
	l.log = l.log.Named(l.name)

	go l.run(context.WithoutCancel(ctx))
	l.log.Debug(ctx, "listening", logger.String("event_id", eventID), logger.String("topic", s.Topic().Name))
	return l, nil
}

// EventID returns the event this listener follows.
func (l *Listener) EventID() string { return l.eventID }

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	events := l.sub.C()
	for {
		select {
		case <-l.shutdown:
			return
		case n, ok := <-events:
			if !ok {
				return
			}
			l.handle(ctx, n)
		}
	}
}

func (l *Listener) handle(ctx context.Context, n feed.Notification) {
	if n.Type != feed.Insert && n.Type != feed.Update {
		return
	}
	select {
	case <-l.shutdown:
		return
	default:
	}

	key := dedupe.VersionKey(n.Row["id"], n.At)
	if l.seen.SeenAndRecord(ctx, key) {
		metrics.RecordRemoteReload("duplicate")
		l.log.Debug(ctx, "version already applied",
			logger.String("event_id", l.eventID),
			logger.String("version", key),
		)
		return
	}

	if err := l.reloader.Reload(ctx, l.eventID); err != nil {
		l.seen.Unrecord(ctx, key)
		metrics.RecordRemoteReload("error")
		l.log.Warn(ctx, "reload after remote change failed",
			logger.String("event_id", l.eventID),
			logger.String("type", string(n.Type)),
			logger.Error(err),
		)
		return
	}
	metrics.RecordRemoteReload("ok")
	l.log.Debug(ctx, "reloaded after remote change",
		logger.String("event_id", l.eventID),
		logger.String("type", string(n.Type)),
	)
}

// Stop tears the subscription down immediately. It does not wait for an
// in-flight reload; use Shutdown for that.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.shutdown)
		l.sub.Close()
	})
}

// Shutdown stops the listener and waits for its goroutine to exit.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.Stop()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		l.log.Warn(ctx, "shutdown timed out", logger.String("event_id", l.eventID))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
