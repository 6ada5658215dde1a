package listener_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/internal/adapters/mq/listener"
	"github.com/okian/pizarra/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type recordingReloader struct {
	mu    sync.Mutex
	calls []string
	err   error
	hit   chan struct{}
}

func newRecorder() *recordingReloader {
	return &recordingReloader{hit: make(chan struct{}, 16)}
}

func (r *recordingReloader) Reload(_ context.Context, eventID string) error {
	r.mu.Lock()
	r.calls = append(r.calls, eventID)
	err := r.err
	r.mu.Unlock()
	r.hit <- struct{}{}
	return err
}

func (r *recordingReloader) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func change(eventID string, typ feed.ChangeType) feed.Notification {
	return feed.Notification{Table: listener.BoardTable, Type: typ, Row: map[string]string{listener.EventColumn: eventID}}
}

func waitHit(r *recordingReloader) bool {
	select {
	case <-r.hit:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestListener(t *testing.T) {
	Convey("Given a listener on event e1", t, func() {
		ctx := context.Background()
		hub := feed.NewHub()
		rec := newRecorder()
		l, err := listener.Start(ctx, hub, "e1", rec, listener.WithLogger(logger.Get()), listener.WithName("test-listener"))
		So(err, ShouldBeNil)
		So(l.EventID(), ShouldEqual, "e1")
		defer func() { _ = l.Shutdown(ctx) }()

		Convey("When an update for e1 arrives", func() {
			hub.Publish(ctx, change("e1", feed.Update))

			Convey("Then the board is reloaded", func() {
				So(waitHit(rec), ShouldBeTrue)
				So(rec.calls, ShouldResemble, []string{"e1"})
			})
		})

		Convey("When an insert arrives", func() {
			hub.Publish(ctx, change("e1", feed.Insert))

			So(waitHit(rec), ShouldBeTrue)
		})

		Convey("When a delete arrives", func() {
			hub.Publish(ctx, change("e1", feed.Delete))
			hub.Publish(ctx, change("e1", feed.Update))

			Convey("Then only the update reloads", func() {
				So(waitHit(rec), ShouldBeTrue)
				So(rec.count(), ShouldEqual, 1)
			})
		})

		Convey("When another event changes", func() {
			hub.Publish(ctx, change("e2", feed.Update))

			Convey("Then nothing is reloaded", func() {
				So(waitHit(rec), ShouldBeFalse)
			})
		})

		Convey("When a reload fails", func() {
			rec.fail(errors.New("store down"))
			hub.Publish(ctx, change("e1", feed.Update))
			So(waitHit(rec), ShouldBeTrue)

			Convey("Then the listener keeps running", func() {
				hub.Publish(ctx, change("e1", feed.Update))
				So(waitHit(rec), ShouldBeTrue)
			})
		})

		Convey("When the same version is delivered twice", func() {
			at := time.Now()
			v := change("e1", feed.Update)
			v.Row["id"] = "rec-1"
			v.At = at
			hub.Publish(ctx, v)
			hub.Publish(ctx, v)
			next := change("e1", feed.Update)
			next.Row["id"] = "rec-1"
			next.At = at.Add(time.Millisecond)
			hub.Publish(ctx, next)

			Convey("Then each version reloads once", func() {
				So(waitHit(rec), ShouldBeTrue)
				So(waitHit(rec), ShouldBeTrue)
				So(waitHit(rec), ShouldBeFalse)
				So(rec.count(), ShouldEqual, 2)
			})
		})

		Convey("When the reload of a version fails", func() {
			rec.fail(errors.New("store down"))
			v := change("e1", feed.Update)
			v.Row["id"] = "rec-2"
			v.At = time.Now()
			hub.Publish(ctx, v)
			So(waitHit(rec), ShouldBeTrue)

			Convey("Then its redelivery is applied", func() {
				rec.fail(nil)
				hub.Publish(ctx, v)
				So(waitHit(rec), ShouldBeTrue)
				hub.Publish(ctx, v)
				So(waitHit(rec), ShouldBeFalse)
				So(rec.count(), ShouldEqual, 2)
			})
		})

		Convey("When the listener is stopped", func() {
			l.Stop()
			So(l.Shutdown(ctx), ShouldBeNil)

			Convey("Then the subscription is gone", func() {
				So(hub.Len(), ShouldEqual, 0)
				So(hub.Publish(ctx, change("e1", feed.Update)), ShouldEqual, 0)
				So(waitHit(rec), ShouldBeFalse)
			})
		})
	})

	Convey("Given a closed hub", t, func() {
		hub := feed.NewHub()
		_ = hub.Close()

		_, err := listener.Start(context.Background(), hub, "e1", newRecorder())
		So(errors.Is(err, feed.ErrClosed), ShouldBeTrue)
	})
}
