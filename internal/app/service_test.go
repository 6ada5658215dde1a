package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/pizarra/internal/adapters/mq/feed"
	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/adapters/storage/memstore"
	service "github.com/okian/pizarra/internal/app"
	"github.com/okian/pizarra/internal/domain/board"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/internal/domain/rating"
	"github.com/okian/pizarra/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newService(store storage.Store) (*service.Service, *feed.Hub) {
	hub := feed.NewHub()
	svc := service.New(storage.NewNotifying(store, hub), hub, service.WithLogger(logger.Get()))
	return svc, hub
}

func TestService_Start(t *testing.T) {
	Convey("Given a store with member profiles", t, func() {
		ctx := context.Background()
		store := memstore.New()
		_, _ = store.UpsertProfile(ctx, model.Player{ID: "p1", Name: "Ana"})
		_, _ = store.UpsertProfile(ctx, model.Player{ID: "p2", Name: "Berta"})
		svc, _ := newService(store)
		defer svc.Stop()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should report a stopped service", func() {
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the directory is preloaded", func() {
				So(len(svc.Profiles(ctx)), ShouldEqual, 2)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})
		})

		Convey("When the preload fails", func() {
			store.FailNext(errors.New("db down"))

			Convey("Then start still succeeds with an empty directory", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Directory().Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSession_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, _ := newService(memstore.New())
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		sess := svc.OpenSession(ctx)

		Convey("Then board operations are rejected before an event is active", func() {
			_, _, err := sess.Toggle(ctx, "p1")
			So(errors.Is(err, service.ErrNoActiveEvent), ShouldBeTrue)
			_, err = sess.Save(ctx)
			So(errors.Is(err, service.ErrNoActiveEvent), ShouldBeTrue)
		})

		Convey("When an event without a saved board is activated", func() {
			snap, err := sess.Activate(ctx, "ev-1")
			So(err, ShouldBeNil)

			Convey("Then the board is ready with defaults", func() {
				So(snap.Ready, ShouldBeTrue)
				So(snap.EventID, ShouldEqual, "ev-1")
				So(snap.Formation, ShouldEqual, "4-4-2")
				So(snap.Selection, ShouldBeEmpty)
				So(snap.Capacity, ShouldEqual, 11)
			})

			Convey("Then stats report the active event and its board", func() {
				stats := svc.GetStats()
				So(stats["active_events"], ShouldResemble, []string{"ev-1"})
				So(stats["boards"], ShouldEqual, 1)
			})

			Convey("Then the twelfth distinct toggle is rejected", func() {
				for i := 0; i < 11; i++ {
					_, _, err := sess.Toggle(ctx, string(rune('a'+i)))
					So(err, ShouldBeNil)
				}
				_, snap, err := sess.Toggle(ctx, "z")
				So(errors.Is(err, board.ErrCapacity), ShouldBeTrue)
				So(len(snap.Selection), ShouldEqual, 11)
			})

			Convey("Then an unknown player resolves to a placeholder", func() {
				_, snap, err := sess.Toggle(ctx, "9f8e7d6c")
				So(err, ShouldBeNil)
				So(snap.Selection[0].Name, ShouldEqual, "Jugador 9f8e")
			})

			Convey("Then an empty player id is rejected", func() {
				_, _, err := sess.Toggle(ctx, "")
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			})

			Convey("Then the formation accepts any label", func() {
				snap, err := sess.SetFormation("rombo libre")
				So(err, ShouldBeNil)
				So(snap.Formation, ShouldEqual, "rombo libre")
			})
		})

		Convey("When the session is closed", func() {
			So(svc.CloseSession(ctx, sess.ID()), ShouldBeNil)

			Convey("Then it is gone and rejects activation", func() {
				_, err := svc.Session(sess.ID())
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				_, err = sess.Activate(ctx, "ev-1")
				So(errors.Is(err, service.ErrSessionClosed), ShouldBeTrue)
				So(errors.Is(svc.CloseSession(ctx, sess.ID()), service.ErrSessionNotFound), ShouldBeTrue)
			})

			Convey("Then watching yields a closed channel", func() {
				ch, cancel := sess.Watch()
				defer cancel()
				_, open := <-ch
				So(open, ShouldBeFalse)
			})
		})
	})
}

func TestSession_LayoutAndDrag(t *testing.T) {
	Convey("Given an active board with one selected player", t, func() {
		ctx := context.Background()
		svc, _ := newService(memstore.New())
		defer svc.Stop()
		sess := svc.OpenSession(ctx)
		_, err := sess.Activate(ctx, "ev-1")
		So(err, ShouldBeNil)
		_, _, err = sess.Toggle(ctx, "x")
		So(err, ShouldBeNil)

		Convey("Then nothing is placed while the surface is unmeasured", func() {
			So(sess.Snapshot().Positions, ShouldBeEmpty)
		})

		Convey("When the surface is measured", func() {
			outcome, snap := sess.Resize(model.Surface{Width: 300, Height: 400})

			Convey("Then the player is seeded inside the surface", func() {
				So(outcome, ShouldEqual, layout.OutcomeSeeded)
				c := snap.Positions["x"]
				So(c.X, ShouldBeBetweenOrEqual, 0, 240)
				So(c.Y, ShouldBeBetweenOrEqual, 0, 340)
			})

			Convey("Then resizing again rescales idempotently", func() {
				outcome, first := sess.Resize(model.Surface{Width: 100, Height: 100})
				So(outcome, ShouldEqual, layout.OutcomeRescaled)
				_, second := sess.Resize(model.Surface{Width: 100, Height: 100})
				So(second.Positions, ShouldResemble, first.Positions)
				So(first.Positions["x"].X, ShouldBeLessThanOrEqualTo, 40)
			})

			Convey("When the player is dragged far past the corner", func() {
				start := snap.Positions["x"]
				res, err := sess.Drag(drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseStart, PlayerID: "x", X: 10, Y: 10})
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeTrue)

				res, err = sess.Drag(drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseMove, X: 1010, Y: 1010})
				So(err, ShouldBeNil)

				Convey("Then the coordinate is clamped to the surface bounds", func() {
					So(*res.Coordinate, ShouldResemble, model.Coordinate{X: 240, Y: 340})
					So(sess.Snapshot().Positions["x"], ShouldResemble, model.Coordinate{X: 240, Y: 340})
					So(start, ShouldNotResemble, model.Coordinate{X: 240, Y: 340})
				})

				Convey("Then the gesture ends on release", func() {
					res, err := sess.Drag(drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseEnd})
					So(err, ShouldBeNil)
					So(res.State, ShouldEqual, "idle")
					So(sess.Snapshot().Dragging, ShouldBeEmpty)
				})
			})

			Convey("Then dragging an unselected player is rejected", func() {
				_, err := sess.Drag(drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseStart, PlayerID: "ghost"})
				So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			})

			Convey("Then a touch move suppresses scrolling", func() {
				_, err := sess.Drag(drag.InputEvent{Kind: drag.KindTouch, Phase: drag.PhaseStart, PlayerID: "x", Touches: []drag.Point{{X: 5, Y: 5}}})
				So(err, ShouldBeNil)
				res, err := sess.Drag(drag.InputEvent{Kind: drag.KindTouch, Phase: drag.PhaseMove, Touches: []drag.Point{{X: 6, Y: 6}}})
				So(err, ShouldBeNil)
				So(res.PreventDefault, ShouldBeTrue)
			})
		})
	})
}

func TestSession_Watch(t *testing.T) {
	Convey("Given a watched session", t, func() {
		ctx := context.Background()
		svc, _ := newService(memstore.New())
		defer svc.Stop()
		sess := svc.OpenSession(ctx)
		ch, cancel := sess.Watch()
		defer cancel()

		Convey("When an event is activated", func() {
			_, err := sess.Activate(ctx, "ev-9")
			So(err, ShouldBeNil)

			Convey("Then the watcher receives the new snapshot", func() {
				select {
				case snap := <-ch:
					So(snap.EventID, ShouldEqual, "ev-9")
				case <-time.After(time.Second):
					So("no snapshot", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestSession_StoredSelection(t *testing.T) {
	Convey("Given a stored board that embeds player snapshots", t, func() {
		ctx := context.Background()
		store := memstore.New()
		_, _ = store.UpsertProfile(ctx, model.Player{ID: "a", Name: "Ana"})
		_, err := store.InsertBoard(ctx, model.BoardRecord{
			EventID:   "ev-legacy",
			Formation: "4-3-3",
			Selected:  json.RawMessage(`[{"id":"a","nombre":"Ana Vieja"},{"id":"z","nombre":"Zoe"},{"id":"q123456"}]`),
		})
		So(err, ShouldBeNil)
		svc, _ := newService(store)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		sess := svc.OpenSession(ctx)

		Convey("When the event is activated", func() {
			snap, err := sess.Activate(ctx, "ev-legacy")
			So(err, ShouldBeNil)

			Convey("Then players resolve through the directory", func() {
				So(snap.Selection, ShouldHaveLength, 3)
				So(snap.Selection[0].Name, ShouldEqual, "Ana")
				So(snap.Selection[1].Name, ShouldEqual, "Zoe")
				So(snap.Selection[2].Name, ShouldEqual, "Jugador q123")
				So(snap.Selection[2].Position, ShouldEqual, "Sin posición")
			})
		})
	})
}

// slowStore blocks board lookups of one event until released.
type slowStore struct {
	*memstore.Store
	slowEvent string
	entered   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (s *slowStore) FindBoard(ctx context.Context, eventID string) (model.BoardRecord, error) {
	if eventID == s.slowEvent {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.Store.FindBoard(ctx, eventID)
}

func TestSession_StaleLoad(t *testing.T) {
	Convey("Given a load that is still in flight", t, func() {
		ctx := context.Background()
		store := &slowStore{
			Store:     memstore.New(),
			slowEvent: "slow",
			entered:   make(chan struct{}),
			release:   make(chan struct{}),
		}
		svc, _ := newService(store)
		defer svc.Stop()
		sess := svc.OpenSession(ctx)

		errCh := make(chan error, 1)
		go func() {
			_, err := sess.Activate(ctx, "slow")
			errCh <- err
		}()
		<-store.entered

		Convey("Then board operations wait for the load", func() {
			_, _, err := sess.Toggle(ctx, "p1")
			So(errors.Is(err, service.ErrNotReady), ShouldBeTrue)
			close(store.release)
			So(<-errCh, ShouldBeNil)
		})

		Convey("When another event is activated before it completes", func() {
			_, err := sess.Activate(ctx, "fast")
			So(err, ShouldBeNil)
			close(store.release)

			Convey("Then the late completion is discarded", func() {
				So(errors.Is(<-errCh, service.ErrStaleEvent), ShouldBeTrue)
				snap := sess.Snapshot()
				So(snap.EventID, ShouldEqual, "fast")
				So(snap.Ready, ShouldBeTrue)
			})
		})
	})
}

func TestService_EventsAndRatings(t *testing.T) {
	Convey("Given a service with an event and members", t, func() {
		ctx := context.Background()
		svc, _ := newService(memstore.New())
		defer svc.Stop()
		for _, p := range []model.Player{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Berta"}, {ID: "p3", Name: "Carla"}} {
			_, err := svc.UpsertProfile(ctx, p)
			So(err, ShouldBeNil)
		}
		ev, err := svc.CreateEvent(ctx, model.Event{Title: "Partido", Date: "2026-10-24", CreatorID: "p1"})
		So(err, ShouldBeNil)
		_, err = svc.SetAttendance(ctx, ev.ID, "p2", true)
		So(err, ShouldBeNil)

		Convey("When the board is seeded from attendees", func() {
			sess := svc.OpenSession(ctx)
			_, err := sess.Activate(ctx, ev.ID)
			So(err, ShouldBeNil)
			snap, err := sess.SeedFromAttendees(ctx)
			So(err, ShouldBeNil)

			Convey("Then the attendees are selected with their names", func() {
				So(len(snap.Selection), ShouldEqual, 2)
				So(snap.Selection[0].Name, ShouldEqual, "Ana")
				So(snap.Selection[1].Name, ShouldEqual, "Berta")
			})
		})

		Convey("When teammates rate each other", func() {
			_, err := svc.Rate(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: ev.ID, Stars: 4})
			So(err, ShouldBeNil)
			_, err = svc.Rate(ctx, model.Rating{PlayerID: "p1", RaterID: "p3", EventID: ev.ID, Stars: 5})
			So(err, ShouldBeNil)
			_, err = svc.Rate(ctx, model.Rating{PlayerID: "p2", RaterID: "p1", EventID: ev.ID, Stars: 3})
			So(err, ShouldBeNil)

			Convey("Then the summary ranks by average with names", func() {
				sums, err := svc.Ratings(ctx, ev.ID)
				So(err, ShouldBeNil)
				So(len(sums), ShouldEqual, 2)
				So(sums[0].Player.Name, ShouldEqual, "Ana")
				So(sums[0].Average, ShouldEqual, 4.5)
				So(sums[0].Count, ShouldEqual, 2)
			})

			Convey("Then self ratings and bad stars are rejected", func() {
				_, err := svc.Rate(ctx, model.Rating{PlayerID: "p1", RaterID: "p1", EventID: ev.ID, Stars: 5})
				So(errors.Is(err, rating.ErrSelfRating), ShouldBeTrue)
				_, err = svc.Rate(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: ev.ID, Stars: 6})
				So(errors.Is(err, rating.ErrInvalidStars), ShouldBeTrue)
			})
		})

		Convey("When comments are added", func() {
			_, err := svc.AddComment(ctx, model.Comment{EventID: ev.ID, AuthorID: "p2", Text: "Llevo petos"})
			So(err, ShouldBeNil)

			Convey("Then they are listed with the author", func() {
				cs, err := svc.Comments(ctx, ev.ID)
				So(err, ShouldBeNil)
				So(len(cs), ShouldEqual, 1)
				So(cs[0].AuthorName, ShouldEqual, "Berta")
			})
		})
	})
}
