package memstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/pizarra/internal/adapters/storage"
	"github.com/okian/pizarra/internal/adapters/storage/memstore"
	"github.com/okian/pizarra/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBoards(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := memstore.New()

		Convey("Then finding a board reports not found", func() {
			_, err := s.FindBoard(ctx, "ev")
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a board is inserted and updated", func() {
			rec, err := s.InsertBoard(ctx, model.BoardRecord{EventID: "ev", Formation: "4-4-2"})
			So(err, ShouldBeNil)
			So(rec.ID, ShouldNotBeEmpty)
			So(string(rec.Selected), ShouldEqual, "[]")
			So(string(rec.Positions), ShouldEqual, "{}")

			rec.Formation = "4-3-3"
			rec.Selected = json.RawMessage(`["a"]`)
			_, err = s.UpdateBoard(ctx, rec)
			So(err, ShouldBeNil)

			Convey("Then the event has exactly the updated record", func() {
				got, err := s.FindBoard(ctx, "ev")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, rec.ID)
				So(got.Formation, ShouldEqual, "4-3-3")
				So(string(got.Selected), ShouldEqual, `["a"]`)
			})

			Convey("Then mutating a returned record does not leak into the store", func() {
				got, _ := s.FindBoard(ctx, "ev")
				got.Selected[1] = 'z'
				again, _ := s.FindBoard(ctx, "ev")
				So(string(again.Selected), ShouldEqual, `["a"]`)
			})
		})

		Convey("Then updating an unknown record reports not found", func() {
			_, err := s.UpdateBoard(ctx, model.BoardRecord{ID: "x", EventID: "ev"})
			So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the next call is set to fail", func() {
			boom := errors.New("connection reset")
			s.FailNext(boom)

			Convey("Then only that call fails", func() {
				_, err := s.FindBoard(ctx, "ev")
				So(errors.Is(err, boom), ShouldBeTrue)
				_, err = s.FindBoard(ctx, "ev")
				So(errors.Is(err, storage.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestEventsProfilesRatings(t *testing.T) {
	Convey("Given a memory store with profiles", t, func() {
		ctx := context.Background()
		s := memstore.New()
		_, _ = s.UpsertProfile(ctx, model.Player{ID: "p2", Name: "Berta"})
		_, _ = s.UpsertProfile(ctx, model.Player{ID: "p1", Name: "Ana"})

		Convey("Then profiles list by name and honour the limit", func() {
			all, err := s.ListProfiles(ctx, 0)
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 2)
			So(all[0].Name, ShouldEqual, "Ana")

			one, _ := s.ListProfiles(ctx, 1)
			So(len(one), ShouldEqual, 1)
		})

		Convey("When an event is created by p1", func() {
			ev, err := s.CreateEvent(ctx, model.Event{Title: "Entreno", CreatorID: "p1"})
			So(err, ShouldBeNil)
			So(ev.Attendees, ShouldResemble, []string{"p1"})

			Convey("Then attendance toggles are idempotent", func() {
				ev, _ = s.SetAttendance(ctx, ev.ID, "p2", true)
				ev, _ = s.SetAttendance(ctx, ev.ID, "p2", true)
				So(ev.Attendees, ShouldResemble, []string{"p1", "p2"})
				ev, _ = s.SetAttendance(ctx, ev.ID, "p1", false)
				So(ev.Attendees, ShouldResemble, []string{"p2"})
			})

			Convey("Then comments carry the author name", func() {
				_, err := s.AddComment(ctx, model.Comment{EventID: ev.ID, AuthorID: "p2", Text: "voy"})
				So(err, ShouldBeNil)
				cs, _ := s.ListComments(ctx, ev.ID)
				So(len(cs), ShouldEqual, 1)
				So(cs[0].AuthorName, ShouldEqual, "Berta")
			})

			Convey("Then a second rating by the same rater replaces the first", func() {
				a, _ := s.UpsertRating(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: ev.ID, Stars: 2})
				b, _ := s.UpsertRating(ctx, model.Rating{PlayerID: "p1", RaterID: "p2", EventID: ev.ID, Stars: 4})
				So(b.ID, ShouldEqual, a.ID)
				rs, _ := s.ListRatings(ctx, ev.ID)
				So(len(rs), ShouldEqual, 1)
				So(rs[0].Stars, ShouldEqual, 4)
			})
		})
	})
}
