package drag_test

import (
	"errors"
	"testing"

	"github.com/okian/pizarra/internal/domain/board"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/layout"
	"github.com/okian/pizarra/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newController(s *model.Surface) *drag.Controller {
	return drag.NewController(
		drag.WithEngine(layout.New()),
		drag.WithSurface(func() model.Surface { return *s }),
	)
}

func TestControllerStateMachine(t *testing.T) {
	Convey("Given an idle controller on a 300x400 surface", t, func() {
		surface := model.Surface{Width: 300, Height: 400}
		ctrl := newController(&surface)
		b := board.NewArena().Board("e1")
		b.SetPosition("x", model.Coordinate{X: 50, Y: 50})

		So(ctrl.State(), ShouldEqual, drag.StateIdle)

		Convey("When moving without a gesture", func() {
			_, err := ctrl.Move(drag.Point{X: 1, Y: 1})

			Convey("Then ErrNotDragging is returned", func() {
				So(errors.Is(err, drag.ErrNotDragging), ShouldBeTrue)
			})
		})

		Convey("When dragging x by (1000, 1000)", func() {
			So(ctrl.Start(b, drag.Point{X: 10, Y: 10}, "x"), ShouldBeNil)
			So(ctrl.State(), ShouldEqual, drag.StateDragging)

			got, err := ctrl.Move(drag.Point{X: 1010, Y: 1010})

			Convey("Then the coordinate is clamped to (240, 340)", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Coordinate{X: 240, Y: 340})
				c, _ := b.Position("x")
				So(c, ShouldResemble, model.Coordinate{X: 240, Y: 340})
			})

			Convey("Then moves are relative to the captured start", func() {
				got, err := ctrl.Move(drag.Point{X: 30, Y: 0})
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Coordinate{X: 70, Y: 40})
			})

			Convey("Then a second start is rejected", func() {
				err := ctrl.Start(b, drag.Point{}, "y")
				So(errors.Is(err, drag.ErrAlreadyDragging), ShouldBeTrue)
			})

			Convey("Then end returns to idle", func() {
				So(ctrl.End(), ShouldBeTrue)
				So(ctrl.State(), ShouldEqual, drag.StateIdle)
				So(ctrl.End(), ShouldBeFalse)
			})

			Convey("Then a resize between moves tightens the bounds", func() {
				surface = model.Surface{Width: 200, Height: 200}
				got, err := ctrl.Move(drag.Point{X: 1010, Y: 1010})
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Coordinate{X: 140, Y: 140})
			})
		})

		Convey("When dragging an unplaced player", func() {
			So(ctrl.Start(b, drag.Point{X: 0, Y: 0}, "new"), ShouldBeNil)
			got, err := ctrl.Move(drag.Point{X: 15, Y: 25})

			Convey("Then it starts from (0, 0)", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, model.Coordinate{X: 15, Y: 25})
			})
		})

		Convey("When the surface is not measured", func() {
			surface = model.Surface{}
			So(ctrl.Start(b, drag.Point{}, "x"), ShouldBeNil)
			_, err := ctrl.Move(drag.Point{X: 5, Y: 5})

			Convey("Then nothing is written", func() {
				So(errors.Is(err, drag.ErrSurfaceUnmeasured), ShouldBeTrue)
				c, _ := b.Position("x")
				So(c, ShouldResemble, model.Coordinate{X: 50, Y: 50})
			})
		})
	})
}

func TestRouter(t *testing.T) {
	Convey("Given a router over a 300x400 surface", t, func() {
		surface := model.Surface{Width: 300, Height: 400}
		ctrl := newController(&surface)
		router := drag.NewRouter(ctrl)
		b := board.NewArena().Board("e1")
		b.SetPosition("x", model.Coordinate{X: 50, Y: 50})

		Convey("When a move arrives before any start", func() {
			res, err := router.Dispatch(b, drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseMove, X: 5, Y: 5})

			Convey("Then it is ignored", func() {
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeFalse)
				So(res.State, ShouldEqual, "idle")
			})
		})

		Convey("When a touch gesture runs", func() {
			res, err := router.Dispatch(b, drag.InputEvent{
				Kind: drag.KindTouch, Phase: drag.PhaseStart, PlayerID: "x",
				Touches: []drag.Point{{X: 100, Y: 100}, {X: 0, Y: 0}},
			})
			So(err, ShouldBeNil)
			So(res.Handled, ShouldBeTrue)
			kind, ok := router.Listening()
			So(ok, ShouldBeTrue)
			So(kind, ShouldEqual, drag.KindTouch)

			Convey("Then touch moves use the first touch and prevent default", func() {
				res, err := router.Dispatch(b, drag.InputEvent{
					Kind: drag.KindTouch, Phase: drag.PhaseMove,
					Touches: []drag.Point{{X: 1100, Y: 1100}},
				})
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeTrue)
				So(res.PreventDefault, ShouldBeTrue)
				So(*res.Coordinate, ShouldResemble, model.Coordinate{X: 240, Y: 340})
			})

			Convey("Then pointer moves are not forwarded", func() {
				res, err := router.Dispatch(b, drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseMove, X: 500, Y: 500})
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeFalse)
				c, _ := b.Position("x")
				So(c, ShouldResemble, model.Coordinate{X: 50, Y: 50})
			})

			Convey("Then a touch move without points fails", func() {
				_, err := router.Dispatch(b, drag.InputEvent{Kind: drag.KindTouch, Phase: drag.PhaseMove})
				So(errors.Is(err, drag.ErrMissingTouchPoints), ShouldBeTrue)
			})

			Convey("Then end deregisters the gesture", func() {
				res, err := router.Dispatch(b, drag.InputEvent{Kind: drag.KindTouch, Phase: drag.PhaseEnd})
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeTrue)
				So(res.PlayerID, ShouldEqual, "x")
				_, ok := router.Listening()
				So(ok, ShouldBeFalse)

				res, err = router.Dispatch(b, drag.InputEvent{Kind: drag.KindTouch, Phase: drag.PhaseMove, Touches: []drag.Point{{X: 1, Y: 1}}})
				So(err, ShouldBeNil)
				So(res.Handled, ShouldBeFalse)
			})
		})

		Convey("When a pointer gesture runs", func() {
			res, err := router.Dispatch(b, drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseStart, PlayerID: "x", X: 0, Y: 0})
			So(err, ShouldBeNil)
			So(res.PreventDefault, ShouldBeTrue)

			res, err = router.Dispatch(b, drag.InputEvent{Kind: drag.KindPointer, Phase: drag.PhaseMove, X: 10, Y: -100})

			Convey("Then pointer moves do not prevent default", func() {
				So(err, ShouldBeNil)
				So(res.PreventDefault, ShouldBeFalse)
				So(*res.Coordinate, ShouldResemble, model.Coordinate{X: 60, Y: 0})
			})

			Convey("Then cancel stops the gesture", func() {
				So(router.Cancel(), ShouldBeTrue)
				So(ctrl.State(), ShouldEqual, drag.StateIdle)
			})
		})

		Convey("When the input kind is unknown", func() {
			_, err := router.Dispatch(b, drag.InputEvent{Kind: "pen", Phase: drag.PhaseStart})
			So(errors.Is(err, drag.ErrUnknownInput), ShouldBeTrue)
		})
	})
}
