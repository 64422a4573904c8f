package service_test

import (
	"errors"
	"testing"

	service "github.com/okian/vigia/internal/app"
	"github.com/okian/vigia/internal/domain/auth"
	"github.com/okian/vigia/internal/domain/flow"
	"github.com/okian/vigia/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service bound to an auth provider", t, func() {
		provider := auth.NewStaticProvider()
		provider.SignIn(auth.User{ID: "u1", Name: "Ana"})
		svc, ctx := startService(service.WithAuthProvider(provider))
		defer svc.Stop()

		sess, err := svc.StartSession(ctx)
		So(err, ShouldBeNil)
		So(sess.State, ShouldEqual, flow.StateLanding)
		So(sess.UserID, ShouldEqual, "u1")

		Convey("When walking through onboarding", func() {
			_, err := svc.Dispatch(ctx, sess.ID, flow.Event{Type: flow.EventGetStarted})
			So(err, ShouldBeNil)
			_, err = svc.Dispatch(ctx, sess.ID, flow.Event{Type: flow.EventContinue})
			So(err, ShouldBeNil)
			got, err := svc.Dispatch(ctx, sess.ID, flow.Event{
				Type:       flow.EventSetPriorities,
				Priorities: educationAndHealth(),
			})
			So(err, ShouldBeNil)

			Convey("Then the chosen priorities drive scoring", func() {
				So(got.State, ShouldEqual, flow.StatePoliticians)
				prios, version, err := svc.Priorities(ctx)
				So(err, ShouldBeNil)
				So(prios, ShouldResemble, educationAndHealth())
				So(version, ShouldEqual, 1)
			})

			Convey("And the session lists what comes next", func() {
				_, allowed, err := svc.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(allowed, ShouldContain, flow.EventSelectPoliticians)
				So(allowed, ShouldContain, flow.EventBack)
			})

			Convey("And signing out resets the session", func() {
				provider.SignOut()
				got, _, err := svc.Session(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.State, ShouldEqual, flow.StateLanding)
			})
		})

		Convey("When an event is not allowed on the current screen", func() {
			got, err := svc.Dispatch(ctx, sess.ID, flow.Event{Type: flow.EventCompare})

			Convey("Then it is refused and the session is unchanged", func() {
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
				So(got.State, ShouldEqual, flow.StateLanding)
			})
		})

		Convey("When the priorities chosen in the flow are invalid", func() {
			_, _ = svc.Dispatch(ctx, sess.ID, flow.Event{Type: flow.EventGetStarted})
			_, _ = svc.Dispatch(ctx, sess.ID, flow.Event{Type: flow.EventContinue})
			got, err := svc.Dispatch(ctx, sess.ID, flow.Event{
				Type:       flow.EventSetPriorities,
				Priorities: []model.Priority{{ID: "a", Weight: 1}, {ID: "a", Weight: 2}},
			})

			Convey("Then nothing changes", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(got.State, ShouldEqual, flow.StatePriorities)
				_, version, _ := svc.Priorities(ctx)
				So(version, ShouldEqual, 0)
			})
		})

		Convey("When the session is unknown", func() {
			_, err := svc.Dispatch(ctx, "nope", flow.Event{Type: flow.EventGetStarted})
			So(errors.Is(err, flow.ErrUnknownSession), ShouldBeTrue)
			So(errors.Is(svc.EndSession(ctx, "nope"), flow.ErrUnknownSession), ShouldBeTrue)
		})

		Convey("When the session is ended", func() {
			So(svc.EndSession(ctx, sess.ID), ShouldBeNil)
			_, _, err := svc.Session(ctx, sess.ID)
			So(errors.Is(err, flow.ErrUnknownSession), ShouldBeTrue)
			So(svc.GetStats()["sessions"], ShouldEqual, 0)
		})
	})
}
