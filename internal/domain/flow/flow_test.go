package flow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	auth "github.com/okian/vigia/internal/domain/auth"
	flow "github.com/okian/vigia/internal/domain/flow"
	model "github.com/okian/vigia/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var prios = []model.Priority{{ID: "education", Weight: 2}, {ID: "health", Weight: 1}}

// walk applies events in order and fails the test on the first error.
func walk(s flow.Session, events ...flow.Event) flow.Session {
	for _, e := range events {
		var err error
		s, err = flow.Transition(s, e)
		So(err, ShouldBeNil)
	}
	return s
}

func toDashboard() flow.Session {
	return walk(flow.NewSession("s1", ""),
		flow.Event{Type: flow.EventGetStarted},
		flow.Event{Type: flow.EventContinue},
		flow.Event{Type: flow.EventSetPriorities, Priorities: prios},
		flow.Event{Type: flow.EventSelectPoliticians, PoliticianIDs: []string{"p1", "p2", "p1"}},
	)
}

func TestTransition(t *testing.T) {
	Convey("Given the onboarding flow", t, func() {
		Convey("When walking the happy path", func() {
			s := toDashboard()

			Convey("Then every step should land on the dashboard with its payloads", func() {
				So(s.State, ShouldEqual, flow.StateDashboard)
				So(s.Priorities, ShouldResemble, prios)
				So(s.Selected, ShouldResemble, []string{"p1", "p2"})
				So(s.Step, ShouldEqual, 4)
			})

			Convey("And viewing then going back should return to the dashboard", func() {
				s = walk(s, flow.Event{Type: flow.EventViewPolitician, PoliticianID: "p2"})
				So(s.State, ShouldEqual, flow.StateProfile)
				So(s.Viewing, ShouldEqual, "p2")
				s = walk(s, flow.Event{Type: flow.EventBack})
				So(s.State, ShouldEqual, flow.StateDashboard)
			})

			Convey("And comparing should need two distinct politicians", func() {
				_, err := flow.Transition(s, flow.Event{Type: flow.EventCompare, PoliticianIDs: []string{"p1", "p1"}})
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)

				s = walk(s, flow.Event{Type: flow.EventCompare, PoliticianIDs: []string{"p1", "p2"}})
				So(s.State, ShouldEqual, flow.StateComparison)
				So(s.Comparing, ShouldResemble, []string{"p1", "p2"})
			})

			Convey("And back from the dashboard should reach politician selection", func() {
				s = walk(s, flow.Event{Type: flow.EventBack}, flow.Event{Type: flow.EventBack})
				So(s.State, ShouldEqual, flow.StatePriorities)
			})
		})

		Convey("When an event does not belong to the current state", func() {
			s := flow.NewSession("s1", "")
			next, err := flow.Transition(s, flow.Event{Type: flow.EventCompare})

			Convey("Then it should be an invalid transition and leave the session alone", func() {
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
				So(next, ShouldResemble, s)
			})

			Convey("Then unknown events should be invalid too", func() {
				_, err := flow.Transition(s, flow.Event{Type: "dance"})
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
			})

			Convey("Then back from landing should be invalid", func() {
				_, err := flow.Transition(s, flow.Event{Type: flow.EventBack})
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When priorities are malformed", func() {
			s := walk(flow.NewSession("s1", ""),
				flow.Event{Type: flow.EventGetStarted},
				flow.Event{Type: flow.EventContinue},
			)

			Convey("Then empty, negative and duplicated sets should be rejected", func() {
				for _, bad := range [][]model.Priority{
					nil,
					{{ID: "health", Weight: -1}},
					{{ID: "health", Weight: 1}, {ID: "health", Weight: 2}},
				} {
					next, err := flow.Transition(s, flow.Event{Type: flow.EventSetPriorities, Priorities: bad})
					So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
					So(next.State, ShouldEqual, flow.StatePriorities)
				}
			})
		})

		Convey("When the settings panel is used", func() {
			s := toDashboard()

			Convey("Then it should not open on landing", func() {
				_, err := flow.Transition(flow.NewSession("x", ""), flow.Event{Type: flow.EventOpenSettings})
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
			})

			Convey("Then it should overlay the screen and allow editing priorities", func() {
				s = walk(s, flow.Event{Type: flow.EventOpenSettings})
				So(s.SettingsOpen, ShouldBeTrue)
				So(s.State, ShouldEqual, flow.StateDashboard)

				_, err := flow.Transition(s, flow.Event{Type: flow.EventViewPolitician, PoliticianID: "p1"})
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)

				edited := []model.Priority{{ID: "security", Weight: 5}}
				s = walk(s, flow.Event{Type: flow.EventSetPriorities, Priorities: edited})
				So(s.Priorities, ShouldResemble, edited)
				So(s.State, ShouldEqual, flow.StateDashboard)

				s = walk(s, flow.Event{Type: flow.EventCloseSettings})
				So(s.SettingsOpen, ShouldBeFalse)
			})
		})

		Convey("When transitions run", func() {
			s := toDashboard()
			before := fmt.Sprint(s.Selected)
			next := walk(s, flow.Event{Type: flow.EventCompare, PoliticianIDs: []string{"p9", "p8"}})
			next.Selected[0] = "mutated"

			Convey("Then the input session should never be modified", func() {
				So(fmt.Sprint(s.Selected), ShouldEqual, before)
				So(s.State, ShouldEqual, flow.StateDashboard)
			})
		})
	})
}

func TestAllowed(t *testing.T) {
	Convey("Given sessions in different states", t, func() {
		Convey("Then allowed events should match what Transition accepts", func() {
			So(flow.Allowed(flow.NewSession("x", "")), ShouldResemble, []flow.EventType{flow.EventGetStarted})

			s := toDashboard()
			So(flow.Allowed(s), ShouldResemble, []flow.EventType{
				flow.EventViewPolitician, flow.EventCompare, flow.EventBack, flow.EventOpenSettings,
			})

			s.SettingsOpen = true
			So(flow.Allowed(s), ShouldContain, flow.EventCloseSettings)
		})
	})
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher", t, func() {
		ctx := context.Background()
		n := 0
		gen := func() string { n++; return fmt.Sprintf("sess-%d", n) }

		Convey("When starting sessions with the default generator", func() {
			d := flow.NewDispatcher()
			a, b := d.Start(), d.Start()

			Convey("Then ids should be unique uuids", func() {
				So(a.ID, ShouldNotEqual, b.ID)
				So(len(a.ID), ShouldEqual, 36)
				So(d.Len(), ShouldEqual, 2)
			})
		})

		Convey("When dispatching to an unknown session", func() {
			d := flow.NewDispatcher()
			_, err := d.Dispatch(ctx, "nope", flow.Event{Type: flow.EventGetStarted})
			_, getErr := d.Get("nope")

			Convey("Then it should fail with unknown session", func() {
				So(errors.Is(err, flow.ErrUnknownSession), ShouldBeTrue)
				So(errors.Is(getErr, flow.ErrUnknownSession), ShouldBeTrue)
			})
		})

		Convey("When a hook is installed", func() {
			var seen []flow.EventType
			d := flow.NewDispatcher(flow.WithIDGenerator(gen), flow.WithHook(func(_ context.Context, before, after flow.Session, e flow.Event) error {
				seen = append(seen, e.Type)
				if e.Type == flow.EventContinue {
					return errors.New("registry unavailable")
				}
				return nil
			}))
			s := d.Start()
			_, err := d.Dispatch(ctx, s.ID, flow.Event{Type: flow.EventGetStarted})
			So(err, ShouldBeNil)
			_, err = d.Dispatch(ctx, s.ID, flow.Event{Type: flow.EventContinue})

			Convey("Then a hook error should reject the transition", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "registry unavailable")
				got, _ := d.Get(s.ID)
				So(got.State, ShouldEqual, flow.StateWelcome)
				So(seen, ShouldResemble, []flow.EventType{flow.EventGetStarted, flow.EventContinue})
			})

			Convey("Then invalid transitions should not reach the hook", func() {
				_, err := d.Dispatch(ctx, s.ID, flow.Event{Type: flow.EventCompare})
				So(errors.Is(err, flow.ErrInvalidTransition), ShouldBeTrue)
				So(len(seen), ShouldEqual, 2)
			})
		})

		Convey("When bound to an auth provider", func() {
			p := auth.NewStaticProvider()
			p.SignIn(auth.User{ID: "ana"})
			d := flow.NewDispatcher(flow.WithAuth(p), flow.WithIDGenerator(gen))
			defer d.Close()

			s := d.Start()
			So(s.UserID, ShouldEqual, "ana")
			_, err := d.Dispatch(ctx, s.ID, flow.Event{Type: flow.EventGetStarted})
			So(err, ShouldBeNil)

			Convey("Then signing out should reset the user's sessions", func() {
				p.SignOut()
				got, _ := d.Get(s.ID)
				So(got.State, ShouldEqual, flow.StateLanding)
			})

			Convey("Then re-signing the same user should keep them", func() {
				p.SignIn(auth.User{ID: "ana"})
				got, _ := d.Get(s.ID)
				So(got.State, ShouldEqual, flow.StateWelcome)
			})

			Convey("Then after Close the dispatcher should stop listening", func() {
				So(d.Close(), ShouldBeNil)
				p.SignOut()
				got, _ := d.Get(s.ID)
				So(got.State, ShouldEqual, flow.StateWelcome)
			})
		})
	})
}
