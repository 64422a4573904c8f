package auth_test

import (
	"testing"

	auth "github.com/okian/vigia/internal/domain/auth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStaticProvider(t *testing.T) {
	Convey("Given a static provider", t, func() {
		p := auth.NewStaticProvider()

		Convey("When nobody signed in", func() {
			_, ok := p.CurrentUser()
			So(ok, ShouldBeFalse)
		})

		Convey("When handlers are registered", func() {
			var events []string
			unsubA := p.OnChange(func(u auth.User, in bool) {
				if in {
					events = append(events, "a:in:"+u.ID)
				} else {
					events = append(events, "a:out")
				}
			})
			p.OnChange(func(u auth.User, in bool) {
				events = append(events, "b")
			})

			p.SignIn(auth.User{ID: "u1", Name: "Ana"})

			Convey("Then the current user should be visible and handlers called in order", func() {
				u, ok := p.CurrentUser()
				So(ok, ShouldBeTrue)
				So(u.Name, ShouldEqual, "Ana")
				So(events, ShouldResemble, []string{"a:in:u1", "b"})
			})

			Convey("Then unsubscribed handlers should stop receiving", func() {
				unsubA()
				unsubA()
				p.SignOut()
				So(events, ShouldResemble, []string{"a:in:u1", "b", "b"})
				_, ok := p.CurrentUser()
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a handler reads the provider", func() {
			var seen bool
			p.OnChange(func(auth.User, bool) { _, seen = p.CurrentUser() })
			p.SignIn(auth.User{ID: "u2"})

			Convey("Then it should not deadlock and see the new state", func() {
				So(seen, ShouldBeTrue)
			})
		})
	})
}
