package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	service "github.com/okian/vigia/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_Journal(t *testing.T) {
	Convey("Given a service persisting actions to a journal", t, func() {
		path := filepath.Join(t.TempDir(), "actions.db")
		svc, ctx := startService(service.WithJournalPath(path))
		So(svc.SetPriorities(ctx, educationAndHealth()), ShouldBeNil)

		_, err := svc.AppendAction(ctx, action("a1", "ana", "education", 8, 0))
		So(err, ShouldBeNil)
		_, err = svc.AppendAction(ctx, action("a2", "ana", "sus", 4, 1))
		So(err, ShouldBeNil)
		_, err = svc.AppendAction(ctx, action("a3", "bia", "pesca", 2, 2))
		So(err, ShouldBeNil)
		_, err = svc.AppendAction(ctx, action("a1", "ana", "education", 8, 0))
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("When a new service opens the same journal", func() {
			restarted, ctx := startService(service.WithJournalPath(path))
			defer restarted.Stop()

			Convey("Then every action is replayed", func() {
				So(restarted.GetStats()["actions"], ShouldEqual, 3)
				v, err := restarted.Politician(ctx, "ana")
				So(err, ShouldBeNil)
				So(v.RecentActions, ShouldHaveLength, 2)
				So(v.Score.IsDefined(), ShouldBeFalse)

				Convey("And scores come back once priorities are set", func() {
					So(restarted.SetPriorities(ctx, educationAndHealth()), ShouldBeNil)
					v, _ := restarted.Politician(ctx, "ana")
					score, ok := v.Score.Value()
					So(ok, ShouldBeTrue)
					So(score, ShouldAlmostEqual, 20.0/3.0, 1e-9)

					b, _ := restarted.Politician(ctx, "bia")
					So(b.Unmapped, ShouldEqual, 1)
				})
			})

			Convey("And a second rebuild applies nothing new", func() {
				n, err := restarted.Rebuild(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service without a journal", t, func() {
		svc, ctx := startService()
		defer svc.Stop()

		_, err := svc.Rebuild(ctx)
		So(errors.Is(err, service.ErrNoJournal), ShouldBeTrue)
	})

	Convey("Given a journal path that cannot be opened", t, func() {
		svc := service.New(service.WithJournalPath(filepath.Join(t.TempDir(), "missing", "dir", "actions.db")))
		So(svc.Start(context.Background()), ShouldNotBeNil)
	})
}

func TestService_RebuildDuringAppends(t *testing.T) {
	Convey("Given a journaled service with raw breakdown sums", t, func() {
		path := filepath.Join(t.TempDir(), "actions.db")
		svc, ctx := startService(service.WithJournalPath(path), service.WithRescale("identity", 0, 0))
		defer svc.Stop()
		So(svc.SetPriorities(ctx, educationAndHealth()), ShouldBeNil)

		Convey("When rebuilds run while actions are appended", func() {
			const total = 3000
			stop := make(chan struct{})
			var wg sync.WaitGroup
			var rebuildErr error
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					if _, err := svc.Rebuild(ctx); err != nil {
						rebuildErr = err
						return
					}
				}
			}()

			var appendErr error
			for i := range total {
				if _, err := svc.AppendAction(ctx, action(fmt.Sprintf("c%d", i), "caio", "education", 1, 0)); err != nil {
					appendErr = err
					break
				}
			}
			close(stop)
			wg.Wait()

			Convey("Then every action should be counted exactly once", func() {
				So(appendErr, ShouldBeNil)
				So(rebuildErr, ShouldBeNil)
				v, err := svc.Politician(ctx, "caio")
				So(err, ShouldBeNil)
				So(v.Breakdown["education"], ShouldEqual, total)
			})
		})
	})
}
