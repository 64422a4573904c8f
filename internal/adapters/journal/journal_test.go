package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	journal "github.com/okian/vigia/internal/adapters/journal"
	ledger "github.com/okian/vigia/internal/domain/ledger"
	model "github.com/okian/vigia/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func action(id string, impact float64) model.Action {
	return model.Action{
		ID:           id,
		PoliticianID: "joao-silva",
		Title:        "PL " + id,
		Description:  "votou a favor",
		Date:         time.Date(2024, 4, 2, 15, 4, 5, 123456789, time.FixedZone("BRT", -3*3600)),
		Category:     "educação",
		Impact:       impact,
		Source:       "camara.leg.br",
	}
}

func TestSQLiteJournal(t *testing.T) {
	Convey("Given a journal on a fresh file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "actions.db")
		j, err := journal.Open(ctx, path)
		So(err, ShouldBeNil)
		defer j.Close()

		Convey("When writing actions", func() {
			So(j.Write(ctx, action("a2", 7.5)), ShouldBeNil)
			So(j.Write(ctx, action("a1", -3)), ShouldBeNil)

			Convey("Then they should load back in write order with the same content", func() {
				got, err := j.Load(ctx)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].ID, ShouldEqual, "a2")
				So(got[0].Equal(action("a2", 7.5)), ShouldBeTrue)
				So(got[1].Impact, ShouldEqual, -3)
				n, err := j.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})

			Convey("Then writing an id twice should fail as duplicate", func() {
				err := j.Write(ctx, action("a1", -3))
				So(errors.Is(err, journal.ErrDuplicate), ShouldBeTrue)
			})
		})

		Convey("When reopening the file", func() {
			So(j.Write(ctx, action("a1", 1)), ShouldBeNil)
			So(j.Close(), ShouldBeNil)

			again, err := journal.Open(ctx, path)
			So(err, ShouldBeNil)
			defer again.Close()

			Convey("Then earlier writes should survive", func() {
				got, err := again.Load(ctx)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When closed", func() {
			So(j.Close(), ShouldBeNil)
			So(j.Close(), ShouldBeNil)

			Convey("Then every operation should fail with ErrClosed", func() {
				So(errors.Is(j.Write(ctx, action("a9", 1)), journal.ErrClosed), ShouldBeTrue)
				_, err := j.Load(ctx)
				So(errors.Is(err, journal.ErrClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := journal.Open(context.Background(), " ")
		So(err, ShouldNotBeNil)
	})
}

func TestJournalBackedLedger(t *testing.T) {
	Convey("Given a ledger writing through a journal", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "ledger.db")
		j, err := journal.Open(ctx, path)
		So(err, ShouldBeNil)
		defer j.Close()

		l := ledger.NewInMemoryLedger(ledger.WithJournal(j))
		_, err = l.Append(ctx, action("a1", 5))
		So(err, ShouldBeNil)
		_, err = l.Append(ctx, action("a1", 5))
		So(err, ShouldBeNil)
		_, err = l.Append(ctx, action("a2", 6))
		So(err, ShouldBeNil)

		Convey("When a new ledger replays the journal", func() {
			loaded, err := j.Load(ctx)
			So(err, ShouldBeNil)
			rebuilt := ledger.NewInMemoryLedger()
			n, err := rebuilt.Replay(ctx, loaded)

			Convey("Then it should hold the same actions", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(rebuilt.Len(), ShouldEqual, l.Len())
				got, _ := rebuilt.Get("a2")
				want, _ := l.Get("a2")
				So(got.Equal(want), ShouldBeTrue)
			})
		})
	})
}
