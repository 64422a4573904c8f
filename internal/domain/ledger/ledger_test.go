package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	ledger "github.com/okian/vigia/internal/domain/ledger"
	model "github.com/okian/vigia/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func action(id, politician string, day int, impact float64) model.Action {
	return model.Action{
		ID:           id,
		PoliticianID: politician,
		Title:        "action " + id,
		Date:         base.AddDate(0, 0, day),
		Category:     "educacao",
		Impact:       impact,
		Source:       "camara",
	}
}

func ids(seq func(func(model.Action) bool)) []string {
	var out []string
	for a := range seq {
		out = append(out, a.ID)
	}
	return out
}

type recordingJournal struct {
	mu      sync.Mutex
	written []string
	fail    error
}

func (j *recordingJournal) Write(_ context.Context, a model.Action) error { //nolint:gocritic // test double
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail != nil {
		return j.fail
	}
	j.written = append(j.written, a.ID)
	return nil
}

func TestLedgerAppend(t *testing.T) {
	Convey("Given a new in-memory ledger", t, func() {
		ctx := context.Background()
		l := ledger.NewInMemoryLedger()

		Convey("When appending a valid action", func() {
			added, err := l.Append(ctx, action("a1", "p1", 0, 8))

			Convey("Then it should be recorded", func() {
				So(err, ShouldBeNil)
				So(added, ShouldBeTrue)
				So(l.Len(), ShouldEqual, 1)
				got, ok := l.Get("a1")
				So(ok, ShouldBeTrue)
				So(got.Impact, ShouldEqual, 8)
			})
		})

		Convey("When appending an identical action twice", func() {
			_, err := l.Append(ctx, action("a1", "p1", 0, 8))
			So(err, ShouldBeNil)
			added, err := l.Append(ctx, action("a1", "p1", 0, 8))

			Convey("Then the second append should be a no-op", func() {
				So(err, ShouldBeNil)
				So(added, ShouldBeFalse)
				So(l.Len(), ShouldEqual, 1)
			})
		})

		Convey("When appending different content under an existing id", func() {
			_, err := l.Append(ctx, action("a1", "p1", 0, 8))
			So(err, ShouldBeNil)
			added, err := l.Append(ctx, action("a1", "p1", 0, 7))

			Convey("Then it should fail validation and keep the original", func() {
				So(added, ShouldBeFalse)
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				got, _ := l.Get("a1")
				So(got.Impact, ShouldEqual, 8)
			})
		})

		Convey("When the action is malformed", func() {
			cases := map[string]model.Action{
				"id":            action("", "p1", 0, 1),
				"politician_id": action("a1", "", 0, 1),
				"date":          {ID: "a1", PoliticianID: "p1", Impact: 1},
				"impact":        action("a1", "p1", 0, 10.5),
			}

			Convey("Then each should be rejected on the offending field", func() {
				for field, a := range cases {
					_, err := l.Append(ctx, a)
					var verr *model.ValidationError
					So(errors.As(err, &verr), ShouldBeTrue)
					So(verr.Field, ShouldEqual, field)
				}
				_, err := l.Append(ctx, action("nan", "p1", 0, math.NaN()))
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
				So(l.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the impact sits exactly on the bound", func() {
			_, errLo := l.Append(ctx, action("lo", "p1", 0, -10))
			_, errHi := l.Append(ctx, action("hi", "p1", 1, 10))

			Convey("Then both should be accepted", func() {
				So(errLo, ShouldBeNil)
				So(errHi, ShouldBeNil)
			})
		})
	})
}

func TestLedgerOptions(t *testing.T) {
	Convey("Given ledger options", t, func() {
		ctx := context.Background()

		Convey("When a custom impact bound is set", func() {
			l := ledger.NewInMemoryLedger(ledger.WithImpactBound(-1, 1))
			_, err := l.Append(ctx, action("a1", "p1", 0, 2))

			Convey("Then it should be enforced", func() {
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When a bound wider than the impact cap is set", func() {
			l := ledger.NewInMemoryLedger(ledger.WithImpactBound(-1e10, 1e10))
			_, errAt := l.Append(ctx, action("a1", "p1", 0, ledger.MaxImpactMagnitude))
			_, errNeg := l.Append(ctx, action("a2", "p1", 0, -ledger.MaxImpactMagnitude))
			_, errOver := l.Append(ctx, action("a3", "p1", 0, 1e10))

			Convey("Then it should be clamped to the cap", func() {
				So(errAt, ShouldBeNil)
				So(errNeg, ShouldBeNil)
				So(errors.Is(errOver, model.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When an inverted bound is set", func() {
			l := ledger.NewInMemoryLedger(ledger.WithImpactBound(5, -5))
			_, err := l.Append(ctx, action("a1", "p1", 0, 9))

			Convey("Then the default bound should be kept", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a journal is attached", func() {
			j := &recordingJournal{}
			l := ledger.NewInMemoryLedger(ledger.WithJournal(j))
			_, _ = l.Append(ctx, action("a1", "p1", 0, 1))
			_, _ = l.Append(ctx, action("a1", "p1", 0, 1))

			Convey("Then only new actions should be written", func() {
				So(j.written, ShouldResemble, []string{"a1"})
			})

			Convey("And replayed actions should not be written back", func() {
				n, err := l.Replay(ctx, []model.Action{action("a2", "p1", 1, 1), action("a1", "p1", 0, 1)})
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				So(j.written, ShouldResemble, []string{"a1"})
				So(l.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the journal fails", func() {
			j := &recordingJournal{fail: errors.New("disk full")}
			l := ledger.NewInMemoryLedger(ledger.WithJournal(j))
			added, err := l.Append(ctx, action("a1", "p1", 0, 1))

			Convey("Then nothing should be applied", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "disk full")
				So(added, ShouldBeFalse)
				So(l.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestLedgerActionsFor(t *testing.T) {
	Convey("Given a ledger with actions for two politicians", t, func() {
		ctx := context.Background()
		l := ledger.NewInMemoryLedger()
		for _, a := range []model.Action{
			action("b", "p1", 1, 1),
			action("c", "p1", 3, 1),
			action("a", "p1", 1, 1),
			action("z", "p2", 0, 1),
		} {
			_, err := l.Append(ctx, a)
			So(err, ShouldBeNil)
		}

		Convey("When listing a politician's actions", func() {
			seq := l.ActionsFor("p1")

			Convey("Then they should be newest first with ties by id", func() {
				So(ids(seq), ShouldResemble, []string{"c", "a", "b"})
			})

			Convey("And the sequence should be restartable", func() {
				So(ids(seq), ShouldResemble, ids(seq))
			})

			Convey("And stopping early should be honoured", func() {
				var first []string
				for a := range seq {
					first = append(first, a.ID)
					break
				}
				So(first, ShouldResemble, []string{"c"})
			})

			Convey("And a new pass should observe later appends", func() {
				_, err := l.Append(ctx, action("d", "p1", 9, 1))
				So(err, ShouldBeNil)
				So(ids(seq)[0], ShouldEqual, "d")
			})
		})

		Convey("When listing an unknown politician", func() {
			Convey("Then the sequence should be empty", func() {
				So(ids(l.ActionsFor("nobody")), ShouldBeEmpty)
			})
		})

		Convey("When listing politicians", func() {
			Convey("Then they should be sorted", func() {
				So(l.Politicians(), ShouldResemble, []string{"p1", "p2"})
			})
		})
	})
}

func TestLedgerConcurrency(t *testing.T) {
	Convey("Given concurrent appends with colliding ids", t, func() {
		ctx := context.Background()
		l := ledger.NewInMemoryLedger()
		const goroutines = 20

		var wg sync.WaitGroup
		var mu sync.Mutex
		var added, conflicts int
		for i := range goroutines {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// even goroutines share content, odd ones conflict with them
				impact := float64(i % 2)
				ok, err := l.Append(ctx, action("shared", "p1", 0, impact))
				mu.Lock()
				defer mu.Unlock()
				if ok {
					added++
				}
				if errors.Is(err, model.ErrValidation) {
					conflicts++
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one writer should win and the losers with other content fail", func() {
			So(added, ShouldEqual, 1)
			So(conflicts, ShouldEqual, goroutines/2)
			So(l.Len(), ShouldEqual, 1)
		})

		Convey("Then distinct ids should all be recorded", func() {
			var wg2 sync.WaitGroup
			for i := range goroutines {
				wg2.Add(1)
				go func(i int) {
					defer wg2.Done()
					_, _ = l.Append(ctx, action(fmt.Sprintf("a-%02d", i), "p2", i, 1))
				}(i)
			}
			wg2.Wait()
			got := ids(l.ActionsFor("p2"))
			So(len(got), ShouldEqual, goroutines)
			So(slices.IsSorted(got), ShouldBeFalse)
			So(got[0], ShouldEqual, fmt.Sprintf("a-%02d", goroutines-1))
		})
	})
}
