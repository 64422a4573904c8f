package ingest_test

import (
	"testing"

	"github.com/okian/vigia/internal/ingest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := ingest.NewGenerator(7)
		b := ingest.NewGenerator(7)

		pa := a.Politicians(5)
		pb := b.Politicians(5)
		aa := a.Actions(200, pa)
		ab := b.Actions(200, pb)

		Convey("Then they should produce the same data", func() {
			So(pa, ShouldResemble, pb)
			So(len(aa), ShouldEqual, 200)
			for i := range aa {
				So(aa[i].Equal(ab[i]), ShouldBeTrue)
			}
		})

		Convey("Then politician ids should be sequential", func() {
			So(pa[0].ID, ShouldEqual, "pol-0001")
			So(pa[4].ID, ShouldEqual, "pol-0005")
		})

		Convey("Then actions should stay in range and reference known politicians", func() {
			known := map[string]bool{}
			for _, p := range pa {
				known[p.ID] = true
			}
			ids := map[string]bool{}
			for _, act := range aa {
				So(act.Impact, ShouldBeBetweenOrEqual, -10, 10)
				So(known[act.PoliticianID], ShouldBeTrue)
				So(act.Category, ShouldNotBeEmpty)
				So(act.Date.IsZero(), ShouldBeFalse)
				ids[act.ID] = true
			}
			So(len(ids), ShouldEqual, len(aa))
		})
	})

	Convey("Given a different seed", t, func() {
		a := ingest.NewGenerator(1).Actions(10, ingest.NewGenerator(1).Politicians(3))
		b := ingest.NewGenerator(2).Actions(10, ingest.NewGenerator(2).Politicians(3))

		Convey("Then action ids should differ", func() {
			So(a[0].ID, ShouldNotEqual, b[0].ID)
		})
	})

	Convey("Given duplicates are requested", t, func() {
		g := ingest.NewGenerator(3)
		actions := g.Actions(100, g.Politicians(4))
		out := g.WithDuplicates(actions, 0.1)

		Convey("Then copies should be appended", func() {
			So(len(out), ShouldEqual, 110)
			ids := map[string]int{}
			for _, a := range out {
				ids[a.ID]++
			}
			So(len(ids), ShouldEqual, 100)
		})

		Convey("Then a zero share should leave actions untouched", func() {
			So(g.WithDuplicates(actions, 0), ShouldResemble, actions)
		})
	})

	Convey("Given no politicians", t, func() {
		So(ingest.NewGenerator(1).Actions(10, nil), ShouldBeNil)
	})
}
