package types_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/vigia/internal/domain/model"
	types "github.com/okian/vigia/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryJSON(t *testing.T) {
	Convey("Given ranking entries", t, func() {
		Convey("When the score is defined", func() {
			data, err := json.Marshal(types.Entry{Rank: 1, PoliticianID: "p1", Score: model.Defined(7.25)})

			Convey("Then the wire shape should carry rank and score state", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":1,"politician_id":"p1","score":{"state":"defined","value":7.25}}`)
			})
		})

		Convey("When the score is undefined", func() {
			data, err := json.Marshal(types.Entry{PoliticianID: "p2"})

			Convey("Then rank 0 and insufficient data should be explicit", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":0,"politician_id":"p2","score":{"state":"insufficient_data"}}`)
			})
		})
	})
}

func TestDifferenceJSON(t *testing.T) {
	Convey("Given a difference with a missing side", t, func() {
		d := types.Difference{PriorityID: "health", A: model.Defined(4)}

		Convey("When encoding it", func() {
			data, err := json.Marshal(d)

			Convey("Then the delta should read as insufficient data rather than zero", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"delta":{"state":"insufficient_data"}`)
				So(string(data), ShouldContainSubstring, `"b":{"state":"insufficient_data"}`)
			})
		})
	})
}
