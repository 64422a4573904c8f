// Package ranking derives orderings and pairwise comparisons from scored
// politician views.
package ranking

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/types"
)

// scoreScale controls fixed-point scaling from float64, so that scores equal
// to 12 decimal places tie.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	scaled := math.Round(x * scoreScale)
	switch {
	case scaled >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case scaled <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(scaled)
}

type row struct {
	entry   types.Entry
	fp      scoreFP
	defined bool
}

// less returns true if a should appear before b: defined before undefined,
// higher score first, then id ascending.
func less(a, b *row) bool {
	if a.defined != b.defined {
		return a.defined
	}
	if a.defined && a.fp != b.fp {
		return a.fp > b.fp
	}
	return a.entry.PoliticianID < b.entry.PoliticianID
}

// Rank orders views by score descending. Undefined scores sort last with rank
// 0. Equal defined scores share a rank and the next distinct score takes the
// following rank.
func Rank(views []model.PoliticianView) []types.Entry {
	rows := make([]row, len(views))
	for i := range views {
		v, ok := views[i].Score.Value()
		rows[i] = row{
			entry: types.Entry{
				PoliticianID: views[i].ID,
				Name:         views[i].Name,
				Party:        views[i].Party,
				Score:        views[i].Score,
			},
			fp:      toFixedPoint(v),
			defined: ok,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(&rows[i], &rows[j]) })
	assignRanksWithTies(rows)

	out := make([]types.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].entry
	}
	return out
}

// assignRanksWithTies expects rows already ordered.
func assignRanksWithTies(rows []row) {
	currentRank := 0
	for i := range rows {
		if !rows[i].defined {
			return
		}
		if i == 0 || rows[i].fp != rows[i-1].fp {
			currentRank++
		}
		rows[i].entry.Rank = currentRank
	}
}

// Compare returns the per-priority difference a - b over the union of both
// breakdowns, ordered by priority id.
func Compare(a, b *model.PoliticianView) []types.Difference {
	keys := make([]string, 0, len(a.Breakdown)+len(b.Breakdown))
	for k := range a.Breakdown {
		keys = append(keys, k)
	}
	for k := range b.Breakdown {
		if _, ok := a.Breakdown[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, strings.Compare)

	out := make([]types.Difference, 0, len(keys))
	for _, k := range keys {
		d := types.Difference{PriorityID: k}
		va, okA := a.Breakdown[k]
		vb, okB := b.Breakdown[k]
		if okA {
			d.A = model.Defined(va)
		}
		if okB {
			d.B = model.Defined(vb)
		}
		if okA && okB {
			d.Delta = model.Defined(va - vb)
		}
		out = append(out, d)
	}
	return out
}

// Comparison wraps Compare with the overall score delta.
func Comparison(a, b *model.PoliticianView) types.Comparison {
	c := types.Comparison{A: a.ID, B: b.ID, Differences: Compare(a, b)}
	va, okA := a.Score.Value()
	vb, okB := b.Score.Value()
	if okA && okB {
		c.ScoreDelta = model.Defined(va - vb)
	}
	return c
}
