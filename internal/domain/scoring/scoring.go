// Package scoring turns a politician's actions and the user's weighted
// priorities into a score and a per-priority breakdown.
package scoring

import (
	"maps"
	"slices"
	"strings"

	"github.com/okian/vigia/internal/domain/mapping"
	"github.com/okian/vigia/internal/domain/model"
)

// Default display range.
const (
	DefaultDisplayMin = 0.0
	DefaultDisplayMax = 10.0
)

// Mapper resolves an action category to a priority id or mapping.Unmapped.
type Mapper interface {
	Resolve(category string) string
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMapper sets the category mapper.
func WithMapper(m Mapper) Option {
	return func(a *Aggregator) {
		if m != nil {
			a.mapper = m
		}
	}
}

// WithRescaler sets the breakdown rescale function.
func WithRescaler(r Rescaler) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.rescaler = r
		}
	}
}

// Input is everything needed to score one politician.
type Input struct {
	PoliticianID string
	Priorities   []model.Priority
	Actions      []model.Action
}

// Result is the derived part of a politician view.
type Result struct {
	PoliticianID string
	Score        model.Score
	// Breakdown holds a rescaled value for every priority in the set with at
	// least one contributing action, including zero-weight ones.
	Breakdown map[string]float64
	// Contributions counts contributing actions per priority id.
	Contributions map[string]int
	// Unmapped counts actions excluded from scoring.
	Unmapped int
	// UnmappedCategories counts excluded actions by their original category.
	UnmappedCategories map[string]int
}

// Aggregator computes results. It holds no mutable state and is safe for
// concurrent use.
type Aggregator struct {
	mapper   Mapper
	rescaler Rescaler
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		mapper:   mapping.Default(),
		rescaler: Clamp{Min: DefaultDisplayMin, Max: DefaultDisplayMax},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewTally creates an empty tally using the aggregator's mapper.
func (a *Aggregator) NewTally() *Tally { return NewTally(a.mapper) }

// Tally folds actions in ascending id order into a new tally.
func (a *Aggregator) Tally(actions []model.Action) *Tally {
	sorted := slices.Clone(actions)
	slices.SortFunc(sorted, func(x, y model.Action) int { return strings.Compare(x.ID, y.ID) })

	t := a.NewTally()
	for i := range sorted {
		t.Add(sorted[i])
	}
	return t
}

// Score computes the result for in from scratch.
func (a *Aggregator) Score(in Input) Result { //nolint:gocritic // hugeParam: value input
	res := a.Finalize(a.Tally(in.Actions), in.Priorities)
	res.PoliticianID = in.PoliticianID
	return res
}

// Finalize derives a result from an existing tally under the given priority
// set. Keys resolving to a priority that is not in the set are treated as
// unmapped.
func (a *Aggregator) Finalize(t *Tally, priorities []model.Priority) Result {
	res := Result{
		Breakdown:          make(map[string]float64),
		Contributions:      make(map[string]int),
		UnmappedCategories: make(map[string]int),
	}

	active := make(map[string]struct{}, len(priorities))
	for _, p := range priorities {
		active[p.ID] = struct{}{}
	}

	for key, b := range t.buckets {
		if _, ok := active[key]; ok && key != mapping.Unmapped {
			continue
		}
		res.Unmapped += b.count
		maps.Copy(res.UnmappedCategories, b.categories)
	}

	var num, den float64
	for _, p := range priorities {
		if p.ID == mapping.Unmapped {
			continue
		}
		b, ok := t.buckets[p.ID]
		if !ok || b.count == 0 {
			continue
		}
		v := a.rescaler.Rescale(b.value())
		res.Breakdown[p.ID] = v
		res.Contributions[p.ID] = b.count
		if p.Weight > 0 {
			num += p.Weight * v
			den += p.Weight
		}
	}

	if den > 0 {
		res.Score = model.Defined(num / den)
	}
	return res
}
