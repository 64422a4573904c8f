package scoring

import (
	"maps"
	"math"

	"github.com/okian/vigia/internal/domain/mapping"
	"github.com/okian/vigia/internal/domain/model"
)

// fixedScale is the number of fixed-point units per impact unit. Sums are kept
// as integers so the result does not depend on the order actions arrive in.
const (
	fixedScale = 1e9
	nanosPer   = int64(fixedScale)
)

// bucket accumulates every action resolving to the same key. The sum is
// units + nanos/fixedScale with nanos kept in [0, fixedScale), so whole
// impacts never pass through the fixed-point multiply and cannot overflow it.
type bucket struct {
	units      int64
	nanos      int64
	count      int
	categories map[string]int
}

func (b *bucket) add(impact float64) {
	whole, frac := math.Modf(impact)
	b.units = addSat(b.units, toInt64(whole))
	if !math.IsNaN(frac) {
		b.nanos += int64(math.Round(frac * fixedScale))
	}
	if b.nanos < 0 || b.nanos >= nanosPer {
		q := b.nanos / nanosPer
		if b.nanos%nanosPer < 0 {
			q--
		}
		b.units = addSat(b.units, q)
		b.nanos -= q * nanosPer
	}
}

func (b *bucket) value() float64 {
	return float64(b.units) + float64(b.nanos)/fixedScale
}

// toInt64 saturates f to the int64 range. NaN maps to zero.
func toInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// addSat adds without wrapping past the int64 range.
func addSat(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

// Tally holds running impact sums for one politician, keyed by the priority
// id each action's category resolves to. A Tally is not safe for concurrent
// use; callers serialize access per politician.
type Tally struct {
	mapper  Mapper
	buckets map[string]*bucket
	total   int
}

// NewTally creates an empty tally resolving categories with m.
func NewTally(m Mapper) *Tally {
	if m == nil {
		m = mapping.Default()
	}
	return &Tally{mapper: m, buckets: make(map[string]*bucket)}
}

// Add folds a into the running sums and returns the key it resolved to.
func (t *Tally) Add(a model.Action) string { //nolint:gocritic // hugeParam: actions are values
	key := t.mapper.Resolve(a.Category)
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{categories: make(map[string]int)}
		t.buckets[key] = b
	}
	b.add(a.Impact)
	b.count++
	b.categories[a.Category]++
	t.total++
	return key
}

// Len returns the number of actions folded in.
func (t *Tally) Len() int { return t.total }

// Sum returns the raw impact sum and action count for a resolved key.
func (t *Tally) Sum(key string) (float64, int) {
	b, ok := t.buckets[key]
	if !ok {
		return 0, 0
	}
	return b.value(), b.count
}

// Clone returns an independent copy.
func (t *Tally) Clone() *Tally {
	c := &Tally{mapper: t.mapper, buckets: make(map[string]*bucket, len(t.buckets)), total: t.total}
	for k, b := range t.buckets {
		c.buckets[k] = &bucket{units: b.units, nanos: b.nanos, count: b.count, categories: maps.Clone(b.categories)}
	}
	return c
}
