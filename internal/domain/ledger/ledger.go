// Package ledger records politicians' actions in an append-only store.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/okian/vigia/internal/domain/model"
)

// Default impact bound.
const (
	DefaultMinImpact = -10.0
	DefaultMaxImpact = 10.0
)

// MaxImpactMagnitude caps any configured impact bound. Beyond it a single
// impact no longer fits the fixed-point scoring sums.
const MaxImpactMagnitude = 1e6

// Journal persists actions. Write is called with the ledger lock held, before
// the action becomes visible; a failed write leaves the ledger unchanged.
type Journal interface {
	Write(ctx context.Context, a model.Action) error
}

// Ledger is an append-only, id-unique action store.
type Ledger interface {
	// Append records a. It returns true when a was newly recorded and false
	// when an identical record already exists. A different record under an
	// existing id is a validation error.
	Append(ctx context.Context, a model.Action) (bool, error)

	// Replay loads previously journaled actions without writing them back to
	// the journal. It returns how many were new.
	Replay(ctx context.Context, actions []model.Action) (int, error)

	// ActionsFor yields a politician's actions, newest first (ties by id).
	// The sequence is lazy, finite and may be ranged over repeatedly; each
	// pass sees the ledger as of the moment it starts.
	ActionsFor(politicianID string) iter.Seq[model.Action]

	// Get returns the action recorded under id.
	Get(id string) (model.Action, bool)

	// Politicians returns every politician id with at least one action, sorted.
	Politicians() []string

	// Len returns the number of recorded actions.
	Len() int
}

// inMemoryLedger keeps every action in memory, indexed by id and by
// politician. Per-politician slices are kept sorted on insert.
type inMemoryLedger struct {
	mu           sync.RWMutex
	byID         map[string]model.Action
	byPolitician map[string][]model.Action
	minImpact    float64
	maxImpact    float64
	journal      Journal
}

// NewInMemoryLedger creates a ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		byID:         make(map[string]model.Action),
		byPolitician: make(map[string][]model.Action),
		minImpact:    DefaultMinImpact,
		maxImpact:    DefaultMaxImpact,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *inMemoryLedger) Append(ctx context.Context, a model.Action) (bool, error) { //nolint:gocritic // hugeParam: actions are values
	return l.append(ctx, a, true)
}

func (l *inMemoryLedger) Replay(ctx context.Context, actions []model.Action) (int, error) {
	added := 0
	for i := range actions {
		ok, err := l.append(ctx, actions[i], false)
		if err != nil {
			return added, fmt.Errorf("ledger: replay action %d: %w", i, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (l *inMemoryLedger) append(ctx context.Context, a model.Action, journal bool) (bool, error) { //nolint:gocritic // hugeParam
	if err := l.validate(a); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, exists := l.byID[a.ID]; exists {
		if prev.Equal(a) {
			return false, nil
		}
		return false, &model.ValidationError{
			Op: "ledger.append", Field: "id", ID: a.ID,
			Reason: "already recorded with different content",
		}
	}

	if journal && l.journal != nil {
		if err := l.journal.Write(ctx, a); err != nil {
			return false, fmt.Errorf("ledger: journal write %q: %w", a.ID, err)
		}
	}

	l.byID[a.ID] = a
	l.byPolitician[a.PoliticianID] = insertSorted(l.byPolitician[a.PoliticianID], a)
	return true, nil
}

func (l *inMemoryLedger) validate(a model.Action) error { //nolint:gocritic // hugeParam
	const op = "ledger.append"
	switch {
	case strings.TrimSpace(a.ID) == "":
		return &model.ValidationError{Op: op, Field: "id", Reason: "must not be empty"}
	case strings.TrimSpace(a.PoliticianID) == "":
		return &model.ValidationError{Op: op, Field: "politician_id", ID: a.ID, Reason: "must not be empty"}
	case a.Date.IsZero():
		return &model.ValidationError{Op: op, Field: "date", ID: a.ID, Reason: "must be set"}
	case math.IsNaN(a.Impact) || a.Impact < l.minImpact || a.Impact > l.maxImpact:
		return &model.ValidationError{
			Op: op, Field: "impact", ID: a.ID,
			Reason: fmt.Sprintf("%v outside [%v, %v]", a.Impact, l.minImpact, l.maxImpact),
		}
	}
	return nil
}

// before orders actions newest first, then by id ascending.
func before(a, b model.Action) bool { //nolint:gocritic // hugeParam
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID < b.ID
}

func insertSorted(list []model.Action, a model.Action) []model.Action { //nolint:gocritic // hugeParam
	i := sort.Search(len(list), func(i int) bool { return !before(list[i], a) })
	return slices.Insert(list, i, a)
}

func (l *inMemoryLedger) ActionsFor(politicianID string) iter.Seq[model.Action] {
	return func(yield func(model.Action) bool) {
		l.mu.RLock()
		snapshot := slices.Clone(l.byPolitician[politicianID])
		l.mu.RUnlock()

		for _, a := range snapshot {
			if !yield(a) {
				return
			}
		}
	}
}

func (l *inMemoryLedger) Get(id string) (model.Action, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.byID[id]
	return a, ok
}

func (l *inMemoryLedger) Politicians() []string {
	l.mu.RLock()
	ids := make([]string, 0, len(l.byPolitician))
	for id := range l.byPolitician {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (l *inMemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}
