package repository

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/ranking"
	"github.com/okian/vigia/pkg/metrics"
)

// Default store configuration.
const (
	defaultSnapshotInterval      = time.Second
	defaultMetricsUpdateInterval = 5 * time.Second
)

// MemoryStore keeps views in a map and republishes the ranking snapshot
// whenever it is read or the periodic loop finds it stale.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]model.PoliticianView

	snapshotInterval      time.Duration
	metricsUpdateInterval time.Duration

	pubMu    sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	dirty    atomic.Bool

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs a store and starts its background loops. They
// stop when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		views:                 make(map[string]model.PoliticianView),
		snapshotInterval:      defaultSnapshotInterval,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.publish()
	s.every(ctx, s.snapshotInterval, func() {
		if s.dirty.Load() {
			s.publish()
		}
	})
	s.every(ctx, s.metricsUpdateInterval, s.updateMetrics)
	return s
}

func (s *MemoryStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the background loops.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, view model.PoliticianView) error { //nolint:gocritic // hugeParam: views are values
	if strings.TrimSpace(view.ID) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_view")
		return ErrInvalid
	}
	view = cloneView(view)

	s.mu.Lock()
	s.views[view.ID] = view
	s.mu.Unlock()
	s.dirty.Store(true)
	return nil
}

// PutProfile implements Store.PutProfile.
func (s *MemoryStore) PutProfile(_ context.Context, p model.Politician) error {
	if strings.TrimSpace(p.ID) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_view")
		return ErrInvalid
	}

	s.mu.Lock()
	view, ok := s.views[p.ID]
	if !ok {
		view.Breakdown = map[string]float64{}
		view.RecentActions = []model.Action{}
	}
	view.Politician = p
	s.views[p.ID] = view
	s.mu.Unlock()
	s.dirty.Store(true)
	return nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.PoliticianView, error) {
	s.mu.RLock()
	view, ok := s.views[id]
	s.mu.RUnlock()
	if !ok {
		return model.PoliticianView{}, ErrNotFound
	}
	return cloneView(view), nil
}

// All implements Store.All.
func (s *MemoryStore) All(_ context.Context) []model.PoliticianView {
	s.mu.RLock()
	out := make([]model.PoliticianView, 0, len(s.views))
	for _, v := range s.views {
		out = append(out, cloneView(v))
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.PoliticianView) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Snapshot implements Store.Snapshot. A pending write is published first so
// callers read their own writes.
func (s *MemoryStore) Snapshot(_ context.Context) *Snapshot {
	if s.dirty.Load() {
		s.publish()
	}
	return s.snapshot.Load()
}

// publish rebuilds and publishes a new snapshot.
func (s *MemoryStore) publish() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	start := time.Now()
	s.dirty.Store(false)

	s.mu.RLock()
	views := make([]model.PoliticianView, 0, len(s.views))
	for _, v := range s.views {
		views = append(views, v)
	}
	s.mu.RUnlock()

	entries := ranking.Rank(views)
	snap := &Snapshot{
		Ranking:          entries,
		RankByPolitician: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		snap.RankByPolitician[e.PoliticianID] = e.Rank
		if !e.Score.IsDefined() {
			snap.InsufficientData++
		}
	}
	s.snapshot.Store(snap)

	metrics.UpdateInsufficientData(snap.InsufficientData)
	metrics.UpdateTrackedPoliticians(len(entries))
	metrics.RecordSnapshotRebuild(float64(time.Since(start).Microseconds()) / 1000)
}

func (s *MemoryStore) updateMetrics() {
	metrics.UpdateTrackedPoliticians(s.Count(context.Background()))
}

func cloneView(v model.PoliticianView) model.PoliticianView { //nolint:gocritic // hugeParam
	v.Breakdown = maps.Clone(v.Breakdown)
	v.RecentActions = slices.Clone(v.RecentActions)
	return v
}
