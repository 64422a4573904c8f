// Package service wires the scoring engine together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vigia/internal/adapters/journal"
	eventqueue "github.com/okian/vigia/internal/adapters/mq/queue"
	workerpool "github.com/okian/vigia/internal/adapters/mq/worker"
	repository "github.com/okian/vigia/internal/adapters/repository"
	"github.com/okian/vigia/internal/domain/auth"
	"github.com/okian/vigia/internal/domain/flow"
	"github.com/okian/vigia/internal/domain/ledger"
	"github.com/okian/vigia/internal/domain/mapping"
	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/ranking"
	"github.com/okian/vigia/internal/domain/registry"
	"github.com/okian/vigia/internal/domain/scoring"
	"github.com/okian/vigia/internal/domain/types"
	"github.com/okian/vigia/pkg/logger"
	"github.com/okian/vigia/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	defaultQueueSize        = 10_000
	defaultSnapshotInterval = time.Second
	defaultRecentLimit      = 10
	shutdownTimeout         = 10 * time.Second
)

// components is everything built by Start and torn down by Stop.
type components struct {
	registry   *registry.Registry
	ledger     ledger.Ledger
	journal    *journal.SQLite
	aggregator *scoring.Aggregator
	store      *repository.MemoryStore
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	flows      *flow.Dispatcher
	cancel     context.CancelFunc

	// mu guards tallies and serializes view writes so a recompute always
	// publishes under the latest priority set.
	mu      sync.Mutex
	tallies map[string]*scoring.Tally
}

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	// Configuration
	workerCount          int
	queueSize            int
	recomputeParallelism int
	impactMin            float64
	impactMax            float64
	rescale              string
	displayMin           float64
	displayMax           float64
	mappingFile          string
	journalPath          string
	snapshotInterval     time.Duration
	recentLimit          int

	auth auth.Provider

	// State
	c       *components
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:          runtime.NumCPU() * 2,
		queueSize:            defaultQueueSize,
		recomputeParallelism: runtime.NumCPU(),
		impactMin:            ledger.DefaultMinImpact,
		impactMax:            ledger.DefaultMaxImpact,
		rescale:              scoring.RescaleClamp,
		displayMin:           scoring.DefaultDisplayMin,
		displayMax:           scoring.DefaultDisplayMax,
		snapshotInterval:     defaultSnapshotInterval,
		recentLimit:          defaultRecentLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth == nil {
		s.auth = auth.NewStaticProvider()
	}
	return s
}

// Start builds and starts the service components. When a journal is
// configured, recorded actions are replayed before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scoring service...")

	c, err := s.build(ctx)
	if err != nil {
		return err
	}

	if c.journal != nil {
		n, err := s.rebuild(ctx, c)
		if err != nil {
			s.teardown(ctx, c)
			return fmt.Errorf("service: replay journal: %w", err)
		}
		s.logger.Info(ctx, "journal replayed", logger.Int("actions", n))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.pool.Start(runCtx)

	s.c = c
	s.started = true
	metrics.UpdateQueueCapacity(s.queueSize)
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("recomputeParallelism", s.recomputeParallelism),
		logger.String("rescale", s.rescale),
		logger.Bool("journal", c.journal != nil),
	)
	return nil
}

func (s *Service) build(ctx context.Context) (*components, error) {
	rescaler, err := scoring.NewRescaler(s.rescale, s.displayMin, s.displayMax)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	table := mapping.Default()
	if s.mappingFile != "" {
		if table, err = mapping.LoadFile(s.mappingFile); err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		s.logger.Info(ctx, "category mapping loaded",
			logger.String("path", s.mappingFile), logger.Int("categories", table.Len()))
	}

	c := &components{
		registry:   registry.New(),
		aggregator: scoring.NewAggregator(scoring.WithMapper(table), scoring.WithRescaler(rescaler)),
		tallies:    make(map[string]*scoring.Tally),
	}

	ledgerOpts := []ledger.Option{ledger.WithImpactBound(s.impactMin, s.impactMax)}
	if s.journalPath != "" {
		if c.journal, err = journal.Open(ctx, s.journalPath); err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		ledgerOpts = append(ledgerOpts, ledger.WithJournal(c.journal))
	}
	c.ledger = ledger.NewInMemoryLedger(ledgerOpts...)

	c.store = repository.NewMemoryStore(context.WithoutCancel(ctx),
		repository.WithSnapshotInterval(s.snapshotInterval))
	c.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	c.pool = workerpool.NewPool(s.workerCount, c.queue, &appender{s: s, c: c})
	c.flows = flow.NewDispatcher(
		flow.WithAuth(s.auth),
		flow.WithHook(func(ctx context.Context, _, after flow.Session, e flow.Event) error { //nolint:gocritic // hugeParam
			if e.Type != flow.EventSetPriorities {
				return nil
			}
			return s.setPriorities(ctx, c, after.Priorities)
		}),
	)
	return c, nil
}

// Stop gracefully shuts down the service, draining queued actions first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	s.teardown(ctx, s.c)
	s.c = nil
	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

func (s *Service) teardown(ctx context.Context, c *components) {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if c.cancel != nil {
		if err := c.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		}
		c.cancel()
	} else {
		// workers never ran
		_ = c.queue.Close()
	}
	_ = c.flows.Close()
	_ = c.store.Close()
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			s.logger.Error(ctx, "error closing journal", logger.Error(err))
		}
	}
}

func (s *Service) get() (*components, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.c, nil
}

// SetPriorities replaces the priority set and recomputes every tracked
// politician. Nothing changes when the set is invalid.
func (s *Service) SetPriorities(ctx context.Context, priorities []model.Priority) error {
	c, err := s.get()
	if err != nil {
		return err
	}
	return s.setPriorities(ctx, c, priorities)
}

func (s *Service) setPriorities(ctx context.Context, c *components, priorities []model.Priority) error {
	if err := c.registry.SetPriorities(priorities); err != nil {
		metrics.RecordErrorByComponent("registry", "validation")
		return err
	}
	metrics.UpdatePrioritySet(c.registry.Version(), c.registry.Len())
	s.logger.Info(ctx, "priority set replaced",
		logger.Uint64("version", c.registry.Version()),
		logger.Int("priorities", c.registry.Len()),
	)
	return s.recomputeAll(ctx, c)
}

// Priorities returns the current priority set and its version.
func (s *Service) Priorities(_ context.Context) ([]model.Priority, uint64, error) {
	c, err := s.get()
	if err != nil {
		return nil, 0, err
	}
	prios, version := c.registry.Snapshot()
	return prios, version, nil
}

// AppendAction records an action and incrementally recomputes its
// politician. It reports false for an idempotent re-append.
func (s *Service) AppendAction(ctx context.Context, a model.Action) (bool, error) { //nolint:gocritic // hugeParam: actions are values
	c, err := s.get()
	if err != nil {
		return false, err
	}
	return s.appendAction(ctx, c, a)
}

func (s *Service) appendAction(ctx context.Context, c *components, a model.Action) (bool, error) { //nolint:gocritic // hugeParam
	// The ledger write and the tally update form one step under c.mu, so a
	// concurrent rebuild sees the action in both or in neither.
	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := c.ledger.Append(ctx, a)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			metrics.RecordActionRejected(verr.Field)
		} else {
			metrics.RecordErrorByComponent("ledger", "journal")
		}
		return false, err
	}
	if !added {
		metrics.RecordActionDuplicate()
		return false, nil
	}
	metrics.RecordActionAppended()

	start := time.Now()
	t, ok := c.tallies[a.PoliticianID]
	if !ok {
		t = c.aggregator.NewTally()
		c.tallies[a.PoliticianID] = t
	}
	key := t.Add(a)
	if _, active := c.registry.Lookup(key); !active {
		s.logger.Warn(ctx, "action excluded from scoring",
			logger.String("action_id", a.ID),
			logger.String("politician_id", a.PoliticianID),
			logger.String("category", a.Category),
			logger.String("resolved", key),
		)
		metrics.RecordUnmappedActions(mapping.Normalize(a.Category), 1)
	}

	prios, version := c.registry.Snapshot()
	res := c.aggregator.Finalize(t, prios)
	if err := c.store.Put(ctx, s.view(ctx, c, a.PoliticianID, &res, version)); err != nil {
		return true, fmt.Errorf("service: store view: %w", err)
	}
	metrics.RecordRecompute(metrics.RecomputeIncremental, float64(time.Since(start).Microseconds())/1000)
	return true, nil
}

// recomputeAll rescores every tracked politician under the current
// priority set, fanning out over recomputeParallelism goroutines.
func (s *Service) recomputeAll(ctx context.Context, c *components) error {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	prios, version := c.registry.Snapshot()
	ids := make([]string, 0, len(c.tallies))
	for id := range c.tallies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]model.PoliticianView, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.recomputeParallelism)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := c.aggregator.Finalize(c.tallies[id], prios)
			views[i] = s.view(gctx, c, id, &res, version)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("service: recompute: %w", err)
	}

	for i := range views {
		if err := c.store.Put(ctx, views[i]); err != nil {
			return fmt.Errorf("service: store view: %w", err)
		}
	}
	elapsed := time.Since(start)
	metrics.RecordRecompute(metrics.RecomputeFull, float64(elapsed.Microseconds())/1000)
	s.logger.Debug(ctx, "full recompute finished",
		logger.Int("politicians", len(ids)),
		logger.Uint64("version", version),
		logger.Duration("elapsed", elapsed),
	)
	return nil
}

// view merges a scoring result into the stored profile of id.
func (s *Service) view(ctx context.Context, c *components, id string, res *scoring.Result, version uint64) model.PoliticianView {
	v, err := c.store.Get(ctx, id)
	if err != nil {
		v = model.PoliticianView{Politician: model.Politician{ID: id}}
	}
	v.Score = res.Score
	v.Breakdown = res.Breakdown
	v.Unmapped = res.Unmapped
	v.Version = version

	v.RecentActions = make([]model.Action, 0, s.recentLimit)
	if s.recentLimit > 0 {
		for a := range c.ledger.ActionsFor(id) {
			v.RecentActions = append(v.RecentActions, a)
			if len(v.RecentActions) == s.recentLimit {
				break
			}
		}
	}
	return v
}

// Enqueue submits an action for asynchronous recording.
func (s *Service) Enqueue(ctx context.Context, a model.Action) error { //nolint:gocritic // hugeParam: actions are values
	c, err := s.get()
	if err != nil {
		return err
	}
	switch {
	case strings.TrimSpace(a.ID) == "":
		return &model.ValidationError{Op: "service.enqueue", Field: "id", Reason: "must not be empty"}
	case strings.TrimSpace(a.PoliticianID) == "":
		return &model.ValidationError{Op: "service.enqueue", Field: "politician_id", Reason: "must not be empty", ID: a.ID}
	}
	if err := c.queue.Enqueue(ctx, a); err != nil {
		s.logger.Debug(ctx, "enqueue failed", logger.String("action_id", a.ID), logger.Error(err))
		return err
	}
	metrics.UpdateQueueSize(c.queue.Len(ctx))
	return nil
}

// PutPolitician stores the descriptive profile of a politician. New
// politicians are tracked with an insufficient-data score until their first
// action is recorded.
func (s *Service) PutPolitician(ctx context.Context, p model.Politician) error {
	c, err := s.get()
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return &model.ValidationError{Op: "service.politician", Field: "id", Reason: "must not be empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tallies[p.ID]; !ok {
		c.tallies[p.ID] = c.aggregator.NewTally()
	}
	if err := c.store.PutProfile(ctx, p); err != nil {
		return fmt.Errorf("service: store profile: %w", err)
	}
	return nil
}

// Politician returns the scored view of a politician.
func (s *Service) Politician(ctx context.Context, id string) (model.PoliticianView, error) {
	c, err := s.get()
	if err != nil {
		return model.PoliticianView{}, err
	}
	v, err := c.store.Get(ctx, id)
	if err != nil {
		return model.PoliticianView{}, fmt.Errorf("politician %q: %w", id, err)
	}
	return v, nil
}

// Rank orders the given politicians. Unknown ids rank as insufficient data.
// With no ids the latest ranking of every tracked politician is returned.
func (s *Service) Rank(ctx context.Context, ids []string) ([]types.Entry, error) {
	c, err := s.get()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return slices.Clone(c.store.Snapshot(ctx).Ranking), nil
	}

	seen := make(map[string]struct{}, len(ids))
	views := make([]model.PoliticianView, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		v, err := c.store.Get(ctx, id)
		if err != nil {
			v = model.PoliticianView{Politician: model.Politician{ID: id}}
		}
		views = append(views, v)
	}
	return ranking.Rank(views), nil
}

// Compare returns the per-priority differences of two politicians.
func (s *Service) Compare(ctx context.Context, a, b string) (types.Comparison, error) {
	c, err := s.get()
	if err != nil {
		return types.Comparison{}, err
	}
	va, err := c.store.Get(ctx, a)
	if err != nil {
		return types.Comparison{}, fmt.Errorf("politician %q: %w", a, err)
	}
	vb, err := c.store.Get(ctx, b)
	if err != nil {
		return types.Comparison{}, fmt.Errorf("politician %q: %w", b, err)
	}
	return ranking.Comparison(&va, &vb), nil
}

// Rebuild replays the journal into the ledger and recomputes every
// politician from scratch. It returns the number of actions newly applied.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	c, err := s.get()
	if err != nil {
		return 0, err
	}
	return s.rebuild(ctx, c)
}

func (s *Service) rebuild(ctx context.Context, c *components) (int, error) {
	if c.journal == nil {
		return 0, ErrNoJournal
	}
	actions, err := c.journal.Load(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	n, err := c.ledger.Replay(ctx, actions)
	if err != nil {
		c.mu.Unlock()
		return n, err
	}
	for _, id := range c.ledger.Politicians() {
		c.tallies[id] = c.aggregator.Tally(slices.Collect(c.ledger.ActionsFor(id)))
	}
	c.mu.Unlock()

	return n, s.recomputeAll(ctx, c)
}

// Auth returns the provider sessions are bound to.
func (s *Service) Auth() auth.Provider { return s.auth }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"rescale":     s.rescale,
		"journal":     s.journalPath != "",
	}

	if s.started {
		c := s.c
		queueLen := c.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["politicians"] = c.store.Count(ctx)
		stats["actions"] = c.ledger.Len()
		stats["priorityVersion"] = c.registry.Version()
		stats["priorities"] = c.registry.Len()
		stats["sessions"] = c.flows.Len()
		stats["processed"] = c.pool.Processed()
		stats["failed"] = c.pool.Failed()
		stats["insufficientData"] = c.store.Snapshot(ctx).InsufficientData

		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// appender routes worker-dequeued actions into a fixed set of components,
// so a worker draining during Stop never touches a newer generation.
type appender struct {
	s *Service
	c *components
}

func (a *appender) AppendAction(ctx context.Context, act model.Action) (bool, error) { //nolint:gocritic // hugeParam
	return a.s.appendAction(ctx, a.c, act)
}
