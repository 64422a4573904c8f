package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/pkg/logger"
)

// ErrNotSettled is returned when queued actions are still pending after
// Config.Settle.
var ErrNotSettled = errors.New("async actions did not settle")

// Run seeds priorities and politicians, submits generated actions, then
// fetches and verifies the full ranking. A summary is written to out.
func Run(ctx context.Context, cfg Config, out io.Writer) (*Stats, error) { //nolint:gocritic // hugeParam
	log := logger.Get().Named("ingest")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting ingest run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("politicians", cfg.Politicians),
		logger.Int("actions", cfg.Actions),
		logger.Int("workers", cfg.Workers),
		logger.Bool("async", cfg.Async),
		logger.Uint64("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	if err := client.PutPriorities(ctx, cfg.Priorities); err != nil {
		return stats, fmt.Errorf("set priorities: %w", err)
	}

	gen := NewGenerator(cfg.Seed)
	politicians := gen.Politicians(cfg.Politicians)
	for _, p := range politicians {
		if err := client.PutPolitician(ctx, p); err != nil {
			return stats, fmt.Errorf("put politician %s: %w", p.ID, err)
		}
		stats.PoliticiansCreated++
	}

	actions := gen.WithDuplicates(gen.Actions(cfg.Actions, politicians), cfg.Duplicates)
	stats.ActionsGenerated = len(actions)

	submit(ctx, client, cfg, actions, stats)
	log.Info(ctx, "actions submitted",
		logger.Int("submitted", stats.ActionsSubmitted),
		logger.Int("recorded", stats.ActionsRecorded),
		logger.Int("duplicate", stats.ActionsDuplicate),
		logger.Int("failed", stats.ActionsFailed))

	if cfg.Async {
		if err := settle(ctx, client, cfg.Settle, stats.ActionsRecorded); err != nil {
			return stats, err
		}
	}

	ranking, err := client.Ranking(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch ranking: %w", err)
	}
	stats.Ranking = ranking
	if err := VerifyRanking(ranking); err != nil {
		return stats, fmt.Errorf("verify ranking: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveActions(cfg.OutputFile, actions); err != nil {
			log.Warn(ctx, "failed to save actions", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	writeSummary(out, stats)
	return stats, nil
}

// submit posts actions from a fixed pool of workers. Single failures are
// counted, not fatal.
func submit(ctx context.Context, client *Client, cfg Config, actions []model.Action, stats *Stats) { //nolint:gocritic // hugeParam
	var submitted, recorded, duplicate, failed atomic.Int64
	workers := max(cfg.Workers, 1)

	ch := make(chan model.Action, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range ch {
				outcome, err := client.SubmitAction(ctx, a, cfg.Async)
				submitted.Add(1)
				switch outcome {
				case OutcomeRecorded:
					recorded.Add(1)
				case OutcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					logger.Get().Debug(ctx, "submit failed",
						logger.String("action", a.ID), logger.Error(err))
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, a := range actions {
			select {
			case <-ctx.Done():
				return
			case ch <- a:
			}
		}
	}()
	wg.Wait()

	stats.ActionsSubmitted = int(submitted.Load())
	stats.ActionsRecorded = int(recorded.Load())
	stats.ActionsDuplicate = int(duplicate.Load())
	stats.ActionsFailed = int(failed.Load())
}

// settle polls /stats until the workers have handled every accepted action.
func settle(ctx context.Context, client *Client, timeout time.Duration, accepted int) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(settlePoll)
	defer ticker.Stop()
	for {
		st, err := client.Stats(ctx)
		if err == nil && st.QueueLength == 0 && st.Processed+st.Failed >= uint64(accepted) { //nolint:gosec // accepted is non-negative
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s", ErrNotSettled, timeout)
		case <-ticker.C:
		}
	}
}

func saveActions(path string, actions []model.Action) error {
	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	if err := os.WriteFile(path, data, outputPermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeSummary(w io.Writer, stats *Stats) {
	if w == nil {
		return
	}
	var rate float64
	if stats.Duration > 0 {
		rate = float64(stats.ActionsSubmitted) / stats.Duration.Seconds()
	}
	fmt.Fprintf(w, "politicians: %d\n", stats.PoliticiansCreated)
	fmt.Fprintf(w, "actions:     %d submitted, %d recorded, %d duplicate, %d failed (%.0f/s)\n",
		stats.ActionsSubmitted, stats.ActionsRecorded, stats.ActionsDuplicate, stats.ActionsFailed, rate)

	top := stats.Ranking[:min(len(stats.Ranking), summaryTop)]
	for _, e := range top {
		fmt.Fprintf(w, "  #%-3d %-10s %-24s %s\n", e.Rank, e.PoliticianID, e.Name, e.Score)
	}
	fmt.Fprintf(w, "duration:    %s\n", stats.Duration.Round(time.Millisecond))
}

const summaryTop = 10
