package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/okian/vigia/internal/domain/ledger"
	"github.com/okian/vigia/internal/domain/mapping"
	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/ranking"
	"github.com/okian/vigia/internal/domain/registry"
	"github.com/okian/vigia/internal/domain/scoring"
)

type scoreFlags struct {
	priorities string
	actions    string
	mapping    string
	rescale    string
	format     string
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and rank actions from files without running the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd.Context(), f, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.priorities, "priorities", "", "YAML file with a priorities list")
	flags.StringVar(&f.actions, "actions", "", "JSON file with an array of actions")
	flags.StringVar(&f.mapping, "mapping", "", "YAML category mapping (default: built-in table)")
	flags.StringVar(&f.rescale, "rescale", "clamp", "Breakdown rescaler: clamp or identity")
	flags.StringVar(&f.format, "format", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("priorities")
	_ = cmd.MarkFlagRequired("actions")
	return cmd
}

// scoredRow is one line of score output.
type scoredRow struct {
	Rank         int                `json:"rank"`
	PoliticianID string             `json:"politician_id"`
	Score        model.Score        `json:"score"`
	Breakdown    map[string]float64 `json:"score_breakdown"`
	Unmapped     int                `json:"unmapped_actions"`
}

func runScore(ctx context.Context, f *scoreFlags, out io.Writer) error {
	if f.format != "table" && f.format != "json" {
		return fmt.Errorf("unknown format %q", f.format)
	}

	reg := registry.New()
	prios, err := loadPriorities(f.priorities)
	if err != nil {
		return err
	}
	if err := reg.SetPriorities(prios); err != nil {
		return err
	}

	table := mapping.Default()
	if f.mapping != "" {
		if table, err = mapping.LoadFile(f.mapping); err != nil {
			return err
		}
	}
	rescaler, err := scoring.NewRescaler(f.rescale, scoring.DefaultDisplayMin, scoring.DefaultDisplayMax)
	if err != nil {
		return err
	}

	actions, err := loadActions(f.actions)
	if err != nil {
		return err
	}
	led := ledger.NewInMemoryLedger()
	if _, err := led.Replay(ctx, actions); err != nil {
		return err
	}

	agg := scoring.NewAggregator(scoring.WithMapper(table), scoring.WithRescaler(rescaler))
	active := reg.Priorities()
	results := make(map[string]scoring.Result)
	views := make([]model.PoliticianView, 0, len(led.Politicians()))
	for _, id := range led.Politicians() {
		res := agg.Score(scoring.Input{
			PoliticianID: id,
			Priorities:   active,
			Actions:      slices.Collect(led.ActionsFor(id)),
		})
		results[id] = res
		views = append(views, model.PoliticianView{
			Politician: model.Politician{ID: id},
			Score:      res.Score,
			Breakdown:  res.Breakdown,
			Unmapped:   res.Unmapped,
		})
	}

	entries := ranking.Rank(views)
	rows := make([]scoredRow, len(entries))
	for i, e := range entries {
		rows[i] = scoredRow{
			Rank:         e.Rank,
			PoliticianID: e.PoliticianID,
			Score:        e.Score,
			Breakdown:    results[e.PoliticianID].Breakdown,
			Unmapped:     results[e.PoliticianID].Unmapped,
		}
	}

	if f.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return writeScoreTable(out, active, rows)
}

func writeScoreTable(out io.Writer, prios []model.Priority, rows []scoredRow) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "RANK\tPOLITICIAN\tSCORE")
	for _, p := range prios {
		fmt.Fprintf(tw, "\t%s", p.ID)
	}
	fmt.Fprintln(tw, "\tUNMAPPED")

	for _, r := range rows {
		rank := "-"
		if r.Rank > 0 {
			rank = strconv.Itoa(r.Rank)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s", rank, r.PoliticianID, r.Score)
		for _, p := range prios {
			if v, ok := r.Breakdown[p.ID]; ok {
				fmt.Fprintf(tw, "\t%.2f", v)
			} else {
				fmt.Fprint(tw, "\t-")
			}
		}
		fmt.Fprintf(tw, "\t%d\n", r.Unmapped)
	}
	return tw.Flush()
}

func loadPriorities(path string) ([]model.Priority, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read priorities: %w", err)
	}
	var doc struct {
		Priorities []model.Priority `yaml:"priorities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse priorities %s: %w", path, err)
	}
	return doc.Priorities, nil
}

func loadActions(path string) ([]model.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actions: %w", err)
	}
	var actions []model.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parse actions %s: %w", path, err)
	}
	return actions, nil
}
