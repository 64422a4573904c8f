// Package repository stores scored politician views and publishes ranked
// snapshots of them.
package repository

import (
	"context"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/types"
)

// Store provides read/write access to politician views.
type Store interface {
	// Put replaces the view of view.ID.
	Put(ctx context.Context, view model.PoliticianView) error

	// PutProfile updates the descriptive part of a politician, keeping any
	// scores already computed. Unknown politicians start with no score.
	PutProfile(ctx context.Context, p model.Politician) error

	// Get returns the view of a politician.
	// Returns ErrNotFound if the politician is unknown.
	Get(ctx context.Context, id string) (model.PoliticianView, error)

	// All returns every view ordered by id.
	All(ctx context.Context) []model.PoliticianView

	// Count returns the number of politicians tracked.
	Count(ctx context.Context) int

	// Snapshot returns the latest ranking of every tracked politician.
	Snapshot(ctx context.Context) *Snapshot
}

// Snapshot is an immutable ranking of the store at one point in time.
type Snapshot struct {
	Ranking          []types.Entry
	RankByPolitician map[string]int
	InsufficientData int
}
