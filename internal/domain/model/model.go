// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// Priority is a user-weighted political concern used to personalize scoring.
// Weights only have meaning relative to each other.
type Priority struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Weight      float64 `json:"weight" yaml:"weight"`
}

// UnmappedID is the bucket for actions whose category resolves to no
// priority. It is reserved and never a valid priority id.
const UnmappedID = "unmapped"

// Validate checks a single priority in isolation. Uniqueness across a set is
// checked by the registry.
func (p Priority) Validate() error {
	const op = "model.priority"
	switch {
	case p.ID == "":
		return &ValidationError{Op: op, Field: "id", Reason: "must not be empty"}
	case p.ID == UnmappedID:
		return &ValidationError{Op: op, Field: "id", Reason: "is reserved", ID: p.ID}
	case math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0):
		return &ValidationError{Op: op, Field: "weight", Reason: "must be finite", ID: p.ID}
	case p.Weight < 0:
		return &ValidationError{Op: op, Field: "weight", Reason: "must not be negative", ID: p.ID}
	}
	return nil
}

// Action is a dated, categorized activity of a politician. Impact is a signed
// contribution describing how well the action aligns with its category.
// Actions are immutable once recorded.
type Action struct {
	ID           string    `json:"id" yaml:"id"`
	PoliticianID string    `json:"politician_id" yaml:"politician_id"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	Date         time.Time `json:"date" yaml:"date"`
	Category     string    `json:"category" yaml:"category"`
	Impact       float64   `json:"impact" yaml:"impact"`
	Source       string    `json:"source" yaml:"source"`
}

// Equal reports whether two actions carry identical content.
func (a Action) Equal(b Action) bool { //nolint:gocritic // hugeParam: value semantics
	return a.ID == b.ID &&
		a.PoliticianID == b.PoliticianID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Date.Equal(b.Date) &&
		a.Category == b.Category &&
		a.Impact == b.Impact &&
		a.Source == b.Source
}

// Politician is the descriptive part of a tracked politician.
type Politician struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Party    string `json:"party" yaml:"party"`
	Position string `json:"position" yaml:"position"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar"`
}

// PoliticianView is a politician together with its derived scores. Score and
// Breakdown are produced by the aggregator only.
type PoliticianView struct {
	Politician
	Score         Score              `json:"score"`
	Breakdown     map[string]float64 `json:"score_breakdown"`
	RecentActions []Action           `json:"recent_actions"`
	// Unmapped counts actions excluded from scoring because their category
	// resolved to no active priority.
	Unmapped int `json:"unmapped_actions"`
	// Version is the priority set version the view was computed under.
	Version uint64 `json:"priority_version"`
}
