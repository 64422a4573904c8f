// Package types contains common types used across the application
package types

import "github.com/okian/vigia/internal/domain/model"

// Entry is a ranking row. Rank is 0 for politicians whose score is undefined.
type Entry struct {
	Rank         int         `json:"rank"`
	PoliticianID string      `json:"politician_id"`
	Name         string      `json:"name,omitempty"`
	Party        string      `json:"party,omitempty"`
	Score        model.Score `json:"score"`
}

// Difference is the signed gap between two politicians on one priority.
// Delta is undefined when either side has no breakdown value for it.
type Difference struct {
	PriorityID string      `json:"priority_id"`
	A          model.Score `json:"a"`
	B          model.Score `json:"b"`
	Delta      model.Score `json:"delta"`
}

// Comparison is the payload of a pairwise comparison.
type Comparison struct {
	A           string       `json:"a"`
	B           string       `json:"b"`
	ScoreDelta  model.Score  `json:"score_delta"`
	Differences []Difference `json:"differences"`
}
