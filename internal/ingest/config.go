// Package ingest generates synthetic politicians and actions and drives them
// through a running service over HTTP.
package ingest

import (
	"runtime"
	"time"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Politicians int           // Number of politicians to create
	Actions     int           // Number of actions to generate
	Duplicates  float64       // Share of actions re-sent verbatim, in [0,1)
	Workers     int           // Number of concurrent submitters
	Timeout     time.Duration // HTTP request timeout
	Async       bool          // Use POST /actions/async instead of POST /actions
	Settle      time.Duration // How long to wait for async actions to be applied
	Seed        uint64        // Generator seed; runs with the same seed send the same content
	OutputFile  string        // Optional JSON dump of generated actions
	Priorities  []model.Priority
}

// DefaultConfig returns a config for a local service.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:9080",
		Politicians: defaultPoliticians,
		Actions:     defaultActions,
		Duplicates:  defaultDuplicates,
		Workers:     runtime.NumCPU() * 2,
		Timeout:     defaultTimeout,
		Settle:      defaultSettle,
		Seed:        1,
		Priorities:  DefaultPriorities(),
	}
}

// DefaultPriorities is the priority set installed before a run.
func DefaultPriorities() []model.Priority {
	return []model.Priority{
		{ID: "education", Name: "Educação", Weight: 3},
		{ID: "health", Name: "Saúde", Weight: 3},
		{ID: "security", Name: "Segurança", Weight: 2},
		{ID: "environment", Name: "Meio ambiente", Weight: 2},
		{ID: "economy", Name: "Economia", Weight: 1},
		{ID: "transparency", Name: "Transparência", Weight: 1},
	}
}

// Stats holds run statistics.
type Stats struct {
	PoliticiansCreated int
	ActionsGenerated   int
	ActionsSubmitted   int
	ActionsRecorded    int
	ActionsDuplicate   int
	ActionsFailed      int
	Ranking            []types.Entry
	StartTime          time.Time
	Duration           time.Duration
}

// Default run parameters.
const (
	defaultPoliticians = 50
	defaultActions     = 5000
	defaultDuplicates  = 0.05
	defaultTimeout     = 30 * time.Second
	defaultSettle      = 30 * time.Second
	settlePoll         = 100 * time.Millisecond
	outputPermission   = 0o600
)
