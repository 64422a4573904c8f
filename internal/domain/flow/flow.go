// Package flow is the onboarding state machine: screens are states, user
// actions are events, and Transition is a pure function between them.
package flow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/vigia/internal/domain/model"
)

// State is a screen of the onboarding flow.
type State string

// Flow states.
const (
	StateLanding     State = "landing"
	StateWelcome     State = "welcome"
	StatePriorities  State = "priorities"
	StatePoliticians State = "politicians"
	StateDashboard   State = "dashboard"
	StateProfile     State = "profile"
	StateComparison  State = "comparison"
)

// EventType names a user action.
type EventType string

// Flow events.
const (
	EventGetStarted        EventType = "get_started"
	EventContinue          EventType = "continue"
	EventSetPriorities     EventType = "set_priorities"
	EventSelectPoliticians EventType = "select_politicians"
	EventViewPolitician    EventType = "view_politician"
	EventCompare           EventType = "compare"
	EventBack              EventType = "back"
	EventOpenSettings      EventType = "open_settings"
	EventCloseSettings     EventType = "close_settings"
)

// minCompared is the smallest comparison set.
const minCompared = 2

// Event is a user action together with its payload.
type Event struct {
	Type          EventType        `json:"type"`
	Priorities    []model.Priority `json:"priorities,omitempty"`
	PoliticianIDs []string         `json:"politician_ids,omitempty"`
	PoliticianID  string           `json:"politician_id,omitempty"`
}

// Session is the whole UI state of one user journey.
type Session struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id,omitempty"`
	State        State            `json:"state"`
	SettingsOpen bool             `json:"settings_open"`
	Priorities   []model.Priority `json:"priorities,omitempty"`
	Selected     []string         `json:"selected,omitempty"`
	Viewing      string           `json:"viewing,omitempty"`
	Comparing    []string         `json:"comparing,omitempty"`
	// Step counts committed transitions.
	Step uint64 `json:"step"`
}

// NewSession returns a session on the landing screen.
func NewSession(id, userID string) Session {
	return Session{ID: id, UserID: userID, State: StateLanding}
}

// back targets per state. States without an entry have no back action.
var backTo = map[State]State{
	StatePoliticians: StatePriorities,
	StateDashboard:   StatePoliticians,
	StateProfile:     StateDashboard,
	StateComparison:  StateDashboard,
}

// Transition applies e to s and returns the next session. s is never
// modified. Unknown or out-of-place events return ErrInvalidTransition;
// malformed payloads return a model.ValidationError.
func Transition(s Session, e Event) (Session, error) { //nolint:gocritic,gocyclo // hugeParam: value semantics; one switch per event
	next := s.clone()
	next.Step++

	if s.SettingsOpen {
		switch e.Type {
		case EventCloseSettings, EventBack:
			next.SettingsOpen = false
			return next, nil
		case EventSetPriorities:
			prios, err := validatePriorities(e.Priorities)
			if err != nil {
				return s, err
			}
			next.Priorities = prios
			return next, nil
		default:
			return s, invalid(s, e)
		}
	}

	switch e.Type {
	case EventGetStarted:
		if s.State != StateLanding {
			return s, invalid(s, e)
		}
		next.State = StateWelcome

	case EventContinue:
		if s.State != StateWelcome {
			return s, invalid(s, e)
		}
		next.State = StatePriorities

	case EventSetPriorities:
		if s.State != StatePriorities {
			return s, invalid(s, e)
		}
		prios, err := validatePriorities(e.Priorities)
		if err != nil {
			return s, err
		}
		next.Priorities = prios
		next.State = StatePoliticians

	case EventSelectPoliticians:
		if s.State != StatePoliticians {
			return s, invalid(s, e)
		}
		ids, err := validateIDs("politician_ids", e.PoliticianIDs, 1)
		if err != nil {
			return s, err
		}
		next.Selected = ids
		next.State = StateDashboard

	case EventViewPolitician:
		if s.State != StateDashboard {
			return s, invalid(s, e)
		}
		if strings.TrimSpace(e.PoliticianID) == "" {
			return s, &model.ValidationError{Op: "flow.view_politician", Field: "politician_id", Reason: "must not be empty"}
		}
		next.Viewing = e.PoliticianID
		next.State = StateProfile

	case EventCompare:
		if s.State != StateDashboard {
			return s, invalid(s, e)
		}
		ids, err := validateIDs("politician_ids", e.PoliticianIDs, minCompared)
		if err != nil {
			return s, err
		}
		next.Comparing = ids
		next.State = StateComparison

	case EventBack:
		target, ok := backTo[s.State]
		if !ok {
			return s, invalid(s, e)
		}
		next.State = target

	case EventOpenSettings:
		if s.State == StateLanding {
			return s, invalid(s, e)
		}
		next.SettingsOpen = true

	default:
		return s, invalid(s, e)
	}
	return next, nil
}

// Allowed lists the events Transition may accept in s, ignoring payloads.
func Allowed(s Session) []EventType { //nolint:gocritic // hugeParam
	if s.SettingsOpen {
		return []EventType{EventSetPriorities, EventBack, EventCloseSettings}
	}
	var out []EventType
	switch s.State {
	case StateLanding:
		return []EventType{EventGetStarted}
	case StateWelcome:
		out = []EventType{EventContinue}
	case StatePriorities:
		out = []EventType{EventSetPriorities}
	case StatePoliticians:
		out = []EventType{EventSelectPoliticians}
	case StateDashboard:
		out = []EventType{EventViewPolitician, EventCompare}
	}
	if _, ok := backTo[s.State]; ok {
		out = append(out, EventBack)
	}
	return append(out, EventOpenSettings)
}

// Reset returns s on the landing screen with its selections cleared.
func Reset(s Session) Session { //nolint:gocritic // hugeParam
	out := NewSession(s.ID, s.UserID)
	out.Step = s.Step + 1
	return out
}

func (s Session) clone() Session { //nolint:gocritic // hugeParam
	s.Priorities = slices.Clone(s.Priorities)
	s.Selected = slices.Clone(s.Selected)
	s.Comparing = slices.Clone(s.Comparing)
	return s
}

func invalid(s Session, e Event) error { //nolint:gocritic // hugeParam
	return fmt.Errorf("%w: %q in state %q", ErrInvalidTransition, e.Type, s.State)
}

func validatePriorities(prios []model.Priority) ([]model.Priority, error) {
	const op = "flow.set_priorities"
	if len(prios) == 0 {
		return nil, &model.ValidationError{Op: op, Field: "priorities", Reason: "must not be empty"}
	}
	seen := make(map[string]struct{}, len(prios))
	for _, p := range prios {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, &model.ValidationError{Op: op, Field: "id", ID: p.ID, Reason: "duplicated"}
		}
		seen[p.ID] = struct{}{}
	}
	return slices.Clone(prios), nil
}

// validateIDs drops repeats, keeping first occurrence order.
func validateIDs(field string, ids []string, minLen int) ([]string, error) {
	const op = "flow.select"
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, &model.ValidationError{Op: op, Field: field, Reason: "contains an empty id"}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) < minLen {
		return nil, &model.ValidationError{Op: op, Field: field, Reason: fmt.Sprintf("needs at least %d distinct ids", minLen)}
	}
	return out, nil
}
