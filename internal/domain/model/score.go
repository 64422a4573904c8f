package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Score states as they appear on the wire.
const (
	StateDefined          = "defined"
	StateInsufficientData = "insufficient_data"
)

// Score is either a defined value or an explicit insufficient-data marker.
// The zero value is InsufficientData, so an unset score never reads as 0.
type Score struct {
	value   float64
	defined bool
}

// Defined returns a score carrying v.
func Defined(v float64) Score { return Score{value: v, defined: true} }

// InsufficientData returns the undefined score.
func InsufficientData() Score { return Score{} }

// Value returns the score and whether it is defined.
func (s Score) Value() (float64, bool) { return s.value, s.defined }

// IsDefined reports whether the score carries a value.
func (s Score) IsDefined() bool { return s.defined }

// String renders the value with two decimals, or the insufficient-data state.
func (s Score) String() string {
	if !s.defined {
		return StateInsufficientData
	}
	return strconv.FormatFloat(s.value, 'f', 2, 64)
}

type scoreJSON struct {
	State string   `json:"state"`
	Value *float64 `json:"value,omitempty"`
}

// MarshalJSON encodes the score as {"state":..., "value":...}.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.defined {
		return json.Marshal(scoreJSON{State: StateInsufficientData})
	}
	v := s.value
	return json.Marshal(scoreJSON{State: StateDefined, Value: &v})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (s *Score) UnmarshalJSON(data []byte) error {
	var raw scoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.State {
	case StateInsufficientData:
		*s = InsufficientData()
	case StateDefined:
		if raw.Value == nil {
			return fmt.Errorf("score: state %q requires a value", raw.State)
		}
		*s = Defined(*raw.Value)
	default:
		return fmt.Errorf("score: unknown state %q", raw.State)
	}
	return nil
}
