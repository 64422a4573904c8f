package scoring

import (
	"fmt"
	"math"
)

// Rescaler names accepted by NewRescaler.
const (
	RescaleClamp    = "clamp"
	RescaleIdentity = "identity"
)

// Rescaler maps a raw impact sum onto the display range. Implementations must
// be monotonic and leave in-range values untouched.
type Rescaler interface {
	Rescale(raw float64) float64
}

// Clamp bounds raw sums to [Min, Max].
type Clamp struct {
	Min float64
	Max float64
}

// Rescale implements Rescaler.
func (c Clamp) Rescale(raw float64) float64 {
	return math.Max(c.Min, math.Min(c.Max, raw))
}

// Identity passes raw sums through unchanged.
type Identity struct{}

// Rescale implements Rescaler.
func (Identity) Rescale(raw float64) float64 { return raw }

// NewRescaler builds a rescaler by name. lo and hi are only used by clamp.
func NewRescaler(kind string, lo, hi float64) (Rescaler, error) {
	switch kind {
	case RescaleClamp, "":
		if !(lo < hi) {
			return nil, fmt.Errorf("scoring: clamp range [%v, %v] is empty", lo, hi)
		}
		return Clamp{Min: lo, Max: hi}, nil
	case RescaleIdentity:
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("scoring: unknown rescaler %q", kind)
	}
}
