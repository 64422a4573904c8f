package ledger

// Option applies a configuration option to the in-memory ledger.
type Option func(*inMemoryLedger)

// WithImpactBound sets the inclusive range accepted for Action.Impact.
// Both ends are clamped to ±MaxImpactMagnitude. Ignored unless lo < hi.
func WithImpactBound(lo, hi float64) Option {
	return func(l *inMemoryLedger) {
		lo = max(lo, -MaxImpactMagnitude)
		hi = min(hi, MaxImpactMagnitude)
		if lo < hi {
			l.minImpact = lo
			l.maxImpact = hi
		}
	}
}

// WithJournal makes every new action durable before it becomes visible.
func WithJournal(j Journal) Option {
	return func(l *inMemoryLedger) {
		if j != nil {
			l.journal = j
		}
	}
}
