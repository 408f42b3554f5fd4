package grn

import "stockroom/internal/core/numerator"

const (
	// NumberPrefix prefixes note numbers (GRN-2025-00001).
	NumberPrefix = "GRN"

	// NumeratorStrategy is strict: notes are accounting documents and must not skip numbers.
	NumeratorStrategy = numerator.StrategyStrict
)
