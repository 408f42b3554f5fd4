// Package numerator defines how documents get their human-readable numbers.
// Implementations live in infrastructure/numerator.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Strategy selects how numbers are allocated.
type Strategy int

const (
	// StrategyStrict allocates every number in the caller's transaction.
	// A rolled back receipt releases its number, so the series has no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory. A restart leaves
	// the unused part of the range as a gap.
	StrategyCached
)

const (
	defaultPadWidth  = 5
	defaultRangeSize = 50
)

// Options tune a single allocation.
type Options struct {
	Strategy Strategy
	// RangeSize is how many numbers StrategyCached reserves at once.
	RangeSize int64
}

// EffectiveRangeSize returns RangeSize or the default.
func (o *Options) EffectiveRangeSize() int64 {
	if o == nil || o.RangeSize <= 0 {
		return defaultRangeSize
	}
	return o.RangeSize
}

// ResetPeriod controls when a series starts over at 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config describes one number series, e.g. GRN-2025-00001.
type Config struct {
	Prefix      string
	IncludeYear bool
	PadWidth    int
	ResetPeriod ResetPeriod
}

// DefaultConfig returns a yearly series: PREFIX-YYYY-NNNNN.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    defaultPadWidth,
		ResetPeriod: ResetYearly,
	}
}

// Key identifies the counter that serves period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders counter value n as a document number.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = defaultPadWidth
	}

	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), width, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}

// Generator allocates document numbers.
type Generator interface {
	// GetNextNumber returns the next number of the series for period.
	// A nil opts means StrategyStrict.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the series so that the next number is value+1.
	// Used when importing receipts numbered elsewhere.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
