package speech

import "fmt"

// Default rate settings, in words per minute.
const (
	DefaultRate    = 300
	DefaultMinRate = 50
	DefaultMaxRate = 400
)

// RateBounds is the inclusive range a session accepts.
type RateBounds struct {
	Min int
	Max int
}

// DefaultRateBounds returns [DefaultMinRate, DefaultMaxRate].
func DefaultRateBounds() RateBounds {
	return RateBounds{Min: DefaultMinRate, Max: DefaultMaxRate}
}

// Validate checks that the bounds are positive and ordered.
func (b RateBounds) Validate() error {
	if b.Min <= 0 || b.Max <= 0 {
		return fmt.Errorf("rate bounds must be positive, got [%d,%d]", b.Min, b.Max)
	}
	if b.Min > b.Max {
		return fmt.Errorf("rate min %d is greater than max %d", b.Min, b.Max)
	}
	return nil
}

// Clamp limits rate to the bounds.
func (b RateBounds) Clamp(rate int) int {
	if rate < b.Min {
		return b.Min
	}
	if rate > b.Max {
		return b.Max
	}
	return rate
}

// Fraction returns where rate sits within the bounds, from 0 to 1.
func (b RateBounds) Fraction(rate int) float64 {
	if b.Max == b.Min {
		return 1
	}
	return float64(b.Clamp(rate)-b.Min) / float64(b.Max-b.Min)
}
