package util

import (
	"math"
	"strconv"
)

// EMA is an exponential moving average. The first value passes through.
type EMA struct {
	alpha, prev float64
	ok          bool
}

// NewEMA returns an EMA with alpha clamped to [0,1]. alpha=1 disables smoothing.
func NewEMA(alpha float64) *EMA { return &EMA{alpha: Clamp(alpha, 0, 1)} }

// Next feeds v and returns the smoothed value.
func (e *EMA) Next(v float64) float64 {
	if !e.ok {
		e.prev, e.ok = v, true
		return v
	}
	e.prev = e.alpha*v + (1-e.alpha)*e.prev
	return e.prev
}

// Value returns the last smoothed value, or 0 before the first Next.
func (e *EMA) Value() float64 { return e.prev }

// SafeDiv returns n/d, or 0 when d is (nearly) zero.
func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}

// Clamp bounds x to [lo, hi]. NaN maps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampPercent bounds x to [0, 100].
func ClampPercent(x float64) float64 { return Clamp(x, 0, 100) }

// FmtFloat formats a float for CSV output without trailing zeros.
func FmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
