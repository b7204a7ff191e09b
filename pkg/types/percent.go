package types

import (
	"fmt"
	"math"
	"strings"
)

// Percent is a utilization value where 100 means one full share of the
// elapsed ticks. System and per-core values are not clamped and may fall
// outside [0,100].
type Percent float64

// Humanized returns the value with one decimal and a percent sign.
func (p Percent) Humanized() string {
	if math.IsNaN(float64(p)) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(p))
}

// Float returns p as a float64.
func (p Percent) Float() float64 { return float64(p) }

// Bar renders p as a fixed-width gauge of '#' and '.'; out-of-range values
// fill the gauge completely or not at all.
func (p Percent) Bar(width int) string {
	if width <= 0 {
		return ""
	}
	v := float64(p)
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	n := int(math.Round(v / 100 * float64(width)))
	return strings.Repeat("#", n) + strings.Repeat(".", width-n)
}
