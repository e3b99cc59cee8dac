package frame

import (
	"math"
	"strconv"
)

// Ticks returns evenly spaced "nice" tick values inside [lo, hi] with a step
// of 1, 2 or 5 times a power of ten, aiming for about n ticks. A range too
// wide or too narrow to step through in float64 yields no ticks.
func Ticks(lo, hi float64, n int) []float64 {
	span := hi - lo
	if !(hi > lo) || n < 1 || math.IsInf(span, 0) {
		return nil
	}
	step := niceStep(span / float64(n))
	if !(step > 0) || math.IsInf(step, 0) {
		return nil
	}
	first := math.Ceil(lo/step) * step
	if math.IsNaN(first) || math.IsInf(first, 0) {
		return nil
	}
	var out []float64
	for i := 0; i <= 4*n; i++ {
		v := first + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		// Snap away float noise such as 0.30000000000000004.
		out = append(out, math.Round(v/step)*step)
	}
	return out
}

func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	switch f := raw / base; {
	case f <= 1:
		return base
	case f <= 2:
		return 2 * base
	case f <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// formatTick renders a tick value with just enough decimals for the step.
func formatTick(v, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step)))
	}
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
