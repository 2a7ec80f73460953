package charts

import (
	"math"
	"strconv"
)

// maxXTicks bounds the number of intervals on the value axis.
const maxXTicks = 8

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// valueLimits returns the value-axis range for bars anchored at zero, with 5%
// headroom on every side that does not touch zero. NaN and infinite values
// do not affect the range.
func valueLimits(values []float64) (lo, hi float64) {
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		return 0, 1
	}
	margin := 0.05 * span
	if lo < 0 {
		lo -= margin
	}
	if hi > 0 {
		hi += margin
	}
	return lo, hi
}

// tickStep picks a 1/2/2.5/5 x 10^k step giving at most maxTicks intervals over span.
func tickStep(span float64, maxTicks int) float64 {
	if !isFinite(span) || span <= 0 || maxTicks <= 0 {
		return 1
	}
	raw := span / float64(maxTicks)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}

// axisTicks returns the tick positions inside [lo, hi], or nil for a non-finite range.
func axisTicks(lo, hi float64, maxTicks int) []float64 {
	if !isFinite(lo) || !isFinite(hi) || hi < lo {
		return nil
	}
	step := tickStep(hi-lo, maxTicks)
	first := math.Ceil(lo/step - 1e-9)

	var ticks []float64
	for i := 0; ; i++ {
		v := (first + float64(i)) * step
		if v > hi+step*1e-9 {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// tickLabel formats v with just enough decimals to distinguish ticks step apart.
func tickLabel(v, step float64) string {
	decimals := 0
	for decimals < 10 {
		scaled := step * math.Pow(10, float64(decimals))
		if math.Abs(scaled-math.Round(scaled)) < 1e-6 {
			break
		}
		decimals++
	}
	if math.Abs(v) < step*1e-9 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
