package calculator

import "math"

// RollingMin returns, for every index, the minimum of the last period values
// (the current one included). Indices before period-1 are NaN.
func RollingMin(values []float64, period int) []float64 {
	return rolling(values, period, math.Inf(1), math.Min)
}

// RollingMax returns, for every index, the maximum of the last period values
// (the current one included). Indices before period-1 are NaN.
func RollingMax(values []float64, period int) []float64 {
	return rolling(values, period, math.Inf(-1), math.Max)
}

func rolling(values []float64, period int, seed float64, pick func(a, b float64) float64) []float64 {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		v := seed
		for j := i - period + 1; j <= i; j++ {
			v = pick(v, values[j])
		}
		out[i] = v
	}
	return out
}
