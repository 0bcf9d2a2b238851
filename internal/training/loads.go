package training

import "math"

// Шаги округления весов
const (
	WarmupIncrement        = 2.5
	RecalibrationIncrement = 0.25
)

// RoundToIncrement округляет вес до ближайшего кратного increment
func RoundToIncrement(weight, increment float64) float64 {
	if increment <= 0 {
		return weight
	}
	return roundTo(weight, increment)
}

// LargestBelow - наибольшее кратное increment строго меньше limit (не меньше 0)
func LargestBelow(limit, increment float64) float64 {
	if increment <= 0 || limit <= 0 {
		return 0
	}
	n := math.Ceil(limit/increment) - 1
	if n < 0 {
		return 0
	}
	return roundTo(n*increment, increment)
}

// RIRFromRPE переводит RPE в повторения в запасе: RIR = 10 - RPE, не меньше 0
func RIRFromRPE(rpe float64) float64 {
	return math.Max(0, 10-rpe)
}

// roundTo убирает хвосты float после деления на шаг (100×0.55/2.5 и т.п.)
func roundTo(v, step float64) float64 {
	r := math.Round(v/step) * step
	return math.Round(r*1e6) / 1e6
}
