package training

import "gymcoach/internal/models"

// Границы адаптации разминки
const (
	MinWarmupSets          = 2
	MaxWarmupSets          = 6
	IntensityAdjustStep    = 0.05
	MaxIntensityAdjustment = 0.2
)

// AdjustWarmup - единое правило реакции на отзыв о разминке.
// not_enough: +1 подход и +5% интенсивности, too_much: -1 подход и -5%,
// excellent: без изменений. Используется и при генерации плана, и при сохранении отзыва.
func AdjustWarmup(setCount int, intensityAdj float64, feedback models.WarmupFeedback) (int, float64) {
	switch feedback {
	case models.FeedbackNotEnough:
		setCount++
		intensityAdj += IntensityAdjustStep
	case models.FeedbackTooMuch:
		setCount--
		intensityAdj -= IntensityAdjustStep
	}
	return ClampInt(setCount, MinWarmupSets, MaxWarmupSets),
		ClampFloat(roundTo(intensityAdj, 0.01), -MaxIntensityAdjustment, MaxIntensityAdjustment)
}

// ClampInt ограничивает v отрезком [lo, hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat ограничивает v отрезком [lo, hi]
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
