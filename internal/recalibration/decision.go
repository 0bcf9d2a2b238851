package recalibration

import (
	"fmt"
	"math"

	"gymcoach/internal/models"
	"gymcoach/internal/training"
)

const (
	// ApplyConfidence - минимальная уверенность для автоматической записи
	ApplyConfidence = 0.7

	overshootsForIncrease  = 3
	undershootsForDeload   = 2
	increaseStepPerSession = 0.02
	maxIncrease            = 0.05
	deloadFactor           = 0.9
	deloadConfidence       = 0.8
)

// DetermineAdjustment - правило пересчёта по метрикам. nil = оставить как есть.
// Перебор весов важнее недобора.
func DetermineAdjustment(m *models.PerformanceMetrics, oldWeight float64) *models.RecalibrationResult {
	if m == nil || oldWeight <= 0 {
		return nil
	}
	switch {
	case m.ConsecutiveOvershoots >= overshootsForIncrease:
		n := m.ConsecutiveOvershoots
		pct := math.Min(maxIncrease, increaseStepPerSession*float64(n))
		return &models.RecalibrationResult{
			Action:     models.ActionIncreaseLoad,
			OldValue:   oldWeight,
			NewValue:   stepLoad(oldWeight, oldWeight*(1+pct)),
			Reason:     fmt.Sprintf("%d sessions in a row with RIR >= 4 (avg RIR %.1f): load +%d%%", n, m.AvgRIR, int(math.Round(pct*100))),
			Confidence: round2(math.Min(0.9, 0.6+0.1*float64(n))),
		}
	case m.ConsecutiveUndershoots >= undershootsForDeload:
		return &models.RecalibrationResult{
			Action:     models.ActionDeload,
			OldValue:   oldWeight,
			NewValue:   stepLoad(oldWeight, oldWeight*deloadFactor),
			Reason:     fmt.Sprintf("%d sessions in a row with RIR <= 1 (avg RIR %.1f): deload to 90%%", m.ConsecutiveUndershoots, m.AvgRIR),
			Confidence: deloadConfidence,
		}
	}
	return nil
}

// stepLoad округляет target до 0.25 так, чтобы вес сдвинулся от old в сторону target
// и при росте не обогнал target. Для лёгких весов шаг 0.25 слишком крупный,
// тогда берётся 0.01, а в крайнем случае сам target.
func stepLoad(old, target float64) float64 {
	const eps = 1e-9
	for _, inc := range []float64{training.RecalibrationIncrement, 0.01} {
		v := training.RoundToIncrement(target, inc)
		if target > old {
			if v > target+eps {
				v = training.RoundToIncrement(v-inc, inc)
			}
			if v > old+eps {
				return v
			}
			continue
		}
		if v < old-eps && v > 0 {
			return v
		}
	}
	return target
}
