package training

import "math"

// Method - формула расчёта 1ПМ
type Method string

const (
	MethodBrzycki Method = "brzycki"
	MethodEpley   Method = "epley"
	MethodAverage Method = "average"
)

// EstimateOneRepMax считает 1ПМ по весу и числу повторений.
// Неизвестная формула = Бжицки.
func EstimateOneRepMax(weight float64, reps int, method Method) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}
	if reps == 1 {
		return weight
	}

	switch method {
	case MethodEpley:
		return epley(weight, float64(reps))
	case MethodAverage:
		return round2((brzycki(weight, reps) + epley(weight, float64(reps))) / 2)
	default:
		return brzycki(weight, reps)
	}
}

// EstimateFromRPE - 1ПМ по Эпли с учётом повторений в запасе:
// 100 кг × 8 при RPE 8 считается как 10 повторений до отказа.
func EstimateFromRPE(weight float64, reps int, rpe float64) float64 {
	if reps <= 0 || weight <= 0 {
		return 0
	}
	toFailure := float64(reps)
	if rpe > 0 {
		toFailure += RIRFromRPE(rpe)
	}
	if toFailure <= 1 {
		return weight
	}
	return epley(weight, toFailure)
}

// brzycki: 1ПМ = вес × 36 / (37 - повторения), точнее всего до 10 повторений
func brzycki(weight float64, reps int) float64 {
	if reps >= 37 {
		return weight
	}
	return round2(weight * (36.0 / float64(37-reps)))
}

// epley: 1ПМ = вес × (1 + 0.0333 × повторения)
func epley(weight, reps float64) float64 {
	return round2(weight * (1 + 0.0333*reps))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
