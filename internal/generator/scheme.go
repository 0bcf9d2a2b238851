package generator

import "gymcoach/internal/models"

// scheme - подходы, диапазон повторений и отдых
type scheme struct {
	Sets        int
	RepRangeMin int
	RepRangeMax int
	RestSeconds int
}

// schemes - цель × тип упражнения
var schemes = map[models.Goal]map[models.ExerciseKind]scheme{
	models.GoalStrength: {
		models.KindCompound:  {Sets: 4, RepRangeMin: 3, RepRangeMax: 5, RestSeconds: 180},
		models.KindIsolation: {Sets: 3, RepRangeMin: 6, RepRangeMax: 8, RestSeconds: 120},
	},
	models.GoalHypertrophy: {
		models.KindCompound:  {Sets: 4, RepRangeMin: 6, RepRangeMax: 10, RestSeconds: 120},
		models.KindIsolation: {Sets: 3, RepRangeMin: 10, RepRangeMax: 15, RestSeconds: 75},
	},
	models.GoalEndurance: {
		models.KindCompound:  {Sets: 3, RepRangeMin: 12, RepRangeMax: 15, RestSeconds: 60},
		models.KindIsolation: {Sets: 3, RepRangeMin: 15, RepRangeMax: 20, RestSeconds: 45},
	},
	models.GoalPowerlifting: {
		models.KindCompound:  {Sets: 5, RepRangeMin: 1, RepRangeMax: 5, RestSeconds: 240},
		models.KindIsolation: {Sets: 3, RepRangeMin: 6, RepRangeMax: 10, RestSeconds: 120},
	},
	models.GoalGeneralFitness: {
		models.KindCompound:  {Sets: 3, RepRangeMin: 8, RepRangeMax: 12, RestSeconds: 90},
		models.KindIsolation: {Sets: 3, RepRangeMin: 10, RepRangeMax: 15, RestSeconds: 60},
	},
}

// Базовый недельный объём по уровню и множитель цели
var (
	levelBaseSets = map[models.ExperienceLevel]int{
		models.LevelBeginner:     10,
		models.LevelIntermediate: 14,
		models.LevelAdvanced:     18,
	}
	goalVolumeFactor = map[models.Goal]float64{
		models.GoalStrength:       0.8,
		models.GoalHypertrophy:    1.2,
		models.GoalEndurance:      1.4,
		models.GoalPowerlifting:   0.7,
		models.GoalGeneralFitness: 1.0,
	}
)

// progressionPolicy - политика прогрессии для цели
func progressionPolicy(goal models.Goal) string {
	switch goal {
	case models.GoalStrength, models.GoalPowerlifting:
		return "linear"
	case models.GoalEndurance:
		return "reps_first"
	default:
		return "double_progression"
	}
}

func difficultyLabel(level models.ExperienceLevel) string {
	switch level {
	case models.LevelBeginner:
		return "Beginner"
	case models.LevelAdvanced:
		return "Advanced"
	default:
		return "Intermediate"
	}
}
