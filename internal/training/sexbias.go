package training

import (
	"math"

	"gymcoach/internal/models"
)

// neutralConfig используется для "other" и "prefer_not_to_say"
var neutralConfig = models.SexBasedTrainingConfig{
	VolumeBias: map[models.BodyRegion]float64{
		models.RegionChest:     1.0,
		models.RegionBack:      1.0,
		models.RegionShoulders: 1.0,
		models.RegionArms:      1.0,
		models.RegionCore:      1.0,
		models.RegionGlutes:    1.0,
		models.RegionLegs:      1.0,
		models.RegionCalves:    1.0,
	},
	ProgressionBias: map[models.ProgressionKind]float64{
		models.ProgressionStrength:    1.0,
		models.ProgressionHypertrophy: 1.0,
		models.ProgressionEndurance:   1.0,
		models.ProgressionRecovery:    1.0,
	},
	DefaultRest: map[models.ExerciseKind]int{
		models.KindCompound:  165,
		models.KindIsolation: 90,
	},
	RepRanges: map[models.Goal]models.RepRange{
		models.GoalStrength:    {4, 6},
		models.GoalHypertrophy: {8, 12},
		models.GoalEndurance:   {12, 20},
	},
}

// sexBiasTable - статическая таблица поправок
var sexBiasTable = map[models.Sex]models.SexBasedTrainingConfig{
	models.SexMale: {
		VolumeBias: map[models.BodyRegion]float64{
			models.RegionChest:     1.1,
			models.RegionBack:      1.05,
			models.RegionShoulders: 1.05,
			models.RegionArms:      1.1,
			models.RegionCore:      1.0,
			models.RegionGlutes:    0.9,
			models.RegionLegs:      1.0,
			models.RegionCalves:    0.95,
		},
		ProgressionBias: map[models.ProgressionKind]float64{
			models.ProgressionStrength:    1.0,
			models.ProgressionHypertrophy: 1.0,
			models.ProgressionEndurance:   0.95,
			models.ProgressionRecovery:    1.0,
		},
		DefaultRest: map[models.ExerciseKind]int{
			models.KindCompound:  180,
			models.KindIsolation: 90,
		},
		RepRanges: map[models.Goal]models.RepRange{
			models.GoalStrength:    {3, 6},
			models.GoalHypertrophy: {8, 12},
			models.GoalEndurance:   {15, 20},
		},
	},
	models.SexFemale: {
		VolumeBias: map[models.BodyRegion]float64{
			models.RegionChest:     0.85,
			models.RegionBack:      1.0,
			models.RegionShoulders: 0.95,
			models.RegionArms:      0.9,
			models.RegionCore:      1.05,
			models.RegionGlutes:    1.25,
			models.RegionLegs:      1.1,
			models.RegionCalves:    1.0,
		},
		ProgressionBias: map[models.ProgressionKind]float64{
			models.ProgressionStrength:    0.9,
			models.ProgressionHypertrophy: 1.0,
			models.ProgressionEndurance:   1.1,
			models.ProgressionRecovery:    1.15,
		},
		DefaultRest: map[models.ExerciseKind]int{
			models.KindCompound:  150,
			models.KindIsolation: 75,
		},
		RepRanges: map[models.Goal]models.RepRange{
			models.GoalStrength:    {5, 8},
			models.GoalHypertrophy: {10, 15},
			models.GoalEndurance:   {15, 25},
		},
	},
	models.SexOther:          neutralConfig,
	models.SexPreferNotToSay: neutralConfig,
}

// GetSexBiasConfig возвращает поправки для пола. Неизвестное значение = нейтральный профиль.
func GetSexBiasConfig(sex models.Sex) models.SexBasedTrainingConfig {
	if cfg, ok := sexBiasTable[sex]; ok {
		return cfg
	}
	return neutralConfig
}

// ApplyVolumeBias масштабирует число подходов для региона
func ApplyVolumeBias(base int, region models.BodyRegion, sex models.Sex) int {
	bias, ok := GetSexBiasConfig(sex).VolumeBias[region]
	if !ok {
		bias = 1.0
	}
	return int(math.Round(float64(base) * bias))
}

// ApplyProgressionBias масштабирует шаг прогрессии
func ApplyProgressionBias(base float64, kind models.ProgressionKind, sex models.Sex) float64 {
	bias, ok := GetSexBiasConfig(sex).ProgressionBias[kind]
	if !ok {
		bias = 1.0
	}
	return base * bias
}

// GetRestTime - отдых по умолчанию для типа упражнения
func GetRestTime(kind models.ExerciseKind, sex models.Sex) (int, bool) {
	rest, ok := GetSexBiasConfig(sex).DefaultRest[kind]
	return rest, ok
}

// GetRepRange - диапазон повторений для цели; ok=false если для цели нет поправки
func GetRepRange(goal models.Goal, sex models.Sex) (models.RepRange, bool) {
	rr, ok := GetSexBiasConfig(sex).RepRanges[goal]
	return rr, ok
}
