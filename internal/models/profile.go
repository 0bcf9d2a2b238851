package models

import "strings"

// Sex - пол для тренировочных поправок
type Sex string

const (
	SexMale           Sex = "male"
	SexFemale         Sex = "female"
	SexOther          Sex = "other"
	SexPreferNotToSay Sex = "prefer_not_to_say"
)

// ParseSex нормализует значение из профиля. Неизвестное/пустое = "other".
func ParseSex(s string) Sex {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	case SexPreferNotToSay:
		return SexPreferNotToSay
	default:
		return SexOther
	}
}

// ExperienceLevel - уровень подготовки
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

// Valid проверяет, что уровень известен
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Goal - цель тренировок
type Goal string

const (
	GoalStrength       Goal = "strength"
	GoalHypertrophy    Goal = "hypertrophy"
	GoalEndurance      Goal = "endurance"
	GoalPowerlifting   Goal = "powerlifting"
	GoalGeneralFitness Goal = "general_fitness"
)

// Valid проверяет, что цель известна
func (g Goal) Valid() bool {
	switch g {
	case GoalStrength, GoalHypertrophy, GoalEndurance, GoalPowerlifting, GoalGeneralFitness:
		return true
	}
	return false
}

// Label - название цели для имени шаблона
func (g Goal) Label() string {
	switch g {
	case GoalStrength:
		return "Strength"
	case GoalHypertrophy:
		return "Hypertrophy"
	case GoalEndurance:
		return "Endurance"
	case GoalPowerlifting:
		return "Powerlifting"
	case GoalGeneralFitness:
		return "General Fitness"
	}
	return string(g)
}

// FitnessProfile - строка user_profile_fitness
type FitnessProfile struct {
	UserID          string          `json:"user_id" yaml:"user_id"`
	Sex             string          `json:"sex" yaml:"sex"`
	ExperienceLevel ExperienceLevel `json:"experience_level" yaml:"experience_level"`
}

// ExperienceLevelConfig - строка experience_level_configs
type ExperienceLevelConfig struct {
	ExperienceLevel     ExperienceLevel `json:"experience_level" yaml:"experience_level"`
	WarmupSetCountMin   int             `json:"warmup_set_count_min" yaml:"warmup_set_count_min"`
	WarmupSetCountMax   int             `json:"warmup_set_count_max" yaml:"warmup_set_count_max"`
	MainRestSecondsMin  int             `json:"main_rest_seconds_min" yaml:"main_rest_seconds_min"`
	MainRestSecondsMax  int             `json:"main_rest_seconds_max" yaml:"main_rest_seconds_max"`
	AllowHighComplexity bool            `json:"allow_high_complexity" yaml:"allow_high_complexity"`
}

// BodyRegion - регион тела для поправок объёма
type BodyRegion string

const (
	RegionChest     BodyRegion = "chest"
	RegionBack      BodyRegion = "back"
	RegionShoulders BodyRegion = "shoulders"
	RegionArms      BodyRegion = "arms"
	RegionCore      BodyRegion = "core"
	RegionGlutes    BodyRegion = "glutes"
	RegionLegs      BodyRegion = "legs"
	RegionCalves    BodyRegion = "calves"
)

// ProgressionKind - вид прогрессии для поправок
type ProgressionKind string

const (
	ProgressionStrength    ProgressionKind = "strength"
	ProgressionHypertrophy ProgressionKind = "hypertrophy"
	ProgressionEndurance   ProgressionKind = "endurance"
	ProgressionRecovery    ProgressionKind = "recovery"
)

// ExerciseKind - базовое или изолирующее
type ExerciseKind string

const (
	KindCompound  ExerciseKind = "compound"
	KindIsolation ExerciseKind = "isolation"
)

// RepRange - диапазон повторений [min, max]
type RepRange [2]int

// SexBasedTrainingConfig - поправки по полу
type SexBasedTrainingConfig struct {
	VolumeBias      map[BodyRegion]float64      `json:"volume_bias"`
	ProgressionBias map[ProgressionKind]float64 `json:"progression_bias"`
	DefaultRest     map[ExerciseKind]int        `json:"default_rest"`
	RepRanges       map[Goal]RepRange           `json:"rep_ranges"`
}
