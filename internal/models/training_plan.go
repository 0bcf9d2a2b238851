package models

import "time"

// TemplateGeneratorInputs - параметры генерации шаблона
type TemplateGeneratorInputs struct {
	UserID               string                 `json:"user_id" yaml:"user_id"`
	Goal                 Goal                   `json:"goal" yaml:"goal"`
	ExperienceLevel      ExperienceLevel        `json:"experience_level" yaml:"experience_level"`
	DaysPerWeek          int                    `json:"days_per_week" yaml:"days_per_week"`                   // 3..6
	SessionLengthMinutes int                    `json:"session_length_minutes" yaml:"session_length_minutes"` // 30..120
	PrioritizedMuscles   []string               `json:"prioritized_muscles,omitempty" yaml:"prioritized_muscles"`
	Injuries             []string               `json:"injuries,omitempty" yaml:"injuries"` // body-part ids
	Equipment            *EquipmentCapabilities `json:"equipment,omitempty" yaml:"-"`
	Sex                  *Sex                   `json:"sex,omitempty" yaml:"sex"` // nil = взять из профиля
}

// VolumeAllocation - недельный объём мышечной группы
type VolumeAllocation struct {
	MuscleGroupID      string  `json:"muscle_group_id"`
	WeeklySetTarget    int     `json:"weekly_set_target"`
	PriorityMultiplier float64 `json:"priority_multiplier"`
	SetsPerSession     int     `json:"sets_per_session"`
}

// TemplateMetadata - описание сгенерированного шаблона
type TemplateMetadata struct {
	Name                     string `json:"name"`
	Description              string `json:"description"`
	Notes                    string `json:"notes"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
	Difficulty               string `json:"difficulty"`
}

// GeneratedExercise - упражнение шаблона
type GeneratedExercise struct {
	ExerciseID        string `json:"exercise_id"`
	ExerciseName      string `json:"exercise_name,omitempty"`
	MuscleGroupID     string `json:"muscle_group_id,omitempty"`
	OrderIndex        int    `json:"order_index"` // с 1, без пропусков
	DefaultSets       int    `json:"default_sets"`
	TargetReps        int    `json:"target_reps"`
	RepRangeMin       int    `json:"rep_range_min"`
	RepRangeMax       int    `json:"rep_range_max"`
	RestSeconds       int    `json:"rest_seconds"`
	WeightUnit        string `json:"weight_unit"`
	SetType           string `json:"set_type"`
	ProgressionPolicy string `json:"progression_policy"`
}

// GeneratedTemplate - шаблон тренировки
type GeneratedTemplate struct {
	Template    TemplateMetadata    `json:"template"`
	Exercises   []GeneratedExercise `json:"exercises"`
	Allocations []VolumeAllocation  `json:"allocations"`
}

// WorkoutTemplate - строка workout_templates
type WorkoutTemplate struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Name      string    `json:"name" yaml:"name"`
	IsActive  bool      `json:"is_active" yaml:"is_active"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// TemplateExercise - строка template_exercises
type TemplateExercise struct {
	ID           string   `json:"id" yaml:"id"`
	TemplateID   string   `json:"template_id" yaml:"template_id"`
	ExerciseID   string   `json:"exercise_id" yaml:"exercise_id"`
	OrderIndex   int      `json:"order_index" yaml:"order_index"`
	DefaultSets  int      `json:"default_sets" yaml:"default_sets"`
	TargetReps   int      `json:"target_reps" yaml:"target_reps"`
	TargetWeight *float64 `json:"target_weight,omitempty" yaml:"target_weight"` // target_settings.weight
}
