package models

import "time"

// RatedSet - завершённый подход с RPE из истории тренировок
type RatedSet struct {
	Weight      float64   `json:"weight" yaml:"weight"`
	Reps        int       `json:"reps" yaml:"reps"`
	RPE         float64   `json:"rpe" yaml:"rpe"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// SessionPerformance - подходы одного календарного дня
type SessionPerformance struct {
	Date   time.Time  `json:"date"`
	Sets   []RatedSet `json:"sets"`
	AvgRPE float64    `json:"avg_rpe"`
	AvgRIR float64    `json:"avg_rir"`
	Volume float64    `json:"volume"` // сумма вес × повторения
	TopSet float64    `json:"top_set"`
}

// PerformanceMetrics - сводка по упражнению для пересчёта нагрузки
type PerformanceMetrics struct {
	AvgRIR                 float64   `json:"avg_rir"`
	AchievedRepsVsRange    float64   `json:"achieved_reps_vs_range"`
	ConsecutiveOvershoots  int       `json:"consecutive_overshoots"`
	ConsecutiveUndershoots int       `json:"consecutive_undershoots"`
	LastThreeRPE           []float64 `json:"last_three_rpe"`
	VolumeProgress         float64   `json:"volume_progress"` // % изменения объёма
	SessionCount           int       `json:"session_count"`
	SetCount               int       `json:"set_count"`
	LatestTopSet           float64   `json:"latest_top_set"`
	EstimatedOneRepMax     float64   `json:"estimated_one_rep_max"` // лучший подход последней сессии
}

// AdjustmentAction - решение по упражнению
type AdjustmentAction string

const (
	ActionIncreaseLoad    AdjustmentAction = "increase_load"
	ActionIncreaseReps    AdjustmentAction = "increase_reps"
	ActionDeload          AdjustmentAction = "deload"
	ActionRebalanceVolume AdjustmentAction = "rebalance_volume"
	ActionNoChange        AdjustmentAction = "no_change"
)

// RecalibrationResult - предложенная корректировка
type RecalibrationResult struct {
	TemplateID         string           `json:"template_id"`
	TemplateExerciseID string           `json:"template_exercise_id"`
	ExerciseID         string           `json:"exercise_id"`
	Action             AdjustmentAction `json:"action"`
	OldValue           float64          `json:"old_value"`
	NewValue           float64          `json:"new_value"`
	Reason             string           `json:"reason"`
	Confidence         float64          `json:"confidence"` // 0..1
	Applied            bool             `json:"applied"`
}

// RecalibrationSummary - итог прогона по пользователю
type RecalibrationSummary struct {
	RunID         string                `json:"run_id"`
	UserID        string                `json:"user_id"`
	Results       []RecalibrationResult `json:"results"`
	VolumeChanges map[string]float64    `json:"volume_changes"` // группа -> % изменения
	VolumeNote    string                `json:"volume_note,omitempty"`
	TotalChanges  int                   `json:"total_changes"`
	DryRun        bool                  `json:"dry_run"`
	Timestamp     time.Time             `json:"timestamp"`
}

// ReadinessCheckin - строка readiness_checkins
type ReadinessCheckin struct {
	UserID    string    `json:"user_id" yaml:"user_id"`
	Soreness  int       `json:"soreness" yaml:"soreness"` // 1..5
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
