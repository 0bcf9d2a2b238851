package models

import (
	"fmt"
	"time"
)

// WarmupFeedback - оценка разминки пользователем
type WarmupFeedback string

const (
	FeedbackNotEnough WarmupFeedback = "not_enough"
	FeedbackExcellent WarmupFeedback = "excellent"
	FeedbackTooMuch   WarmupFeedback = "too_much"
)

// ParseWarmupFeedback проверяет значение отзыва
func ParseWarmupFeedback(s string) (WarmupFeedback, error) {
	switch f := WarmupFeedback(s); f {
	case FeedbackNotEnough, FeedbackExcellent, FeedbackTooMuch:
		return f, nil
	}
	return "", fmt.Errorf("unknown warmup feedback %q", s)
}

// WarmupSet - разминочный подход
type WarmupSet struct {
	SetIndex    int     `json:"set_index"` // с 1
	Weight      float64 `json:"weight"`
	Reps        int     `json:"reps"`
	RestSeconds int     `json:"rest_seconds"`
	Intensity   float64 `json:"intensity"` // доля рабочего веса
}

// WarmupPlan - план разминки к упражнению
type WarmupPlan struct {
	ExerciseID    string      `json:"exercise_id"`
	WorkingWeight float64     `json:"working_weight"`
	WorkingReps   int         `json:"working_reps"`
	Sets          []WarmupSet `json:"sets"`
	TotalDuration int         `json:"total_duration"` // секунды
	Adaptations   []string    `json:"adaptations"`
}

// MaxIntensity - интенсивность последнего (самого тяжёлого) подхода
func (p *WarmupPlan) MaxIntensity() float64 {
	var max float64
	for _, s := range p.Sets {
		if s.Intensity > max {
			max = s.Intensity
		}
	}
	return max
}

// AdaptationEntry - запись истории адаптации разминки
type AdaptationEntry struct {
	Date         time.Time      `json:"date" yaml:"date"`
	Feedback     WarmupFeedback `json:"feedback" yaml:"feedback"`
	SetCount     int            `json:"set_count" yaml:"set_count"`
	MaxIntensity float64        `json:"max_intensity" yaml:"max_intensity"`
}

// MaxAdaptationHistory - сколько последних записей хранится
const MaxAdaptationHistory = 10

// UserWarmupPreferences - строка user_exercise_warmups
type UserWarmupPreferences struct {
	UserID                       string            `json:"user_id" yaml:"user_id"`
	ExerciseID                   string            `json:"exercise_id" yaml:"exercise_id"`
	LastFeedback                 WarmupFeedback    `json:"last_feedback,omitempty" yaml:"last_feedback"`
	SuccessStreak                int               `json:"success_streak" yaml:"success_streak"`
	PreferredSetCount            *int              `json:"preferred_set_count,omitempty" yaml:"preferred_set_count"`
	PreferredIntensityAdjustment float64           `json:"preferred_intensity_adjustment" yaml:"preferred_intensity_adjustment"`
	AdaptationHistory            []AdaptationEntry `json:"adaptation_history,omitempty" yaml:"adaptation_history"`
	Version                      int               `json:"version" yaml:"version"` // 0 = записи ещё нет
	UpdatedAt                    time.Time         `json:"updated_at" yaml:"updated_at"`
}

// AppendHistory добавляет запись, оставляя последние MaxAdaptationHistory
func (p *UserWarmupPreferences) AppendHistory(e AdaptationEntry) {
	p.AdaptationHistory = append(p.AdaptationHistory, e)
	if n := len(p.AdaptationHistory); n > MaxAdaptationHistory {
		p.AdaptationHistory = append([]AdaptationEntry(nil), p.AdaptationHistory[n-MaxAdaptationHistory:]...)
	}
}
