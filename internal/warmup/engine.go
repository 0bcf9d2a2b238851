// Package warmup строит разминочные подходы к рабочему весу
// и подстраивает их под отзывы пользователя.
package warmup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
	"gymcoach/internal/training"
)

const (
	DefaultWorkingReps = 8
	defaultMinSets     = 2
	defaultMaxSets     = 4

	minIntensity = 0.3
	maxIntensity = 0.9

	baseRestSeconds  = 45
	restStepSeconds  = 15
	complexRestRatio = 1.2
	setSeconds       = 30

	// saveAttempts - попыток записи при конфликте версий
	saveAttempts = 3
)

// intensityRamp - доли рабочего веса по номеру подхода
var intensityRamp = []float64{0.4, 0.55, 0.7, 0.85}

// Store - настройки уровней и предпочтения разминки
type Store interface {
	GetExperienceLevelConfig(ctx context.Context, level models.ExperienceLevel) (*models.ExperienceLevelConfig, error)
	repository.WarmupStore
}

// Engine - политика разминки
type Engine struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock подменяет часы (для истории адаптаций)
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine создаёт движок разминки
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, logger: log.Logger, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PlanRequest - параметры плана разминки
type PlanRequest struct {
	UserID          string                 `json:"user_id"`
	ExerciseID      string                 `json:"exercise_id"`
	WorkingWeight   float64                `json:"working_weight"`
	WorkingReps     int                    `json:"working_reps"` // 0 = 8
	ExperienceLevel models.ExperienceLevel `json:"experience_level,omitempty"`
}

// GenerateWarmupPlan строит план. Без новых отзывов результат один и тот же.
func (e *Engine) GenerateWarmupPlan(ctx context.Context, req PlanRequest) (*models.WarmupPlan, error) {
	const op = "generate warmup plan"
	if req.WorkingReps == 0 {
		req.WorkingReps = DefaultWorkingReps
	}
	switch {
	case req.UserID == "" || req.ExerciseID == "":
		return nil, apperrors.Validation(op, "user_id and exercise_id are required")
	case req.WorkingWeight <= 0 || math.IsNaN(req.WorkingWeight) || math.IsInf(req.WorkingWeight, 0):
		return nil, apperrors.Validation(op, "working weight must be positive, got %v", req.WorkingWeight)
	case req.WorkingReps < 1:
		return nil, apperrors.Validation(op, "working reps must be at least 1, got %d", req.WorkingReps)
	}

	logger := e.logger.With().Str("user_id", req.UserID).Str("exercise_id", req.ExerciseID).Logger()
	var adaptations []string

	minSets, maxSets, allowComplex := defaultMinSets, defaultMaxSets, false
	if req.ExperienceLevel.Valid() {
		cfg, err := e.store.GetExperienceLevelConfig(ctx, req.ExperienceLevel)
		switch {
		case err == nil:
			minSets, maxSets = cfg.WarmupSetCountMin, cfg.WarmupSetCountMax
			allowComplex = cfg.AllowHighComplexity
			if minSets > maxSets {
				minSets, maxSets = maxSets, minSets
			}
			adaptations = append(adaptations, fmt.Sprintf("Experience level %s: %d-%d warmup sets", req.ExperienceLevel, minSets, maxSets))
		case !apperrors.IsNotFound(err):
			logger.Warn().Err(err).Msg("experience level config lookup failed, using defaults")
		}
	}

	prefs, err := e.store.GetWarmupPreferences(ctx, req.UserID, req.ExerciseID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			logger.Warn().Err(err).Msg("warmup preferences lookup failed, using defaults")
		}
		prefs = nil
	}

	setCount := int(math.Round(float64(minSets+maxSets) / 2))
	intensityAdj := 0.0
	if prefs != nil {
		if prefs.PreferredSetCount != nil {
			setCount = *prefs.PreferredSetCount
		}
		if prefs.LastFeedback != "" {
			setCount, _ = training.AdjustWarmup(setCount, 0, prefs.LastFeedback)
		}
		intensityAdj = prefs.PreferredIntensityAdjustment

		if prefs.SuccessStreak >= 3 {
			adaptations = append(adaptations, fmt.Sprintf("%d excellent warmups in a row, keeping the routine", prefs.SuccessStreak))
		}
		switch prefs.LastFeedback {
		case models.FeedbackNotEnough:
			adaptations = append(adaptations, "Added a set after \"not enough\" feedback")
		case models.FeedbackTooMuch:
			adaptations = append(adaptations, "Removed a set after \"too much\" feedback")
		case models.FeedbackExcellent:
			adaptations = append(adaptations, "Last warmup rated excellent")
		}
		switch {
		case intensityAdj > 0:
			adaptations = append(adaptations, fmt.Sprintf("Intensity raised by %d%%", int(math.Round(intensityAdj*100))))
		case intensityAdj < 0:
			adaptations = append(adaptations, fmt.Sprintf("Intensity lowered by %d%%", int(math.Round(-intensityAdj*100))))
		}
	}
	setCount = training.ClampInt(setCount, minSets, maxSets)
	setCount = training.ClampInt(setCount, training.MinWarmupSets, training.MaxWarmupSets)

	restRatio := 1.0
	if allowComplex {
		restRatio = complexRestRatio
	}

	plan := &models.WarmupPlan{
		ExerciseID:    req.ExerciseID,
		WorkingWeight: req.WorkingWeight,
		WorkingReps:   req.WorkingReps,
		Sets:          make([]models.WarmupSet, 0, setCount),
		Adaptations:   adaptations,
	}
	if plan.Adaptations == nil {
		plan.Adaptations = []string{}
	}
	for i := 0; i < setCount; i++ {
		set := buildSet(i, req.WorkingWeight, req.WorkingReps, intensityAdj, restRatio)
		plan.Sets = append(plan.Sets, set)
		plan.TotalDuration += set.RestSeconds + setSeconds
	}
	return plan, nil
}

// buildSet - i-й подход рампы (с нуля)
func buildSet(i int, workingWeight float64, workingReps int, intensityAdj, restRatio float64) models.WarmupSet {
	base := intensityRamp[len(intensityRamp)-1]
	if i < len(intensityRamp) {
		base = intensityRamp[i]
	}
	intensity := training.ClampFloat(base+intensityAdj, minIntensity, maxIntensity)
	intensity = math.Round(intensity*100) / 100

	weight := training.RoundToIncrement(workingWeight*intensity, training.WarmupIncrement)
	if weight >= workingWeight {
		weight = training.LargestBelow(workingWeight, training.WarmupIncrement)
	}

	return models.WarmupSet{
		SetIndex:    i + 1,
		Weight:      weight,
		Reps:        training.ClampInt(15-int(math.Round(intensity*10)), 5, workingReps+4),
		RestSeconds: int(math.Round(float64(baseRestSeconds+restStepSeconds*i) * restRatio)),
		Intensity:   intensity,
	}
}

// UpdateWarmupFeedback сохраняет отзыв и подстраивает будущие планы.
// При конфликте версий чтение-изменение-запись повторяется.
func (e *Engine) UpdateWarmupFeedback(ctx context.Context, userID, exerciseID string, feedback models.WarmupFeedback, plan *models.WarmupPlan) (*models.UserWarmupPreferences, error) {
	const op = "update warmup feedback"
	fb, err := models.ParseWarmupFeedback(string(feedback))
	if err != nil {
		return nil, apperrors.Validation(op, "%v", err)
	}
	if userID == "" || exerciseID == "" {
		return nil, apperrors.Validation(op, "user_id and exercise_id are required")
	}
	if plan == nil || len(plan.Sets) == 0 {
		return nil, apperrors.Validation(op, "warmup plan with at least one set is required")
	}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		prefs, err := e.store.GetWarmupPreferences(ctx, userID, exerciseID)
		switch {
		case apperrors.IsNotFound(err):
			prefs = &models.UserWarmupPreferences{UserID: userID, ExerciseID: exerciseID}
		case err != nil:
			return nil, apperrors.BackingStore(op, err)
		}

		applyFeedback(prefs, fb, plan, e.now())

		err = e.store.SaveWarmupPreferences(ctx, prefs)
		if err == nil {
			e.logger.Debug().
				Str("user_id", userID).
				Str("exercise_id", exerciseID).
				Str("feedback", string(fb)).
				Int("preferred_sets", *prefs.PreferredSetCount).
				Msg("warmup feedback saved")
			return prefs, nil
		}
		if !apperrors.IsConflict(err) {
			return nil, apperrors.BackingStore(op, err)
		}
		lastErr = err
		e.logger.Debug().Int("attempt", attempt).Str("user_id", userID).Msg("warmup preferences changed concurrently, retrying")
	}
	return nil, lastErr
}

// applyFeedback - чистое обновление предпочтений по отзыву
func applyFeedback(p *models.UserWarmupPreferences, fb models.WarmupFeedback, plan *models.WarmupPlan, now time.Time) {
	count, adj := training.AdjustWarmup(len(plan.Sets), p.PreferredIntensityAdjustment, fb)
	p.PreferredSetCount = &count
	p.PreferredIntensityAdjustment = adj
	p.LastFeedback = fb
	if fb == models.FeedbackExcellent {
		p.SuccessStreak++
	} else {
		p.SuccessStreak = 0
	}
	p.AppendHistory(models.AdaptationEntry{
		Date:         now,
		Feedback:     fb,
		SetCount:     len(plan.Sets),
		MaxIntensity: plan.MaxIntensity(),
	})
}
