// Package recalibration пересчитывает рабочие веса активных шаблонов
// по недавним RPE пользователя и даёт рекомендацию по объёму.
package recalibration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/equipment"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
)

const (
	// AllMuscles - ключ общей рекомендации по объёму
	AllMuscles = "all_muscles"

	defaultConcurrency = 4
	readinessWindow    = 7 * 24 * time.Hour
	neutralSoreness    = 3.0
	volumeStepPercent  = 10.0
)

// Store - то, что нужно пересчёту от хранилища
type Store interface {
	ListActiveTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error)
	ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error)
	UpdateTargetWeight(ctx context.Context, templateExerciseID string, weight float64) error
	UpdateTargetReps(ctx context.Context, templateExerciseID string, reps int) error
	GetExercise(ctx context.Context, id string) (*models.ExerciseDescriptor, error)
	repository.HistoryStore
}

// CapabilityResolver отдаёт оборудование пользователя
type CapabilityResolver interface {
	Capabilities(ctx context.Context, userID string) models.EquipmentCapabilities
}

// Engine - пересчёт нагрузок
type Engine struct {
	store       Store
	equipment   CapabilityResolver
	logger      zerolog.Logger
	now         func() time.Time
	concurrency int
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock подменяет часы
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithEquipment включает подсказку ближайшего собираемого веса в причине
func WithEquipment(r CapabilityResolver) Option {
	return func(e *Engine) { e.equipment = r }
}

// WithConcurrency - сколько шаблонов обрабатывается параллельно
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine создаёт движок пересчёта
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		logger:      log.Logger,
		now:         func() time.Time { return time.Now().UTC() },
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run - состояние одного прогона
type run struct {
	userID string
	dryRun bool
	caps   *models.EquipmentCapabilities
	logger zerolog.Logger

	mu        sync.Mutex
	applyErrs []error
}

func (r *run) failApply(err error) {
	r.mu.Lock()
	r.applyErrs = append(r.applyErrs, err)
	r.mu.Unlock()
}

// RecalibrateUserPlans пересчитывает все активные шаблоны пользователя.
// Ошибка чтения шаблонов прерывает прогон. Ошибки записи собираются в одну,
// при этом сводка всё равно возвращается.
func (e *Engine) RecalibrateUserPlans(ctx context.Context, userID string, dryRun bool) (*models.RecalibrationSummary, error) {
	const op = "recalibrate"
	if userID == "" {
		return nil, apperrors.Validation(op, "user_id is required")
	}
	started := e.now()
	r := &run{
		userID: userID,
		dryRun: dryRun,
		logger: e.logger.With().Str("user_id", userID).Bool("dry_run", dryRun).Logger(),
	}

	templates, err := e.store.ListActiveTemplates(ctx, userID)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}
	if e.equipment != nil && len(templates) > 0 {
		caps := e.equipment.Capabilities(ctx, userID)
		r.caps = &caps
	}

	perTemplate := make([][]models.RecalibrationResult, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, tmpl := range templates {
		i, tmpl := i, tmpl
		g.Go(func() error {
			results, err := e.recalibrateTemplate(gctx, r, tmpl)
			if err != nil {
				return err
			}
			perTemplate[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.BackingStore(op, err)
	}

	results := make([]models.RecalibrationResult, 0)
	for _, rs := range perTemplate {
		results = append(results, rs...)
	}
	volumeChanges, note := e.volumeAdvice(ctx, r)

	summary := &models.RecalibrationSummary{
		RunID:         uuid.NewString(),
		UserID:        userID,
		Results:       results,
		VolumeChanges: volumeChanges,
		VolumeNote:    note,
		TotalChanges:  len(results) + len(volumeChanges),
		DryRun:        dryRun,
		Timestamp:     started,
	}
	r.logger.Info().
		Str("run_id", summary.RunID).
		Int("templates", len(templates)).
		Int("changes", summary.TotalChanges).
		Msg("recalibration finished")

	if len(r.applyErrs) > 0 {
		return summary, apperrors.BackingStore(op, fmt.Errorf("%d adjustment(s) not applied: %w", len(r.applyErrs), errors.Join(r.applyErrs...)))
	}
	return summary, nil
}

func (e *Engine) recalibrateTemplate(ctx context.Context, r *run, tmpl models.WorkoutTemplate) ([]models.RecalibrationResult, error) {
	exercises, err := e.store.ListTemplateExercises(ctx, tmpl.ID)
	if err != nil {
		return nil, fmt.Errorf("template %s exercises: %w", tmpl.ID, err)
	}
	var out []models.RecalibrationResult
	for _, te := range exercises {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := e.evaluate(ctx, r, te)
		if res == nil {
			continue
		}
		res.TemplateID = tmpl.ID
		if !r.dryRun && res.Confidence >= ApplyConfidence {
			if err := e.apply(ctx, res); err != nil {
				r.logger.Error().Err(err).Str("template_exercise_id", te.ID).Msg("adjustment not applied")
				r.failApply(fmt.Errorf("%s: %w", te.ID, err))
			} else {
				res.Applied = true
			}
		}
		out = append(out, *res)
	}
	return out, nil
}

// evaluate - рекомендация по одному упражнению шаблона; nil если данных мало или менять нечего
func (e *Engine) evaluate(ctx context.Context, r *run, te models.TemplateExercise) *models.RecalibrationResult {
	logger := r.logger.With().Str("exercise_id", te.ExerciseID).Logger()

	sets, err := e.store.ListRatedSets(ctx, r.userID, te.ExerciseID, HistoryLimit)
	if err != nil {
		logger.Debug().Err(err).Msg("history unavailable, skipping")
		return nil
	}
	metrics, err := ComputeMetrics(sets, te.TargetReps)
	if err != nil {
		logger.Debug().Err(err).Msg("not enough history, skipping")
		return nil
	}

	oldValue := metrics.LatestTopSet
	if te.TargetWeight != nil && *te.TargetWeight > 0 {
		oldValue = *te.TargetWeight
	}
	res := DetermineAdjustment(metrics, oldValue)
	if res == nil {
		logger.Debug().
			Float64("avg_rir", metrics.AvgRIR).
			Float64("e1rm", metrics.EstimatedOneRepMax).
			Msg("load on target")
		return nil
	}
	res.TemplateExerciseID = te.ID
	res.ExerciseID = te.ExerciseID
	e.annotateLoadable(ctx, r, res)
	return res
}

// annotateLoadable дописывает ближайший вес, который реально собрать на оборудовании
func (e *Engine) annotateLoadable(ctx context.Context, r *run, res *models.RecalibrationResult) {
	if r.caps == nil {
		return
	}
	ex, err := e.store.GetExercise(ctx, res.ExerciseID)
	if err != nil {
		return
	}
	loadable := equipment.NearestLoadable(*r.caps, ex.EquipmentSlug(), res.NewValue)
	if loadable != res.NewValue {
		res.Reason += fmt.Sprintf(" (nearest loadable: %s kg)", strconv.FormatFloat(loadable, 'f', -1, 64))
	}
}

func (e *Engine) apply(ctx context.Context, res *models.RecalibrationResult) error {
	switch res.Action {
	case models.ActionIncreaseLoad, models.ActionDeload:
		return e.store.UpdateTargetWeight(ctx, res.TemplateExerciseID, res.NewValue)
	case models.ActionIncreaseReps:
		return e.store.UpdateTargetReps(ctx, res.TemplateExerciseID, int(res.NewValue))
	}
	return nil
}

// volumeAdvice - рекомендация по объёму из болезненности за 7 дней; ничего не пишет
func (e *Engine) volumeAdvice(ctx context.Context, r *run) (map[string]float64, string) {
	changes := make(map[string]float64)
	checkins, err := e.store.ListReadinessSince(ctx, r.userID, e.now().Add(-readinessWindow))
	if err != nil {
		r.logger.Warn().Err(err).Msg("readiness unavailable, no volume advice")
		return changes, ""
	}
	avg := neutralSoreness
	if len(checkins) > 0 {
		var sum int
		for _, c := range checkins {
			sum += c.Soreness
		}
		avg = float64(sum) / float64(len(checkins))
	}
	switch {
	case avg >= 4:
		changes[AllMuscles] = -volumeStepPercent
		return changes, fmt.Sprintf("Average soreness %.1f over the last 7 days: reduce weekly volume by 10%%", avg)
	case avg <= 2:
		changes[AllMuscles] = volumeStepPercent
		return changes, fmt.Sprintf("Average soreness %.1f over the last 7 days: room to add 10%% weekly volume", avg)
	}
	return changes, ""
}
