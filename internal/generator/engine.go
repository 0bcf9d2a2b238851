// Package generator собирает шаблон тренировки из цели, уровня, приоритетов и оборудования.
package generator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
	"gymcoach/internal/training"
)

const (
	// MaxExercises - предел упражнений в сессии
	MaxExercises = 8
	// muscleGroupLimit - сколько групп берётся из справочника
	muscleGroupLimit = 10
	// selectionGroups - из скольких групп подбираются упражнения
	selectionGroups = 6
	// prioritizedLevel - уровень приоритета для мышц из входных данных
	prioritizedLevel = 4

	weightUnit = "kg"
	setType    = "normal"
)

// Store - то, что нужно генератору от хранилища
type Store interface {
	repository.ExerciseStore
	repository.MuscleStore
	repository.ProfileStore
	SaveGeneratedTemplate(ctx context.Context, userID string, tmpl *models.GeneratedTemplate) (string, error)
}

// CapabilityResolver отдаёт снимок оборудования пользователя
type CapabilityResolver interface {
	Capabilities(ctx context.Context, userID string) models.EquipmentCapabilities
}

// Engine генерирует шаблоны тренировок
type Engine struct {
	store     Store
	equipment CapabilityResolver
	selector  *ExerciseSelector
	logger    zerolog.Logger
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine создаёт генератор
func NewEngine(store Store, resolver CapabilityResolver, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		equipment: resolver,
		selector:  NewExerciseSelector(store),
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate проверяет входные данные до любых запросов
func Validate(in models.TemplateGeneratorInputs) error {
	const op = "generate template"
	switch {
	case in.UserID == "":
		return apperrors.Validation(op, "user_id is required")
	case !in.Goal.Valid():
		return apperrors.Validation(op, "unknown goal %q", in.Goal)
	case !in.ExperienceLevel.Valid():
		return apperrors.Validation(op, "unknown experience level %q", in.ExperienceLevel)
	case in.DaysPerWeek < 3 || in.DaysPerWeek > 6:
		return apperrors.Validation(op, "days_per_week must be 3..6, got %d", in.DaysPerWeek)
	case in.SessionLengthMinutes < 30 || in.SessionLengthMinutes > 120:
		return apperrors.Validation(op, "session_length_minutes must be 30..120, got %d", in.SessionLengthMinutes)
	}
	return nil
}

// BaseWeeklySets - базовый недельный объём на мышечную группу
func BaseWeeklySets(level models.ExperienceLevel, goal models.Goal) int {
	return int(math.Round(float64(levelBaseSets[level]) * goalVolumeFactor[goal]))
}

// GenerateTemplate строит шаблон. Сбой любого чтения возвращается как ошибка генерации.
func (e *Engine) GenerateTemplate(ctx context.Context, in models.TemplateGeneratorInputs) (*models.GeneratedTemplate, error) {
	const op = "generate template"
	if err := Validate(in); err != nil {
		return nil, err
	}

	var caps models.EquipmentCapabilities
	if in.Equipment != nil {
		caps = *in.Equipment
	} else {
		caps = e.equipment.Capabilities(ctx, in.UserID)
	}

	multipliers, err := e.priorityMultipliers(ctx, in)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}

	sex, err := e.resolveSex(ctx, in)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}
	biasCfg := training.GetSexBiasConfig(sex)

	groups, err := e.store.ListMuscleGroups(ctx, muscleGroupLimit)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}

	base := BaseWeeklySets(in.ExperienceLevel, in.Goal)
	allocations := make([]models.VolumeAllocation, 0, len(groups))
	totalSets := 0
	for _, g := range groups {
		mult, ok := multipliers[g.ID]
		if !ok {
			mult = 1.0
		}
		weekly := training.ApplyVolumeBias(int(math.Round(float64(base)*mult)), models.BodyRegion(g.Region), sex)
		perSession := int(math.Ceil(float64(weekly) / float64(in.DaysPerWeek)))
		if perSession < 1 {
			perSession = 1
		}
		allocations = append(allocations, models.VolumeAllocation{
			MuscleGroupID:      g.ID,
			WeeklySetTarget:    weekly,
			PriorityMultiplier: mult,
			SetsPerSession:     perSession,
		})
		totalSets += perSession
	}
	// приоритетные группы первыми, остальные в порядке справочника
	sort.SliceStable(allocations, func(i, j int) bool {
		return allocations[i].PriorityMultiplier > allocations[j].PriorityMultiplier
	})

	exercises, err := e.selectExercises(ctx, in, caps, biasCfg, allocations)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}

	duration := 30 + 4*totalSets
	if duration > in.SessionLengthMinutes {
		duration = in.SessionLengthMinutes
	}

	tmpl := &models.GeneratedTemplate{
		Template: models.TemplateMetadata{
			Name:                     fmt.Sprintf("%d-Day %s Split", in.DaysPerWeek, in.Goal.Label()),
			Description:              describe(in, base),
			Notes:                    notes(sex, biasCfg),
			EstimatedDurationMinutes: duration,
			Difficulty:               difficultyLabel(in.ExperienceLevel),
		},
		Exercises:   exercises,
		Allocations: allocations,
	}
	e.logger.Debug().
		Str("user_id", in.UserID).
		Str("goal", string(in.Goal)).
		Int("exercises", len(exercises)).
		Int("base_sets", base).
		Msg("template generated")
	return tmpl, nil
}

// GenerateAndSave генерирует шаблон и сохраняет его активным
func (e *Engine) GenerateAndSave(ctx context.Context, in models.TemplateGeneratorInputs) (string, *models.GeneratedTemplate, error) {
	tmpl, err := e.GenerateTemplate(ctx, in)
	if err != nil {
		return "", nil, err
	}
	id, err := e.store.SaveGeneratedTemplate(ctx, in.UserID, tmpl)
	if err != nil {
		return "", nil, apperrors.BackingStore("save template", err)
	}
	e.logger.Info().Str("user_id", in.UserID).Str("template_id", id).Msg("template saved")
	return id, tmpl, nil
}

func (e *Engine) priorityMultipliers(ctx context.Context, in models.TemplateGeneratorInputs) (map[string]float64, error) {
	stored, err := e.store.ListMusclePriorities(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(stored)+len(in.PrioritizedMuscles))
	for _, id := range in.PrioritizedMuscles {
		out[id] = models.MusclePriority{PriorityLevel: prioritizedLevel}.Multiplier()
	}
	for _, p := range stored {
		out[p.MuscleGroupID] = p.Multiplier()
	}
	return out, nil
}

// resolveSex: явный пол из входа, затем профиль, иначе нейтральный
func (e *Engine) resolveSex(ctx context.Context, in models.TemplateGeneratorInputs) (models.Sex, error) {
	if in.Sex != nil {
		return models.ParseSex(string(*in.Sex)), nil
	}
	profile, err := e.store.GetFitnessProfile(ctx, in.UserID)
	if apperrors.IsNotFound(err) {
		return models.SexOther, nil
	}
	if err != nil {
		return "", err
	}
	return models.ParseSex(profile.Sex), nil
}

func (e *Engine) selectExercises(ctx context.Context, in models.TemplateGeneratorInputs, caps models.EquipmentCapabilities, biasCfg models.SexBasedTrainingConfig, allocations []models.VolumeAllocation) ([]models.GeneratedExercise, error) {
	var (
		out  []models.GeneratedExercise
		used []string
	)
	considered := 0
	for _, alloc := range allocations {
		if considered >= selectionGroups || len(out) >= MaxExercises {
			break
		}
		if alloc.SetsPerSession < 1 {
			continue
		}
		considered++

		picked, err := e.selector.Select(ctx, SelectionCriteria{
			MuscleGroupID:  alloc.MuscleGroupID,
			Equipment:      caps,
			AvoidBodyParts: in.Injuries,
			ExcludeIDs:     used,
			Count:          exercisesPerGroup(alloc.SetsPerSession),
		})
		if err != nil {
			return nil, fmt.Errorf("select exercises for %s: %w", alloc.MuscleGroupID, err)
		}
		for i := range picked {
			if len(out) >= MaxExercises {
				break
			}
			ex := &picked[i]
			used = append(used, ex.ID)
			out = append(out, prescribe(ex, alloc.MuscleGroupID, len(out)+1, in.Goal, biasCfg))
		}
	}
	return out, nil
}

// prescribe - подходы/повторения/отдых по таблице схем с поправками по полу
func prescribe(ex *models.ExerciseDescriptor, muscleGroupID string, order int, goal models.Goal, biasCfg models.SexBasedTrainingConfig) models.GeneratedExercise {
	kind := ClassifyKind(ex)
	s := schemes[goal][kind]
	if rr, ok := biasCfg.RepRanges[goal]; ok {
		s.RepRangeMin, s.RepRangeMax = rr[0], rr[1]
	}
	if rest, ok := biasCfg.DefaultRest[kind]; ok {
		s.RestSeconds = rest
	}
	return models.GeneratedExercise{
		ExerciseID:        ex.ID,
		ExerciseName:      ex.DisplayName(),
		MuscleGroupID:     muscleGroupID,
		OrderIndex:        order,
		DefaultSets:       s.Sets,
		TargetReps:        int(math.Round(float64(s.RepRangeMin+s.RepRangeMax) / 2)),
		RepRangeMin:       s.RepRangeMin,
		RepRangeMax:       s.RepRangeMax,
		RestSeconds:       s.RestSeconds,
		WeightUnit:        weightUnit,
		SetType:           setType,
		ProgressionPolicy: progressionPolicy(goal),
	}
}

func describe(in models.TemplateGeneratorInputs, base int) string {
	return fmt.Sprintf("%s program for %s lifters: %d sessions per week, about %d weekly sets per muscle group.",
		in.Goal.Label(), in.ExperienceLevel, in.DaysPerWeek, base)
}

// regionOrder - порядок регионов в заметках
var regionOrder = []models.BodyRegion{
	models.RegionChest, models.RegionBack, models.RegionShoulders, models.RegionArms,
	models.RegionCore, models.RegionGlutes, models.RegionLegs, models.RegionCalves,
}

func notes(sex models.Sex, cfg models.SexBasedTrainingConfig) string {
	var emphasis []string
	for _, r := range regionOrder {
		if b := cfg.VolumeBias[r]; b > 1 {
			emphasis = append(emphasis, fmt.Sprintf("%s +%d%%", r, int(math.Round((b-1)*100))))
		}
	}
	if len(emphasis) == 0 {
		return "Balanced volume across all regions."
	}
	return fmt.Sprintf("Volume emphasis (%s profile): %s.", sex, strings.Join(emphasis, ", "))
}
