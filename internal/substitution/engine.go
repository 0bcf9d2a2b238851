// Package substitution подбирает замены упражнений и хранит выбор пользователя.
package substitution

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
	"gymcoach/internal/training"
)

const (
	// MaxAlternatives - сколько замен возвращается
	MaxAlternatives = 12
	// curatedEnough - при меньшем числе ручных замен включается расчётный поиск
	curatedEnough = 8
	candidatePool = 30

	reasonCurated   = "Curated match"
	reasonPreferred = "Your preferred substitute"
)

// Store - то, что нужно движку от хранилища
type Store interface {
	repository.ExerciseStore
	repository.PreferenceStore
	GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error)
	ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error)
	ReplaceTemplateExercise(ctx context.Context, templateID, originalExerciseID, newExerciseID string) error
}

// Engine подбирает замены упражнений
type Engine struct {
	store  Store
	logger zerolog.Logger
}

// Option настраивает Engine
type Option func(*Engine)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine создаёт движок замен
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, logger: log.Logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FindAlternatives возвращает до 12 замен, лучшие первыми.
// Отсутствие исходного упражнения - ошибка; прочие сбои чтения дают пустой список.
func (e *Engine) FindAlternatives(ctx context.Context, exerciseID string, caps models.EquipmentCapabilities, targetMuscles []string, constraints *models.SubstitutionConstraints) ([]models.ExerciseAlternative, error) {
	original, err := e.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, apperrors.BackingStore("find alternatives", err)
	}
	var c models.SubstitutionConstraints
	if constraints != nil {
		c = *constraints
	}

	logger := e.logger.With().Str("exercise_id", exerciseID).Str("user_id", c.UserID).Logger()
	seen := map[string]bool{original.ID: true}
	var result []models.ExerciseAlternative

	if pinned := e.preferredSubstitute(ctx, logger, original.ID, caps, c); pinned != nil {
		seen[pinned.ExerciseID] = true
		result = append(result, *pinned)
	}

	similars, err := e.store.ListSimilars(ctx, original.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("curated similars lookup failed")
		return []models.ExerciseAlternative{}, nil
	}
	for i := range similars {
		s := &similars[i]
		if seen[s.Exercise.ID] || !passesFilters(&s.Exercise, caps, c) {
			continue
		}
		reason := s.Reason
		if reason == "" {
			reason = reasonCurated
		}
		seen[s.Exercise.ID] = true
		result = append(result, newAlternative(&s.Exercise, clampScore(int(math.Round(s.SimilarityScore*100))), []string{reason}))
	}

	if len(result) < curatedEnough {
		candidates, err := e.candidates(ctx, original, c)
		if err != nil {
			logger.Warn().Err(err).Msg("candidate lookup failed")
			return []models.ExerciseAlternative{}, nil
		}
		for i := range candidates {
			cand := &candidates[i]
			if seen[cand.ID] {
				continue
			}
			score, reasons := scoreCandidate(original, cand, caps, targetMuscles)
			if score < MinComputedScore || !passesFilters(cand, caps, c) {
				continue
			}
			seen[cand.ID] = true
			result = append(result, newAlternative(cand, score, reasons))
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].MatchScore > result[j].MatchScore })
	if len(result) > MaxAlternatives {
		result = result[:MaxAlternatives]
	}
	if result == nil {
		result = []models.ExerciseAlternative{}
	}
	return result, nil
}

// candidates - публичные упражнения той же основной мышцы, либо любые
func (e *Engine) candidates(ctx context.Context, original *models.ExerciseDescriptor, c models.SubstitutionConstraints) ([]models.ExerciseDescriptor, error) {
	exclude := append([]string{original.ID}, c.ExcludeExerciseIDs...)
	q := models.CandidateQuery{MuscleID: original.PrimaryMuscleID, ExcludeIDs: exclude, Limit: candidatePool}
	list, err := e.store.ListCandidates(ctx, q)
	if err != nil || len(list) > 0 || q.MuscleID == "" {
		return list, err
	}
	q.MuscleID = ""
	return e.store.ListCandidates(ctx, q)
}

// preferredSubstitute возвращает сохранённую замену для (user, template, original), если она проходит фильтры
func (e *Engine) preferredSubstitute(ctx context.Context, logger zerolog.Logger, originalID string, caps models.EquipmentCapabilities, c models.SubstitutionConstraints) *models.ExerciseAlternative {
	if c.UserID == "" || c.TemplateID == "" {
		return nil
	}
	prefs, err := e.store.ListSubstitutionPreferences(ctx, c.UserID, c.TemplateID)
	if err != nil {
		logger.Warn().Err(err).Msg("substitution preferences lookup failed")
		return nil
	}
	for _, p := range prefs {
		if p.OriginalExerciseID != originalID || p.PreferredExerciseID == originalID {
			continue
		}
		ex, err := e.store.GetExercise(ctx, p.PreferredExerciseID)
		if err != nil {
			logger.Warn().Err(err).Str("preferred_id", p.PreferredExerciseID).Msg("preferred substitute lookup failed")
			return nil
		}
		if !passesFilters(ex, caps, c) {
			return nil
		}
		alt := newAlternative(ex, 100, []string{reasonPreferred})
		return &alt
	}
	return nil
}

func newAlternative(e *models.ExerciseDescriptor, score int, reasons []string) models.ExerciseAlternative {
	return models.ExerciseAlternative{
		ExerciseID:      e.ID,
		Name:            e.DisplayName(),
		Slug:            e.Slug,
		MatchScore:      score,
		MatchReasons:    reasons,
		Equipment:       e.Equipment,
		MovementPattern: training.ClassifyMovement(e.Slug),
	}
}

// SavePreference сохраняет выбор замены. Ошибки записи возвращаются вызывающему.
func (e *Engine) SavePreference(ctx context.Context, pref *models.SubstitutionPreference) error {
	if err := pref.Validate(); err != nil {
		return apperrors.Validation("save substitution preference", "%v", err)
	}
	if err := e.store.SaveSubstitutionPreference(ctx, pref); err != nil {
		return apperrors.BackingStore("save substitution preference", err)
	}
	return nil
}

// ApplySubstitution меняет упражнение в шаблоне и запоминает выбор.
// Шаблон должен принадлежать userID и содержать originalID, иначе NotFound до любой записи.
// Выбор сохраняется раньше замены: повтор после сбоя безопасен.
func (e *Engine) ApplySubstitution(ctx context.Context, userID, templateID, originalID, preferredID string) (*models.SubstitutionPreference, error) {
	const op = "apply substitution"
	pref := &models.SubstitutionPreference{
		UserID:              userID,
		TemplateID:          templateID,
		OriginalExerciseID:  originalID,
		PreferredExerciseID: preferredID,
	}
	if err := pref.Validate(); err != nil {
		return nil, apperrors.Validation(op, "%v", err)
	}
	tmpl, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}
	if tmpl.UserID != userID {
		// чужой шаблон неотличим от отсутствующего
		return nil, apperrors.NotFound("template", templateID)
	}
	exercises, err := e.store.ListTemplateExercises(ctx, templateID)
	if err != nil {
		return nil, apperrors.BackingStore(op, err)
	}
	if !containsExercise(exercises, originalID) {
		return nil, apperrors.NotFound("template exercise", templateID+"/"+originalID)
	}
	if _, err := e.store.GetExercise(ctx, preferredID); err != nil {
		return nil, apperrors.BackingStore(op, err)
	}

	if err := e.SavePreference(ctx, pref); err != nil {
		return nil, err
	}
	if err := e.store.ReplaceTemplateExercise(ctx, templateID, originalID, preferredID); err != nil {
		return nil, apperrors.BackingStore(op, err)
	}
	e.logger.Info().
		Str("user_id", userID).
		Str("template_id", templateID).
		Str("original_id", originalID).
		Str("preferred_id", preferredID).
		Msg("substitution applied")
	return pref, nil
}

func containsExercise(exercises []models.TemplateExercise, exerciseID string) bool {
	for _, te := range exercises {
		if te.ExerciseID == exerciseID {
			return true
		}
	}
	return false
}
