package generator

import (
	"context"
	"strings"

	"gymcoach/internal/equipment"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
)

// candidateLimit - сколько кандидатов просматривается на мышечную группу
const candidateLimit = 20

// compoundKeywords - признаки базового упражнения в названии
var compoundKeywords = []string{"squat", "deadlift", "bench", "press", "row", "pull-up", "chin-up"}

// ExerciseSelector - подбор упражнений с учётом оборудования и травм
type ExerciseSelector struct {
	store repository.ExerciseStore
}

// NewExerciseSelector создаёт селектор поверх каталога упражнений
func NewExerciseSelector(store repository.ExerciseStore) *ExerciseSelector {
	return &ExerciseSelector{store: store}
}

// SelectionCriteria - критерии подбора
type SelectionCriteria struct {
	MuscleGroupID  string                       // Целевая мышечная группа
	Equipment      models.EquipmentCapabilities // Доступное оборудование
	AvoidBodyParts []string                     // Травмы клиента
	ExcludeIDs     []string                     // Уже выбраны в шаблоне
	Count          int                          // Сколько нужно
}

// Select возвращает до Count упражнений по популярности
func (s *ExerciseSelector) Select(ctx context.Context, criteria SelectionCriteria) ([]models.ExerciseDescriptor, error) {
	candidates, err := s.store.ListCandidates(ctx, models.CandidateQuery{
		MuscleID:         criteria.MuscleGroupID,
		IncludeSecondary: true,
		ExcludeIDs:       criteria.ExcludeIDs,
		Limit:            candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	var selected []models.ExerciseDescriptor
	for i := range candidates {
		if len(selected) >= criteria.Count {
			break
		}
		if s.exercisePassesFilters(&candidates[i], criteria) {
			selected = append(selected, candidates[i])
		}
	}
	return selected, nil
}

// exercisePassesFilters проверяет оборудование, травмы и исключения
func (s *ExerciseSelector) exercisePassesFilters(e *models.ExerciseDescriptor, criteria SelectionCriteria) bool {
	if !equipment.IsEquipmentAvailable(criteria.Equipment, e.EquipmentSlug()) {
		return false
	}
	for _, id := range criteria.ExcludeIDs {
		if id == e.ID {
			return false
		}
	}
	for _, bp := range criteria.AvoidBodyParts {
		if bp != "" && bp == e.BodyPartID {
			return false
		}
	}
	return true
}

// exercisesPerGroup - сколько упражнений брать на группу по числу подходов за сессию
func exercisesPerGroup(setsPerSession int) int {
	switch {
	case setsPerSession <= 3:
		return 1
	case setsPerSession <= 6:
		return 2
	default:
		return 3
	}
}

// ClassifyKind - базовое (по ключевому слову или >1 вторичной группы) или изолирующее
func ClassifyKind(e *models.ExerciseDescriptor) models.ExerciseKind {
	name := strings.ToLower(e.Name + " " + e.Slug)
	for _, kw := range compoundKeywords {
		if strings.Contains(name, kw) {
			return models.KindCompound
		}
	}
	if len(e.SecondaryMuscleGroupIDs) > 1 {
		return models.KindCompound
	}
	return models.KindIsolation
}
