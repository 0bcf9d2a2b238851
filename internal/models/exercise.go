package models

import (
	"fmt"
	"time"
)

// EquipmentRef - ссылка на оборудование упражнения (id + slug)
type EquipmentRef struct {
	ID   string `json:"id" yaml:"id"`
	Slug string `json:"slug" yaml:"slug"`
}

// ExerciseDescriptor - срез строки exercises, который видят движки
type ExerciseDescriptor struct {
	ID                      string            `json:"id" yaml:"id"`
	Slug                    string            `json:"slug" yaml:"slug"`
	Name                    string            `json:"name" yaml:"name"`
	PrimaryMuscleID         string            `json:"primary_muscle_id" yaml:"primary_muscle_id"`
	PrimaryMuscleSlug       string            `json:"primary_muscle_slug,omitempty" yaml:"primary_muscle_slug"`
	SecondaryMuscleGroupIDs []string          `json:"secondary_muscle_group_ids,omitempty" yaml:"secondary_muscle_group_ids"`
	Equipment               *EquipmentRef     `json:"equipment,omitempty" yaml:"equipment"`
	BodyPartID              string            `json:"body_part_id,omitempty" yaml:"body_part_id"`
	PopularityRank          *int              `json:"popularity_rank,omitempty" yaml:"popularity_rank"`
	CapabilitySchema        map[string]string `json:"capability_schema,omitempty" yaml:"capability_schema"`
	IsPublic                bool              `json:"is_public" yaml:"is_public"`
}

// Validate проверяет строку на границе хранилища
func (e *ExerciseDescriptor) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exercise: empty id")
	}
	if e.Slug == "" {
		return fmt.Errorf("exercise %s: empty slug", e.ID)
	}
	return nil
}

// EquipmentSlug возвращает slug оборудования или "" если не указано
func (e *ExerciseDescriptor) EquipmentSlug() string {
	if e.Equipment == nil {
		return ""
	}
	return e.Equipment.Slug
}

// DisplayName - имя для показа пользователю, slug если имени нет
func (e *ExerciseDescriptor) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Slug
}

// CuratedSimilar - ручное сопоставление из exercise_similars
type CuratedSimilar struct {
	Exercise        ExerciseDescriptor `json:"exercise" yaml:"exercise"`
	Reason          string             `json:"reason,omitempty" yaml:"reason"`
	SimilarityScore float64            `json:"similarity_score" yaml:"similarity_score"` // 0..1
}

// CandidateQuery - выборка кандидатов из публичного каталога
type CandidateQuery struct {
	MuscleID         string // пусто = любая мышца
	IncludeSecondary bool   // совпадение по вторичным группам тоже подходит
	ExcludeIDs       []string
	Limit            int
}

// MuscleGroup - мышечная группа
type MuscleGroup struct {
	ID     string `json:"id" yaml:"id"`
	Slug   string `json:"slug" yaml:"slug"`
	Name   string `json:"name" yaml:"name"`
	Region string `json:"region" yaml:"region"` // один из BodyRegion
}

// MusclePriority - пользовательский приоритет мышечной группы
type MusclePriority struct {
	UserID        string `json:"user_id" yaml:"user_id"`
	MuscleGroupID string `json:"muscle_group_id" yaml:"muscle_group_id"`
	PriorityLevel int    `json:"priority_level" yaml:"priority_level"` // 1..5, 3 = обычный
}

// Multiplier переводит уровень приоритета в множитель объёма
func (p MusclePriority) Multiplier() float64 {
	switch {
	case p.PriorityLevel <= 1:
		return 0.5
	case p.PriorityLevel == 2:
		return 0.75
	case p.PriorityLevel == 3:
		return 1.0
	case p.PriorityLevel == 4:
		return 1.25
	default:
		return 1.5
	}
}

// ExerciseAlternative - результат подбора замены
type ExerciseAlternative struct {
	ExerciseID      string           `json:"exercise_id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	MatchScore      int              `json:"match_score"`   // 0..100
	MatchReasons    []string         `json:"match_reasons"` // в порядке срабатывания правил
	Equipment       *EquipmentRef    `json:"equipment,omitempty"`
	MovementPattern *MovementPattern `json:"movement_pattern,omitempty"`
}

// SubstitutionConstraints - ограничения вызывающей стороны
type SubstitutionConstraints struct {
	AvoidInjuries      []string `json:"avoid_injuries,omitempty"`      // body-part ids
	PreferredEquipment []string `json:"preferred_equipment,omitempty"` // equipment slugs
	ExcludeExerciseIDs []string `json:"exclude_exercise_ids,omitempty"`
	UserID             string   `json:"user_id,omitempty"`
	TemplateID         string   `json:"template_id,omitempty"`
}

// SubstitutionPreference - "пользователь предпочитает X вместо Y" в шаблоне
type SubstitutionPreference struct {
	ID                  string    `json:"id" yaml:"id"`
	UserID              string    `json:"user_id" yaml:"user_id"`
	TemplateID          string    `json:"template_id" yaml:"template_id"`
	OriginalExerciseID  string    `json:"original_exercise_id" yaml:"original_exercise_id"`
	PreferredExerciseID string    `json:"preferred_exercise_id" yaml:"preferred_exercise_id"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}

// Validate проверяет обязательные поля
func (p *SubstitutionPreference) Validate() error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("user_id is required")
	case p.TemplateID == "":
		return fmt.Errorf("template_id is required")
	case p.OriginalExerciseID == "" || p.PreferredExerciseID == "":
		return fmt.Errorf("original and preferred exercise ids are required")
	case p.OriginalExerciseID == p.PreferredExerciseID:
		return fmt.Errorf("preferred exercise must differ from the original")
	}
	return nil
}
