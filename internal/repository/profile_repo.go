package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
)

// MuscleRepository работает с мышечными группами и приоритетами
type MuscleRepository struct {
	db *sql.DB
}

// NewMuscleRepository создаёт репозиторий мышечных групп
func NewMuscleRepository(db *sql.DB) *MuscleRepository {
	return &MuscleRepository{db: db}
}

// ListMuscleGroups возвращает мышечные группы по имени
func (r *MuscleRepository) ListMuscleGroups(ctx context.Context, limit int) ([]models.MuscleGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, slug, COALESCE(name, slug), COALESCE(region, '')
		FROM public.muscle_groups
		ORDER BY name
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list muscle groups: %w", err)
	}
	defer rows.Close()

	var groups []models.MuscleGroup
	for rows.Next() {
		var g models.MuscleGroup
		if err := rows.Scan(&g.ID, &g.Slug, &g.Name, &g.Region); err != nil {
			return nil, fmt.Errorf("scan muscle group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ListMusclePriorities возвращает приоритеты мышц пользователя
func (r *MuscleRepository) ListMusclePriorities(ctx context.Context, userID string) ([]models.MusclePriority, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id::text, muscle_group_id::text, priority_level
		FROM public.user_muscle_priorities
		WHERE user_id::text = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list muscle priorities: %w", err)
	}
	defer rows.Close()

	var priorities []models.MusclePriority
	for rows.Next() {
		var p models.MusclePriority
		if err := rows.Scan(&p.UserID, &p.MuscleGroupID, &p.PriorityLevel); err != nil {
			return nil, fmt.Errorf("scan muscle priority: %w", err)
		}
		priorities = append(priorities, p)
	}
	return priorities, rows.Err()
}

// ProfileRepository работает с фитнес-профилем
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository создаёт репозиторий профилей
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetFitnessProfile возвращает профиль пользователя
func (r *ProfileRepository) GetFitnessProfile(ctx context.Context, userID string) (*models.FitnessProfile, error) {
	p := &models.FitnessProfile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id::text, COALESCE(sex, ''), COALESCE(experience_level, '')
		FROM public.user_profile_fitness
		WHERE user_id::text = $1`, userID).Scan(&p.UserID, &p.Sex, &p.ExperienceLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("fitness profile", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get fitness profile: %w", err)
	}
	return p, nil
}

// GetExperienceLevelConfig возвращает настройки уровня подготовки
func (r *ProfileRepository) GetExperienceLevelConfig(ctx context.Context, level models.ExperienceLevel) (*models.ExperienceLevelConfig, error) {
	c := &models.ExperienceLevelConfig{}
	err := r.db.QueryRowContext(ctx, `
		SELECT experience_level, warmup_set_count_min, warmup_set_count_max,
		       COALESCE(main_rest_seconds_min, 0), COALESCE(main_rest_seconds_max, 0),
		       COALESCE(allow_high_complexity, false)
		FROM public.experience_level_configs
		WHERE experience_level = $1`, string(level)).Scan(
		&c.ExperienceLevel, &c.WarmupSetCountMin, &c.WarmupSetCountMax,
		&c.MainRestSecondsMin, &c.MainRestSecondsMax, &c.AllowHighComplexity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("experience level config", string(level))
	}
	if err != nil {
		return nil, fmt.Errorf("get experience level config: %w", err)
	}
	return c, nil
}
