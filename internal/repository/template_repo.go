package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
)

// TemplateRepository работает с шаблонами тренировок
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository создаёт репозиторий шаблонов
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetTemplate возвращает шаблон по ID
func (r *TemplateRepository) GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error) {
	var t models.WorkoutTemplate
	err := r.db.QueryRowContext(ctx, `
		SELECT id::text, user_id::text, COALESCE(name, ''), is_active, created_at
		FROM public.workout_templates
		WHERE id::text = $1`, id).Scan(&t.ID, &t.UserID, &t.Name, &t.IsActive, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("template", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

// ListActiveTemplates возвращает активные шаблоны пользователя
func (r *TemplateRepository) ListActiveTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, user_id::text, COALESCE(name, ''), is_active, created_at
		FROM public.workout_templates
		WHERE user_id::text = $1 AND is_active = true
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var templates []models.WorkoutTemplate
	for rows.Next() {
		var t models.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// ListTemplateExercises возвращает упражнения шаблона по порядку
func (r *TemplateRepository) ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, template_id::text, exercise_id::text, order_index,
		       COALESCE(default_sets, 0), COALESCE(target_reps, 0),
		       (target_settings->>'weight')::float8
		FROM public.template_exercises
		WHERE template_id::text = $1
		ORDER BY order_index`, templateID)
	if err != nil {
		return nil, fmt.Errorf("list template exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.TemplateExercise
	for rows.Next() {
		var (
			te     models.TemplateExercise
			weight sql.NullFloat64
		)
		if err := rows.Scan(&te.ID, &te.TemplateID, &te.ExerciseID, &te.OrderIndex,
			&te.DefaultSets, &te.TargetReps, &weight); err != nil {
			return nil, fmt.Errorf("scan template exercise: %w", err)
		}
		if weight.Valid {
			w := weight.Float64
			te.TargetWeight = &w
		}
		exercises = append(exercises, te)
	}
	return exercises, rows.Err()
}

// UpdateTargetWeight записывает новый рабочий вес в target_settings
func (r *TemplateRepository) UpdateTargetWeight(ctx context.Context, templateExerciseID string, weight float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.template_exercises
		SET target_settings = jsonb_set(COALESCE(target_settings, '{}'::jsonb), '{weight}', to_jsonb($2::float8))
		WHERE id::text = $1`, templateExerciseID, weight)
	if err != nil {
		return fmt.Errorf("update target weight: %w", err)
	}
	return requireAffected(res, "template exercise", templateExerciseID)
}

// UpdateTargetReps записывает новое целевое число повторений
func (r *TemplateRepository) UpdateTargetReps(ctx context.Context, templateExerciseID string, reps int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.template_exercises SET target_reps = $2 WHERE id::text = $1`,
		templateExerciseID, reps)
	if err != nil {
		return fmt.Errorf("update target reps: %w", err)
	}
	return requireAffected(res, "template exercise", templateExerciseID)
}

// SaveGeneratedTemplate сохраняет шаблон и его упражнения в одной транзакции
func (r *TemplateRepository) SaveGeneratedTemplate(ctx context.Context, userID string, tmpl *models.GeneratedTemplate) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	templateID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO public.workout_templates (id, user_id, name, description, notes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)`,
		templateID, userID, tmpl.Template.Name, tmpl.Template.Description, tmpl.Template.Notes, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert template: %w", err)
	}

	for _, ex := range tmpl.Exercises {
		settings, err := json.Marshal(map[string]any{
			"rep_range_min":      ex.RepRangeMin,
			"rep_range_max":      ex.RepRangeMax,
			"rest_seconds":       ex.RestSeconds,
			"weight_unit":        ex.WeightUnit,
			"set_type":           ex.SetType,
			"progression_policy": ex.ProgressionPolicy,
		})
		if err != nil {
			return "", fmt.Errorf("encode target settings: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO public.template_exercises
			(id, template_id, exercise_id, order_index, default_sets, target_reps, target_settings)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), templateID, ex.ExerciseID, ex.OrderIndex, ex.DefaultSets, ex.TargetReps, settings)
		if err != nil {
			return "", fmt.Errorf("insert template exercise %s: %w", ex.ExerciseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit template: %w", err)
	}
	return templateID, nil
}

// ReplaceTemplateExercise меняет упражнение в шаблоне, сохраняя порядок и подходы
func (r *TemplateRepository) ReplaceTemplateExercise(ctx context.Context, templateID, originalExerciseID, newExerciseID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.template_exercises
		SET exercise_id = $3, target_settings = target_settings - 'weight'
		WHERE template_id::text = $1 AND exercise_id::text = $2`,
		templateID, originalExerciseID, newExerciseID)
	if err != nil {
		return fmt.Errorf("replace template exercise: %w", err)
	}
	return requireAffected(res, "template exercise", templateID+"/"+originalExerciseID)
}

// ListUsersWithActiveTemplates возвращает пользователей для ночного пересчёта
func (r *TemplateRepository) ListUsersWithActiveTemplates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id::text FROM public.workout_templates
		WHERE is_active = true
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list users with templates: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func requireAffected(res sql.Result, entity, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NotFound(entity, key)
	}
	return nil
}
