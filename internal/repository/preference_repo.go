package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymcoach/internal/models"
)

// PreferenceRepository хранит выбранные пользователем замены
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository создаёт репозиторий замен
func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// SaveSubstitutionPreference сохраняет замену (одна на пользователя, шаблон и исходное упражнение)
func (r *PreferenceRepository) SaveSubstitutionPreference(ctx context.Context, pref *models.SubstitutionPreference) error {
	if err := pref.Validate(); err != nil {
		return err
	}
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO public.substitution_preferences
		(id, user_id, template_id, original_exercise_id, preferred_exercise_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, template_id, original_exercise_id)
		DO UPDATE SET preferred_exercise_id = EXCLUDED.preferred_exercise_id, created_at = EXCLUDED.created_at
		RETURNING id::text`,
		pref.ID, pref.UserID, pref.TemplateID, pref.OriginalExerciseID, pref.PreferredExerciseID, pref.CreatedAt,
	).Scan(&pref.ID)
	if err != nil {
		return fmt.Errorf("save substitution preference: %w", err)
	}
	return nil
}

// ListSubstitutionPreferences возвращает замены пользователя в шаблоне
func (r *PreferenceRepository) ListSubstitutionPreferences(ctx context.Context, userID, templateID string) ([]models.SubstitutionPreference, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, user_id::text, template_id::text, original_exercise_id::text,
		       preferred_exercise_id::text, created_at
		FROM public.substitution_preferences
		WHERE user_id::text = $1 AND template_id::text = $2
		ORDER BY created_at DESC`, userID, templateID)
	if err != nil {
		return nil, fmt.Errorf("list substitution preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.SubstitutionPreference
	for rows.Next() {
		var p models.SubstitutionPreference
		if err := rows.Scan(&p.ID, &p.UserID, &p.TemplateID, &p.OriginalExerciseID,
			&p.PreferredExerciseID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan substitution preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
