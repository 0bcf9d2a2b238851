package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
)

// WarmupRepository хранит предпочтения разминки (user_exercise_warmups)
type WarmupRepository struct {
	db *sql.DB
}

// NewWarmupRepository создаёт репозиторий разминок
func NewWarmupRepository(db *sql.DB) *WarmupRepository {
	return &WarmupRepository{db: db}
}

// GetWarmupPreferences возвращает предпочтения пользователя по упражнению
func (r *WarmupRepository) GetWarmupPreferences(ctx context.Context, userID, exerciseID string) (*models.UserWarmupPreferences, error) {
	var (
		p         = &models.UserWarmupPreferences{}
		feedback  sql.NullString
		preferred sql.NullInt64
		history   []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id::text, exercise_id::text, last_feedback, COALESCE(success_streak, 0),
		       preferred_set_count, COALESCE(preferred_intensity_adjustment, 0),
		       adaptation_history, version, updated_at
		FROM public.user_exercise_warmups
		WHERE user_id::text = $1 AND exercise_id::text = $2`, userID, exerciseID).Scan(
		&p.UserID, &p.ExerciseID, &feedback, &p.SuccessStreak,
		&preferred, &p.PreferredIntensityAdjustment, &history, &p.Version, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("warmup preferences", userID+"/"+exerciseID)
	}
	if err != nil {
		return nil, fmt.Errorf("get warmup preferences: %w", err)
	}
	if feedback.Valid {
		if f, err := models.ParseWarmupFeedback(feedback.String); err == nil {
			p.LastFeedback = f
		}
	}
	if preferred.Valid {
		n := int(preferred.Int64)
		p.PreferredSetCount = &n
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.AdaptationHistory); err != nil {
			return nil, fmt.Errorf("decode adaptation_history: %w", err)
		}
	}
	return p, nil
}

// SaveWarmupPreferences сохраняет предпочтения. Version = 0 означает новую запись,
// иначе обновление проходит только при совпадении версии. При успехе Version увеличивается.
func (r *WarmupRepository) SaveWarmupPreferences(ctx context.Context, p *models.UserWarmupPreferences) error {
	history, err := json.Marshal(p.AdaptationHistory)
	if err != nil {
		return fmt.Errorf("encode adaptation_history: %w", err)
	}
	var preferred sql.NullInt64
	if p.PreferredSetCount != nil {
		preferred = sql.NullInt64{Int64: int64(*p.PreferredSetCount), Valid: true}
	}
	now := time.Now().UTC()

	var res sql.Result
	if p.Version == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO public.user_exercise_warmups
			(user_id, exercise_id, last_feedback, success_streak, preferred_set_count,
			 preferred_intensity_adjustment, adaptation_history, version, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
			ON CONFLICT (user_id, exercise_id) DO NOTHING`,
			p.UserID, p.ExerciseID, string(p.LastFeedback), p.SuccessStreak, preferred,
			p.PreferredIntensityAdjustment, history, now)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE public.user_exercise_warmups
			SET last_feedback = $3, success_streak = $4, preferred_set_count = $5,
			    preferred_intensity_adjustment = $6, adaptation_history = $7,
			    version = version + 1, updated_at = $8
			WHERE user_id::text = $1 AND exercise_id::text = $2 AND version = $9`,
			p.UserID, p.ExerciseID, string(p.LastFeedback), p.SuccessStreak, preferred,
			p.PreferredIntensityAdjustment, history, now, p.Version)
	}
	if err != nil {
		return fmt.Errorf("save warmup preferences: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save warmup preferences: %w", err)
	}
	if n == 0 {
		return apperrors.Conflict("warmup preferences", p.UserID+"/"+p.ExerciseID)
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}
