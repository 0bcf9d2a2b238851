package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymcoach/internal/models"
)

// HistoryRepository читает историю тренировок и самочувствия
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository создаёт репозиторий истории
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// ListRatedSets возвращает завершённые подходы с RPE, новые первыми
func (r *HistoryRepository) ListRatedSets(ctx context.Context, userID, exerciseID string, limit int) ([]models.RatedSet, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(ws.weight, 0), COALESCE(ws.reps, 0), ws.rpe, ws.completed_at
		FROM public.workout_sets ws
		JOIN public.workout_exercises we ON we.id = ws.workout_exercise_id
		JOIN public.workouts w ON w.id = we.workout_id
		WHERE w.user_id::text = $1
		  AND we.exercise_id::text = $2
		  AND ws.is_completed = true
		  AND ws.rpe IS NOT NULL
		  AND ws.completed_at IS NOT NULL
		ORDER BY ws.completed_at DESC
		LIMIT $3`, userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rated sets: %w", err)
	}
	defer rows.Close()

	var sets []models.RatedSet
	for rows.Next() {
		var s models.RatedSet
		if err := rows.Scan(&s.Weight, &s.Reps, &s.RPE, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan rated set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// ListReadinessSince возвращает отметки самочувствия начиная с since
func (r *HistoryRepository) ListReadinessSince(ctx context.Context, userID string, since time.Time) ([]models.ReadinessCheckin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id::text, COALESCE(soreness, 0), created_at
		FROM public.readiness_checkins
		WHERE user_id::text = $1 AND created_at >= $2
		ORDER BY created_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list readiness: %w", err)
	}
	defer rows.Close()

	var checkins []models.ReadinessCheckin
	for rows.Next() {
		var c models.ReadinessCheckin
		if err := rows.Scan(&c.UserID, &c.Soreness, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan readiness: %w", err)
		}
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}
