package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
)

// ExerciseRepository работает с каталогом упражнений
type ExerciseRepository struct {
	db *sql.DB
}

// NewExerciseRepository создаёт репозиторий упражнений
func NewExerciseRepository(db *sql.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

const exerciseColumns = `
	e.id, e.slug, COALESCE(t.name, ''), COALESCE(e.primary_muscle_id::text, ''),
	COALESCE(mg.slug, ''), COALESCE(e.secondary_muscle_group_ids::text[], '{}'),
	COALESCE(eq.id::text, ''), COALESCE(eq.slug, ''), COALESCE(e.body_part_id::text, ''),
	e.popularity_rank, e.capability_schema, COALESCE(e.is_public, false)`

const exerciseJoins = `
	FROM public.exercises e
	LEFT JOIN public.exercise_translations t ON t.exercise_id = e.id AND t.language_code = 'en'
	LEFT JOIN public.muscle_groups mg ON mg.id = e.primary_muscle_id
	LEFT JOIN public.equipment eq ON eq.id = e.equipment_id`

// scanExercise читает строку упражнения и проверяет её
func scanExercise(row rowScanner, extra ...any) (*models.ExerciseDescriptor, error) {
	var (
		e         models.ExerciseDescriptor
		secondary pq.StringArray
		eqID      string
		eqSlug    string
		rank      sql.NullInt64
		schema    []byte
	)
	dest := append([]any{
		&e.ID, &e.Slug, &e.Name, &e.PrimaryMuscleID, &e.PrimaryMuscleSlug, &secondary,
		&eqID, &eqSlug, &e.BodyPartID, &rank, &schema, &e.IsPublic,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.SecondaryMuscleGroupIDs = []string(secondary)
	if eqID != "" || eqSlug != "" {
		e.Equipment = &models.EquipmentRef{ID: eqID, Slug: eqSlug}
	}
	if rank.Valid {
		r := int(rank.Int64)
		e.PopularityRank = &r
	}
	if len(schema) > 0 {
		if err := json.Unmarshal(schema, &e.CapabilitySchema); err != nil {
			return nil, fmt.Errorf("exercise %s: capability_schema: %w", e.ID, err)
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetExercise возвращает упражнение по ID
func (r *ExerciseRepository) GetExercise(ctx context.Context, id string) (*models.ExerciseDescriptor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exerciseColumns+exerciseJoins+` WHERE e.id::text = $1`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("exercise", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", id, err)
	}
	return e, nil
}

// ListSimilars возвращает ручные замены из exercise_similars
func (r *ExerciseRepository) ListSimilars(ctx context.Context, exerciseID string) ([]models.CuratedSimilar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+exerciseColumns+`, COALESCE(s.reason, ''), COALESCE(s.similarity_score, 0)
		FROM public.exercise_similars s
		JOIN public.exercises e ON e.id = s.similar_exercise_id
		LEFT JOIN public.exercise_translations t ON t.exercise_id = e.id AND t.language_code = 'en'
		LEFT JOIN public.muscle_groups mg ON mg.id = e.primary_muscle_id
		LEFT JOIN public.equipment eq ON eq.id = e.equipment_id
		WHERE s.exercise_id::text = $1
		ORDER BY s.similarity_score DESC`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list similars %s: %w", exerciseID, err)
	}
	defer rows.Close()

	var similars []models.CuratedSimilar
	for rows.Next() {
		var s models.CuratedSimilar
		e, err := scanExercise(rows, &s.Reason, &s.SimilarityScore)
		if err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		s.Exercise = *e
		similars = append(similars, s)
	}
	return similars, rows.Err()
}

// ListCandidates возвращает публичные упражнения по мышце, по популярности
func (r *ExerciseRepository) ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.ExerciseDescriptor, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 30
	}
	exclude := q.ExcludeIDs
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+exerciseColumns+exerciseJoins+`
		WHERE COALESCE(e.is_public, false)
		  AND ($1 = '' OR e.primary_muscle_id::text = $1
		       OR ($2 AND $1 = ANY(COALESCE(e.secondary_muscle_group_ids::text[], '{}'))))
		  AND NOT (e.id::text = ANY($3))
		ORDER BY e.popularity_rank ASC NULLS LAST, e.slug
		LIMIT $4`, q.MuscleID, q.IncludeSecondary, pq.Array(exclude), limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var exercises []models.ExerciseDescriptor
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			continue // битая строка каталога не должна ломать подбор
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}
