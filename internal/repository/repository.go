// Package repository описывает хранилище, с которым работают движки,
// и его реализацию поверх PostgreSQL (database/sql + lib/pq).
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"gymcoach/internal/models"
)

// ExerciseStore - каталог упражнений
type ExerciseStore interface {
	GetExercise(ctx context.Context, id string) (*models.ExerciseDescriptor, error)
	ListSimilars(ctx context.Context, exerciseID string) ([]models.CuratedSimilar, error)
	ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.ExerciseDescriptor, error)
}

// MuscleStore - мышечные группы и приоритеты пользователя
type MuscleStore interface {
	ListMuscleGroups(ctx context.Context, limit int) ([]models.MuscleGroup, error)
	ListMusclePriorities(ctx context.Context, userID string) ([]models.MusclePriority, error)
}

// ProfileStore - фитнес-профиль и настройки уровней
type ProfileStore interface {
	GetFitnessProfile(ctx context.Context, userID string) (*models.FitnessProfile, error)
	GetExperienceLevelConfig(ctx context.Context, level models.ExperienceLevel) (*models.ExperienceLevelConfig, error)
}

// WarmupStore - предпочтения разминки. Save проверяет Version (оптимистичная блокировка).
type WarmupStore interface {
	GetWarmupPreferences(ctx context.Context, userID, exerciseID string) (*models.UserWarmupPreferences, error)
	SaveWarmupPreferences(ctx context.Context, prefs *models.UserWarmupPreferences) error
}

// TemplateStore - шаблоны тренировок
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (*models.WorkoutTemplate, error)
	ListActiveTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error)
	ListTemplateExercises(ctx context.Context, templateID string) ([]models.TemplateExercise, error)
	UpdateTargetWeight(ctx context.Context, templateExerciseID string, weight float64) error
	UpdateTargetReps(ctx context.Context, templateExerciseID string, reps int) error
	SaveGeneratedTemplate(ctx context.Context, userID string, tmpl *models.GeneratedTemplate) (string, error)
	ReplaceTemplateExercise(ctx context.Context, templateID, originalExerciseID, newExerciseID string) error
	ListUsersWithActiveTemplates(ctx context.Context) ([]string, error)
}

// HistoryStore - история подходов и самочувствия
type HistoryStore interface {
	ListRatedSets(ctx context.Context, userID, exerciseID string, limit int) ([]models.RatedSet, error)
	ListReadinessSince(ctx context.Context, userID string, since time.Time) ([]models.ReadinessCheckin, error)
}

// PreferenceStore - предпочтения замен упражнений
type PreferenceStore interface {
	SaveSubstitutionPreference(ctx context.Context, pref *models.SubstitutionPreference) error
	ListSubstitutionPreferences(ctx context.Context, userID, templateID string) ([]models.SubstitutionPreference, error)
}

// InventoryStore - инвентарь зала пользователя
type InventoryStore interface {
	GetUserGym(ctx context.Context, userID string) (*models.UserGym, error)
	ListGymBars(ctx context.Context, gymID string) ([]models.GymBar, error)
	ListGymPlates(ctx context.Context, gymID string) ([]float64, error)
	ListGymMiniweights(ctx context.Context, gymID string) ([]float64, error)
	ListGymDumbbells(ctx context.Context, gymID string) ([]float64, error)
	ListGymMachines(ctx context.Context, gymID string) ([]models.GymMachine, error)
}

// Store - всё хранилище целиком
type Store interface {
	ExerciseStore
	MuscleStore
	ProfileStore
	WarmupStore
	TemplateStore
	HistoryStore
	PreferenceStore
	InventoryStore

	Close() error
}

// Repository содержит все репозитории PostgreSQL
type Repository struct {
	*ExerciseRepository
	*MuscleRepository
	*ProfileRepository
	*WarmupRepository
	*TemplateRepository
	*HistoryRepository
	*PreferenceRepository
	*InventoryRepository

	db *sql.DB
}

var _ Store = (*Repository)(nil)

// New создаёт новый экземпляр Repository
func New(db *sql.DB) *Repository {
	return &Repository{
		ExerciseRepository:   NewExerciseRepository(db),
		MuscleRepository:     NewMuscleRepository(db),
		ProfileRepository:    NewProfileRepository(db),
		WarmupRepository:     NewWarmupRepository(db),
		TemplateRepository:   NewTemplateRepository(db),
		HistoryRepository:    NewHistoryRepository(db),
		PreferenceRepository: NewPreferenceRepository(db),
		InventoryRepository:  NewInventoryRepository(db),
		db:                   db,
	}
}

// Open подключается к PostgreSQL и проверяет соединение
func Open(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), nil
}

// Close закрывает пул соединений
func (r *Repository) Close() error {
	return r.db.Close()
}

// rowScanner - общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}
