// Package sqlite хранит состояние memory.Store в одном файле SQLite.
// После каждой успешной записи снимок целиком сохраняется в таблицу state.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"gymcoach/internal/models"
	"gymcoach/internal/repository"
	"gymcoach/internal/repository/memory"
)

// Store - memory.Store со снимками в SQLite
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var _ repository.Store = (*Store)(nil)

// NewStore открывает (или создаёт) файл и загружает из него состояние
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "gymcoach.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

const snapshotBucket = "snapshot"

func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, snapshotBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	var snap memory.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.Store.Import(snap)
	return nil
}

// write применяет изменение к памяти и сохраняет снимок.
// Если снимок не сохранился, прежнее состояние возвращается.
func (s *Store) write(ctx context.Context, apply func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.Store.Export()
	if err := apply(); err != nil {
		return err
	}
	if err := s.persist(ctx); err != nil {
		s.Store.Import(before)
		return err
	}
	return nil
}

// persist вызывается под s.mu
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.Store.Export())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		snapshotBucket, data); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Import заменяет состояние и сразу сохраняет его
func (s *Store) Import(ctx context.Context, snap memory.Snapshot) error {
	return s.write(ctx, func() error {
		s.Store.Import(snap)
		return nil
	})
}

// SaveWarmupPreferences сохраняет предпочтения и снимок.
// При ошибке снимка версия в p остаётся прежней.
func (s *Store) SaveWarmupPreferences(ctx context.Context, p *models.UserWarmupPreferences) error {
	version, updated := p.Version, p.UpdatedAt
	err := s.write(ctx, func() error {
		return s.Store.SaveWarmupPreferences(ctx, p)
	})
	if err != nil {
		p.Version, p.UpdatedAt = version, updated
	}
	return err
}

// UpdateTargetWeight меняет рабочий вес и сохраняет снимок
func (s *Store) UpdateTargetWeight(ctx context.Context, templateExerciseID string, weight float64) error {
	return s.write(ctx, func() error {
		return s.Store.UpdateTargetWeight(ctx, templateExerciseID, weight)
	})
}

// UpdateTargetReps меняет повторения и сохраняет снимок
func (s *Store) UpdateTargetReps(ctx context.Context, templateExerciseID string, reps int) error {
	return s.write(ctx, func() error {
		return s.Store.UpdateTargetReps(ctx, templateExerciseID, reps)
	})
}

// SaveGeneratedTemplate сохраняет шаблон и снимок
func (s *Store) SaveGeneratedTemplate(ctx context.Context, userID string, tmpl *models.GeneratedTemplate) (string, error) {
	var id string
	err := s.write(ctx, func() error {
		var err error
		id, err = s.Store.SaveGeneratedTemplate(ctx, userID, tmpl)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReplaceTemplateExercise меняет упражнение и сохраняет снимок
func (s *Store) ReplaceTemplateExercise(ctx context.Context, templateID, originalExerciseID, newExerciseID string) error {
	return s.write(ctx, func() error {
		return s.Store.ReplaceTemplateExercise(ctx, templateID, originalExerciseID, newExerciseID)
	})
}

// SaveSubstitutionPreference сохраняет замену и снимок
func (s *Store) SaveSubstitutionPreference(ctx context.Context, pref *models.SubstitutionPreference) error {
	return s.write(ctx, func() error {
		return s.Store.SaveSubstitutionPreference(ctx, pref)
	})
}

// Close закрывает файл базы
func (s *Store) Close() error { return s.db.Close() }

// DB открывает доступ к *sql.DB для тестов
func (s *Store) DB() *sql.DB { return s.db }

// Path возвращает путь к файлу базы
func (s *Store) Path() string { return s.path }
