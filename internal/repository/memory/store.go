// Package memory - хранилище в памяти.
// Используется в тестах, в CLI и когда PostgreSQL недоступен.
// Состояние можно загрузить и выгрузить целиком через Snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
)

// SimilarLink - строка exercise_similars
type SimilarLink struct {
	ExerciseID        string  `json:"exercise_id" yaml:"exercise_id"`
	SimilarExerciseID string  `json:"similar_exercise_id" yaml:"similar_exercise_id"`
	Reason            string  `json:"reason" yaml:"reason"`
	SimilarityScore   float64 `json:"similarity_score" yaml:"similarity_score"`
}

// SetRecord - подход из истории с владельцем и упражнением
type SetRecord struct {
	UserID          string `json:"user_id" yaml:"user_id"`
	ExerciseID      string `json:"exercise_id" yaml:"exercise_id"`
	models.RatedSet `yaml:",inline"`
}

// Snapshot - сериализуемое состояние хранилища
type Snapshot struct {
	Exercises         []models.ExerciseDescriptor     `json:"exercises" yaml:"exercises"`
	Similars          []SimilarLink                   `json:"similars" yaml:"similars"`
	MuscleGroups      []models.MuscleGroup            `json:"muscle_groups" yaml:"muscle_groups"`
	MusclePriorities  []models.MusclePriority         `json:"muscle_priorities" yaml:"muscle_priorities"`
	Profiles          []models.FitnessProfile         `json:"profiles" yaml:"profiles"`
	LevelConfigs      []models.ExperienceLevelConfig  `json:"level_configs" yaml:"level_configs"`
	WarmupPreferences []models.UserWarmupPreferences  `json:"warmup_preferences" yaml:"warmup_preferences"`
	Templates         []models.WorkoutTemplate        `json:"templates" yaml:"templates"`
	TemplateExercises []models.TemplateExercise       `json:"template_exercises" yaml:"template_exercises"`
	Sets              []SetRecord                     `json:"sets" yaml:"sets"`
	Readiness         []models.ReadinessCheckin       `json:"readiness" yaml:"readiness"`
	Substitutions     []models.SubstitutionPreference `json:"substitutions" yaml:"substitutions"`
	Gyms              []models.GymInventory           `json:"gyms" yaml:"gyms"`
}

// Store реализует repository.Store на map'ах
type Store struct {
	mu sync.RWMutex

	exercises         map[string]models.ExerciseDescriptor
	similars          []SimilarLink
	muscleGroups      []models.MuscleGroup
	priorities        []models.MusclePriority
	profiles          map[string]models.FitnessProfile
	levelConfigs      map[models.ExperienceLevel]models.ExperienceLevelConfig
	warmups           map[string]models.UserWarmupPreferences // key: user/exercise
	templates         map[string]models.WorkoutTemplate
	templateExercises []models.TemplateExercise
	sets              []SetRecord
	readiness         []models.ReadinessCheckin
	substitutions     map[string]models.SubstitutionPreference // key: user/template/original
	gyms              map[string]models.GymInventory           // key: user id

	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New создаёт пустое хранилище
func New() *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	s.reset()
	return s
}

// NewFromSnapshot создаёт хранилище с данными
func NewFromSnapshot(snap Snapshot) *Store {
	s := New()
	s.Import(snap)
	return s
}

func (s *Store) reset() {
	s.exercises = make(map[string]models.ExerciseDescriptor)
	s.similars = nil
	s.muscleGroups = nil
	s.priorities = nil
	s.profiles = make(map[string]models.FitnessProfile)
	s.levelConfigs = make(map[models.ExperienceLevel]models.ExperienceLevelConfig)
	s.warmups = make(map[string]models.UserWarmupPreferences)
	s.templates = make(map[string]models.WorkoutTemplate)
	s.templateExercises = nil
	s.sets = nil
	s.readiness = nil
	s.substitutions = make(map[string]models.SubstitutionPreference)
	s.gyms = make(map[string]models.GymInventory)
}

// Import заменяет состояние снимком
func (s *Store) Import(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	for _, e := range snap.Exercises {
		s.exercises[e.ID] = e
	}
	s.similars = append(s.similars, snap.Similars...)
	s.muscleGroups = append(s.muscleGroups, snap.MuscleGroups...)
	s.priorities = append(s.priorities, snap.MusclePriorities...)
	for _, p := range snap.Profiles {
		s.profiles[p.UserID] = p
	}
	for _, c := range snap.LevelConfigs {
		s.levelConfigs[c.ExperienceLevel] = c
	}
	for _, w := range snap.WarmupPreferences {
		if w.Version == 0 {
			w.Version = 1
		}
		s.warmups[warmupKey(w.UserID, w.ExerciseID)] = w
	}
	for _, t := range snap.Templates {
		s.templates[t.ID] = t
	}
	s.templateExercises = append(s.templateExercises, snap.TemplateExercises...)
	s.sets = append(s.sets, snap.Sets...)
	s.readiness = append(s.readiness, snap.Readiness...)
	for _, p := range snap.Substitutions {
		s.substitutions[substitutionKey(p.UserID, p.TemplateID, p.OriginalExerciseID)] = p
	}
	for _, g := range snap.Gyms {
		s.gyms[g.Gym.UserID] = g
	}
}

// Export возвращает копию состояния в стабильном порядке
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Similars:          append([]SimilarLink(nil), s.similars...),
		MuscleGroups:      append([]models.MuscleGroup(nil), s.muscleGroups...),
		MusclePriorities:  append([]models.MusclePriority(nil), s.priorities...),
		TemplateExercises: append([]models.TemplateExercise(nil), s.templateExercises...),
		Sets:              append([]SetRecord(nil), s.sets...),
		Readiness:         append([]models.ReadinessCheckin(nil), s.readiness...),
	}
	for _, e := range s.exercises {
		snap.Exercises = append(snap.Exercises, e)
	}
	sort.Slice(snap.Exercises, func(i, j int) bool { return snap.Exercises[i].ID < snap.Exercises[j].ID })
	for _, p := range s.profiles {
		snap.Profiles = append(snap.Profiles, p)
	}
	sort.Slice(snap.Profiles, func(i, j int) bool { return snap.Profiles[i].UserID < snap.Profiles[j].UserID })
	for _, c := range s.levelConfigs {
		snap.LevelConfigs = append(snap.LevelConfigs, c)
	}
	sort.Slice(snap.LevelConfigs, func(i, j int) bool {
		return snap.LevelConfigs[i].ExperienceLevel < snap.LevelConfigs[j].ExperienceLevel
	})
	for _, w := range s.warmups {
		snap.WarmupPreferences = append(snap.WarmupPreferences, w)
	}
	sort.Slice(snap.WarmupPreferences, func(i, j int) bool {
		a, b := snap.WarmupPreferences[i], snap.WarmupPreferences[j]
		return warmupKey(a.UserID, a.ExerciseID) < warmupKey(b.UserID, b.ExerciseID)
	})
	for _, t := range s.templates {
		snap.Templates = append(snap.Templates, t)
	}
	sort.Slice(snap.Templates, func(i, j int) bool { return snap.Templates[i].ID < snap.Templates[j].ID })
	for _, p := range s.substitutions {
		snap.Substitutions = append(snap.Substitutions, p)
	}
	sort.Slice(snap.Substitutions, func(i, j int) bool { return snap.Substitutions[i].ID < snap.Substitutions[j].ID })
	for _, g := range s.gyms {
		snap.Gyms = append(snap.Gyms, g)
	}
	sort.Slice(snap.Gyms, func(i, j int) bool { return snap.Gyms[i].Gym.UserID < snap.Gyms[j].Gym.UserID })
	return snap
}

// Close ничего не делает
func (s *Store) Close() error { return nil }

func warmupKey(userID, exerciseID string) string {
	return userID + "/" + exerciseID
}

func substitutionKey(userID, templateID, originalID string) string {
	return userID + "/" + templateID + "/" + originalID
}

// ===============================================
// УПРАЖНЕНИЯ
// ===============================================

// GetExercise возвращает упражнение по ID
func (s *Store) GetExercise(_ context.Context, id string) (*models.ExerciseDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exercises[id]
	if !ok {
		return nil, apperrors.NotFound("exercise", id)
	}
	return &e, nil
}

// ListSimilars возвращает ручные замены, лучшие первыми
func (s *Store) ListSimilars(_ context.Context, exerciseID string) ([]models.CuratedSimilar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CuratedSimilar
	for _, l := range s.similars {
		if l.ExerciseID != exerciseID {
			continue
		}
		e, ok := s.exercises[l.SimilarExerciseID]
		if !ok {
			continue
		}
		out = append(out, models.CuratedSimilar{Exercise: e, Reason: l.Reason, SimilarityScore: l.SimilarityScore})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SimilarityScore > out[j].SimilarityScore })
	return out, nil
}

// ListCandidates возвращает публичные упражнения по мышце, по популярности
func (s *Store) ListCandidates(_ context.Context, q models.CandidateQuery) ([]models.ExerciseDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exclude := make(map[string]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = true
	}
	var out []models.ExerciseDescriptor
	for _, e := range s.exercises {
		if !e.IsPublic || exclude[e.ID] || !matchesMuscle(e, q) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].PopularityRank, out[j].PopularityRank
		switch {
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		case ri != nil && rj == nil:
			return true
		case ri == nil && rj != nil:
			return false
		}
		return out[i].Slug < out[j].Slug
	})
	limit := q.Limit
	if limit <= 0 {
		limit = 30
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesMuscle(e models.ExerciseDescriptor, q models.CandidateQuery) bool {
	if q.MuscleID == "" || e.PrimaryMuscleID == q.MuscleID {
		return true
	}
	if !q.IncludeSecondary {
		return false
	}
	for _, id := range e.SecondaryMuscleGroupIDs {
		if id == q.MuscleID {
			return true
		}
	}
	return false
}

// ===============================================
// МЫШЦЫ И ПРОФИЛЬ
// ===============================================

// ListMuscleGroups возвращает мышечные группы по имени
func (s *Store) ListMuscleGroups(_ context.Context, limit int) ([]models.MuscleGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.MuscleGroup(nil), s.muscleGroups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListMusclePriorities возвращает приоритеты пользователя
func (s *Store) ListMusclePriorities(_ context.Context, userID string) ([]models.MusclePriority, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MusclePriority
	for _, p := range s.priorities {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetFitnessProfile возвращает профиль пользователя
func (s *Store) GetFitnessProfile(_ context.Context, userID string) (*models.FitnessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("fitness profile", userID)
	}
	return &p, nil
}

// GetExperienceLevelConfig возвращает настройки уровня
func (s *Store) GetExperienceLevelConfig(_ context.Context, level models.ExperienceLevel) (*models.ExperienceLevelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.levelConfigs[level]
	if !ok {
		return nil, apperrors.NotFound("experience level config", string(level))
	}
	return &c, nil
}

// ===============================================
// РАЗМИНКА
// ===============================================

// GetWarmupPreferences возвращает копию предпочтений
func (s *Store) GetWarmupPreferences(_ context.Context, userID, exerciseID string) (*models.UserWarmupPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.warmups[warmupKey(userID, exerciseID)]
	if !ok {
		return nil, apperrors.NotFound("warmup preferences", warmupKey(userID, exerciseID))
	}
	return copyWarmup(p), nil
}

// SaveWarmupPreferences сохраняет предпочтения с проверкой версии
func (s *Store) SaveWarmupPreferences(_ context.Context, p *models.UserWarmupPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := warmupKey(p.UserID, p.ExerciseID)
	current, exists := s.warmups[key]
	switch {
	case p.Version == 0 && exists:
		return apperrors.Conflict("warmup preferences", key)
	case p.Version != 0 && (!exists || current.Version != p.Version):
		return apperrors.Conflict("warmup preferences", key)
	}
	p.Version++
	p.UpdatedAt = s.now()
	s.warmups[key] = *copyWarmup(*p)
	return nil
}

func copyWarmup(p models.UserWarmupPreferences) *models.UserWarmupPreferences {
	if p.PreferredSetCount != nil {
		n := *p.PreferredSetCount
		p.PreferredSetCount = &n
	}
	p.AdaptationHistory = append([]models.AdaptationEntry(nil), p.AdaptationHistory...)
	return &p
}

// ===============================================
// ШАБЛОНЫ
// ===============================================

// GetTemplate возвращает шаблон по ID
func (s *Store) GetTemplate(_ context.Context, id string) (*models.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, apperrors.NotFound("template", id)
	}
	return &t, nil
}

// ListActiveTemplates возвращает активные шаблоны пользователя
func (s *Store) ListActiveTemplates(_ context.Context, userID string) ([]models.WorkoutTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.WorkoutTemplate
	for _, t := range s.templates {
		if t.UserID == userID && t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListTemplateExercises возвращает упражнения шаблона по порядку
func (s *Store) ListTemplateExercises(_ context.Context, templateID string) ([]models.TemplateExercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TemplateExercise
	for _, te := range s.templateExercises {
		if te.TemplateID != templateID {
			continue
		}
		if te.TargetWeight != nil {
			w := *te.TargetWeight
			te.TargetWeight = &w
		}
		out = append(out, te)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// UpdateTargetWeight меняет рабочий вес
func (s *Store) UpdateTargetWeight(_ context.Context, templateExerciseID string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templateExercises {
		if s.templateExercises[i].ID == templateExerciseID {
			w := weight
			s.templateExercises[i].TargetWeight = &w
			return nil
		}
	}
	return apperrors.NotFound("template exercise", templateExerciseID)
}

// UpdateTargetReps меняет целевые повторения
func (s *Store) UpdateTargetReps(_ context.Context, templateExerciseID string, reps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templateExercises {
		if s.templateExercises[i].ID == templateExerciseID {
			s.templateExercises[i].TargetReps = reps
			return nil
		}
	}
	return apperrors.NotFound("template exercise", templateExerciseID)
}

// SaveGeneratedTemplate сохраняет сгенерированный шаблон как активный
func (s *Store) SaveGeneratedTemplate(_ context.Context, userID string, tmpl *models.GeneratedTemplate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.templates[id] = models.WorkoutTemplate{
		ID:        id,
		UserID:    userID,
		Name:      tmpl.Template.Name,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	for _, ex := range tmpl.Exercises {
		s.templateExercises = append(s.templateExercises, models.TemplateExercise{
			ID:          uuid.NewString(),
			TemplateID:  id,
			ExerciseID:  ex.ExerciseID,
			OrderIndex:  ex.OrderIndex,
			DefaultSets: ex.DefaultSets,
			TargetReps:  ex.TargetReps,
		})
	}
	return id, nil
}

// ReplaceTemplateExercise меняет упражнение в шаблоне
func (s *Store) ReplaceTemplateExercise(_ context.Context, templateID, originalExerciseID, newExerciseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.templateExercises {
		te := &s.templateExercises[i]
		if te.TemplateID == templateID && te.ExerciseID == originalExerciseID {
			te.ExerciseID = newExerciseID
			te.TargetWeight = nil
			replaced = true
		}
	}
	if !replaced {
		return apperrors.NotFound("template exercise", templateID+"/"+originalExerciseID)
	}
	return nil
}

// ListUsersWithActiveTemplates возвращает пользователей с активными шаблонами
func (s *Store) ListUsersWithActiveTemplates(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var users []string
	for _, t := range s.templates {
		if t.IsActive && !seen[t.UserID] {
			seen[t.UserID] = true
			users = append(users, t.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

// ===============================================
// ИСТОРИЯ
// ===============================================

// ListRatedSets возвращает подходы с RPE, новые первыми
func (s *Store) ListRatedSets(_ context.Context, userID, exerciseID string, limit int) ([]models.RatedSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RatedSet
	for _, r := range s.sets {
		if r.UserID == userID && r.ExerciseID == exerciseID && r.RPE > 0 {
			out = append(out, r.RatedSet)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListReadinessSince возвращает отметки самочувствия начиная с since
func (s *Store) ListReadinessSince(_ context.Context, userID string, since time.Time) ([]models.ReadinessCheckin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReadinessCheckin
	for _, c := range s.readiness {
		if c.UserID == userID && !c.CreatedAt.Before(since) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ===============================================
// ЗАМЕНЫ
// ===============================================

// SaveSubstitutionPreference сохраняет замену, перезаписывая прежнюю
func (s *Store) SaveSubstitutionPreference(_ context.Context, pref *models.SubstitutionPreference) error {
	if err := pref.Validate(); err != nil {
		return apperrors.Validation("save substitution preference", "%v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := substitutionKey(pref.UserID, pref.TemplateID, pref.OriginalExerciseID)
	if prev, ok := s.substitutions[key]; ok {
		pref.ID = prev.ID
	}
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = s.now()
	}
	s.substitutions[key] = *pref
	return nil
}

// ListSubstitutionPreferences возвращает замены пользователя в шаблоне
func (s *Store) ListSubstitutionPreferences(_ context.Context, userID, templateID string) ([]models.SubstitutionPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.SubstitutionPreference
	for _, p := range s.substitutions {
		if p.UserID == userID && p.TemplateID == templateID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalExerciseID < out[j].OriginalExerciseID })
	return out, nil
}

// ===============================================
// ИНВЕНТАРЬ
// ===============================================

// GetUserGym возвращает зал пользователя
func (s *Store) GetUserGym(_ context.Context, userID string) (*models.UserGym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.gyms[userID]
	if !ok {
		return nil, apperrors.NotFound("gym", userID)
	}
	gym := g.Gym
	return &gym, nil
}

func (s *Store) inventory(gymID string) (models.GymInventory, bool) {
	for _, g := range s.gyms {
		if g.Gym.ID == gymID {
			return g, true
		}
	}
	return models.GymInventory{}, false
}

// ListGymBars возвращает грифы зала
func (s *Store) ListGymBars(_ context.Context, gymID string) ([]models.GymBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, _ := s.inventory(gymID)
	return append([]models.GymBar(nil), g.Bars...), nil
}

// ListGymPlates возвращает веса блинов
func (s *Store) ListGymPlates(_ context.Context, gymID string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, _ := s.inventory(gymID)
	return append([]float64(nil), g.Plates...), nil
}

// ListGymMiniweights возвращает веса микроблинов
func (s *Store) ListGymMiniweights(_ context.Context, gymID string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, _ := s.inventory(gymID)
	return append([]float64(nil), g.Miniweights...), nil
}

// ListGymDumbbells возвращает веса гантелей
func (s *Store) ListGymDumbbells(_ context.Context, gymID string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, _ := s.inventory(gymID)
	return append([]float64(nil), g.Dumbbells...), nil
}

// ListGymMachines возвращает тренажёры зала
func (s *Store) ListGymMachines(_ context.Context, gymID string) ([]models.GymMachine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, _ := s.inventory(gymID)
	return append([]models.GymMachine(nil), g.Machines...), nil
}
