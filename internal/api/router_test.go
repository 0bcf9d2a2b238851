package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/equipment"
	"gymcoach/internal/generator"
	"gymcoach/internal/metrics"
	"gymcoach/internal/models"
	"gymcoach/internal/recalibration"
	"gymcoach/internal/repository/memory"
	"gymcoach/internal/substitution"
	"gymcoach/internal/warmup"
)

func rank(n int) *int { return &n }

func catalog() memory.Snapshot {
	barbell := &models.EquipmentRef{ID: "barbell", Slug: "barbell"}
	dumbbell := &models.EquipmentRef{ID: "dumbbell", Slug: "dumbbell"}
	bodyweight := &models.EquipmentRef{ID: "bodyweight", Slug: "bodyweight"}
	sec := []string{"triceps", "shoulders"}
	w := 80.0
	return memory.Snapshot{
		Exercises: []models.ExerciseDescriptor{
			{ID: "bench", Slug: "bench-press", Name: "Bench Press", PrimaryMuscleID: "chest", SecondaryMuscleGroupIDs: sec, Equipment: barbell, IsPublic: true, PopularityRank: rank(1)},
			{ID: "db-bench", Slug: "dumbbell-bench-press", Name: "Dumbbell Bench Press", PrimaryMuscleID: "chest", SecondaryMuscleGroupIDs: sec, Equipment: dumbbell, IsPublic: true, PopularityRank: rank(2)},
			{ID: "push-up", Slug: "push-up", Name: "Push-Up", PrimaryMuscleID: "chest", SecondaryMuscleGroupIDs: []string{"triceps"}, Equipment: bodyweight, IsPublic: true, PopularityRank: rank(3)},
		},
		MuscleGroups: []models.MuscleGroup{{ID: "chest", Slug: "chest", Name: "Chest", Region: "chest"}},
		Templates:    []models.WorkoutTemplate{{ID: "t1", UserID: "u1", Name: "Push", IsActive: true}},
		TemplateExercises: []models.TemplateExercise{
			{ID: "te1", TemplateID: "t1", ExerciseID: "bench", OrderIndex: 1, DefaultSets: 4, TargetReps: 8, TargetWeight: &w},
		},
	}
}

type testServer struct {
	handler http.Handler
	store   *memory.Store
	metrics *metrics.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	store := memory.NewFromSnapshot(catalog())
	resolver := equipment.NewResolver(store, equipment.WithLogger(logger))
	rec := metrics.New()

	handler := NewRouter(Deps{
		Substitution:   substitution.NewEngine(store, substitution.WithLogger(logger)),
		Generator:      generator.NewEngine(store, resolver, generator.WithLogger(logger)),
		Warmup:         warmup.NewEngine(store, warmup.WithLogger(logger)),
		Recalibration:  recalibration.NewEngine(store, recalibration.WithLogger(logger)),
		Equipment:      resolver,
		Metrics:        rec,
		Logger:         &logger,
		RequestTimeout: 5 * time.Second,
	})
	return &testServer{handler: handler, store: store, metrics: rec}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestFindAlternatives(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/exercises/bench/alternatives?user_id=u1&exclude=push-up", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bench", body["exercise_id"])

	alternatives := body["alternatives"].([]any)
	require.Len(t, alternatives, 1)
	first := alternatives[0].(map[string]any)
	assert.Equal(t, "db-bench", first["exercise_id"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/exercises/missing/alternatives", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "not found")
}

func TestGenerateTemplate(t *testing.T) {
	s := newTestServer(t)
	in := map[string]any{
		"user_id":                "u2",
		"goal":                   "hypertrophy",
		"experience_level":       "intermediate",
		"days_per_week":          4,
		"session_length_minutes": 60,
	}

	rec, body := s.do(t, http.MethodPost, "/api/v1/templates/generate", in)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tmpl := body["template"].(map[string]any)
	assert.NotEmpty(t, tmpl["exercises"])
	assert.NotContains(t, body, "template_id")

	rec, body = s.do(t, http.MethodPost, "/api/v1/templates/generate?save=true", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["template_id"].(string)
	assert.NotEmpty(t, id)

	templates, err := s.store.ListActiveTemplates(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, id, templates[0].ID)
}

func TestGenerateTemplate_BadRequests(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		path string
		body any
	}{
		{"bad save flag", "/api/v1/templates/generate?save=maybe", map[string]any{}},
		{"malformed json", "/api/v1/templates/generate", "{"},
		{"unknown field", "/api/v1/templates/generate", map[string]any{"user_id": "u1", "mood": "great"}},
		{"unknown goal", "/api/v1/templates/generate", map[string]any{
			"user_id": "u1", "goal": "bulk", "experience_level": "beginner", "days_per_week": 3, "session_length_minutes": 45,
		}},
		{"too many days", "/api/v1/templates/generate", map[string]any{
			"user_id": "u1", "goal": "strength", "experience_level": "beginner", "days_per_week": 7, "session_length_minutes": 45,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestApplySubstitution(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/templates/t1/substitutions", SubstitutionRequest{
		UserID: "u1", OriginalExerciseID: "bench", PreferredExerciseID: "db-bench",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "db-bench", body["preferred_exercise_id"])

	exercises, err := s.store.ListTemplateExercises(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "db-bench", exercises[0].ExerciseID)

	// замена всплывает первой в следующем поиске
	rec, body = s.do(t, http.MethodGet, "/api/v1/exercises/bench/alternatives?user_id=u1&template_id=t1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := body["alternatives"].([]any)[0].(map[string]any)
	assert.Equal(t, "db-bench", first["exercise_id"])
	assert.EqualValues(t, 100, first["match_score"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/templates/t1/substitutions", SubstitutionRequest{UserID: "u1", OriginalExerciseID: "bench"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWarmupFlow(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/warmups/plan", warmup.PlanRequest{
		UserID: "u1", ExerciseID: "bench", WorkingWeight: 100, WorkingReps: 8,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sets := body["sets"].([]any)
	require.Len(t, sets, 3)
	assert.EqualValues(t, 40, sets[0].(map[string]any)["weight"])

	var plan models.WarmupPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))

	rec, body = s.do(t, http.MethodPost, "/api/v1/warmups/feedback", FeedbackRequest{
		UserID: "u1", ExerciseID: "bench", Feedback: models.FeedbackNotEnough, Plan: &plan,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 4, body["preferred_set_count"])
	assert.EqualValues(t, 1, body["version"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/warmups/plan", warmup.PlanRequest{
		UserID: "u1", ExerciseID: "bench", WorkingWeight: 100,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["sets"], 4)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/warmups/plan", warmup.PlanRequest{UserID: "u1", ExerciseID: "bench"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/warmups/feedback", FeedbackRequest{
		UserID: "u1", ExerciseID: "bench", Feedback: "meh", Plan: &plan,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecalibrate(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/u1/recalibrate?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["dry_run"])
	assert.Equal(t, "u1", body["user_id"])
	assert.NotEmpty(t, body["run_id"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/u1/recalibrate?dry_run=sometimes", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// partialRecalibration - сводка с ошибкой записи
type partialRecalibration struct{}

func (partialRecalibration) RecalibrateUserPlans(_ context.Context, userID string, dryRun bool) (*models.RecalibrationSummary, error) {
	return &models.RecalibrationSummary{RunID: "run-1", UserID: userID, DryRun: dryRun},
		apperrors.BackingStore("recalibrate", errors.New("1 adjustment(s) not applied"))
}

func TestRecalibrate_PartialFailure(t *testing.T) {
	logger := zerolog.Nop()
	s := &testServer{handler: NewRouter(Deps{Recalibration: partialRecalibration{}, Logger: &logger})}

	rec, body := s.do(t, http.MethodPost, "/api/v1/users/u1/recalibrate", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "not applied")
	assert.Equal(t, "run-1", body["summary"].(map[string]any)["run_id"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.Validation("op", "bad"), http.StatusBadRequest},
		{apperrors.NotFound("exercise", "x"), http.StatusNotFound},
		{apperrors.Conflict("warmup preferences", "u/x"), http.StatusConflict},
		{apperrors.InsufficientData("op", "few sets"), http.StatusUnprocessableEntity},
		{apperrors.BackingStore("op", errors.New("down")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/warmups/plan", warmup.PlanRequest{UserID: "u1", ExerciseID: "bench", WorkingWeight: 60})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gymcoach_engine_requests_total{engine="warmup",outcome="ok"} 1`)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a, b,,c "))
}
