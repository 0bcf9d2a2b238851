package recalibration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/equipment"
	"gymcoach/internal/models"
	"gymcoach/internal/repository/memory"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func weight(w float64) *float64 { return &w }

// day - n дней назад, вечер
func day(n int) time.Time { return now.AddDate(0, 0, -n).Add(6 * time.Hour) }

// sessions - по два подхода в каждом дне days с заданным RPE
func sessions(userID, exerciseID string, w float64, reps int, rpe []float64, days []int) []memory.SetRecord {
	var out []memory.SetRecord
	for i, d := range days {
		for k := 0; k < 2; k++ {
			out = append(out, memory.SetRecord{
				UserID:     userID,
				ExerciseID: exerciseID,
				RatedSet:   models.RatedSet{Weight: w, Reps: reps, RPE: rpe[i], CompletedAt: day(d).Add(time.Duration(k) * time.Minute)},
			})
		}
	}
	return out
}

func fixture() memory.Snapshot {
	snap := memory.Snapshot{
		Exercises: []models.ExerciseDescriptor{
			{ID: "bench", Slug: "bench-press", PrimaryMuscleID: "chest", Equipment: &models.EquipmentRef{ID: "barbell", Slug: "barbell"}},
			{ID: "squat", Slug: "back-squat", PrimaryMuscleID: "quads", Equipment: &models.EquipmentRef{ID: "barbell", Slug: "barbell"}},
			{ID: "db-press", Slug: "dumbbell-shoulder-press", PrimaryMuscleID: "shoulders", Equipment: &models.EquipmentRef{ID: "dumbbell", Slug: "dumbbell"}},
		},
		Templates: []models.WorkoutTemplate{
			{ID: "t1", UserID: "u1", Name: "Upper/Lower", IsActive: true},
			{ID: "t-old", UserID: "u1", Name: "Old", IsActive: false},
		},
		TemplateExercises: []models.TemplateExercise{
			{ID: "te-bench", TemplateID: "t1", ExerciseID: "bench", OrderIndex: 1, DefaultSets: 4, TargetReps: 8, TargetWeight: weight(100)},
			{ID: "te-squat", TemplateID: "t1", ExerciseID: "squat", OrderIndex: 2, DefaultSets: 4, TargetReps: 5},
			{ID: "te-row", TemplateID: "t1", ExerciseID: "row", OrderIndex: 3, DefaultSets: 3, TargetReps: 10, TargetWeight: weight(60)},
			{ID: "te-curl", TemplateID: "t1", ExerciseID: "curl", OrderIndex: 4, DefaultSets: 3, TargetReps: 12, TargetWeight: weight(15)},
			{ID: "te-old", TemplateID: "t-old", ExerciseID: "bench", OrderIndex: 1, TargetWeight: weight(80)},
		},
		Readiness: []models.ReadinessCheckin{
			{UserID: "u1", Soreness: 4, CreatedAt: now.AddDate(0, 0, -1)},
			{UserID: "u1", Soreness: 5, CreatedAt: now.AddDate(0, 0, -3)},
			{UserID: "u1", Soreness: 1, CreatedAt: now.AddDate(0, 0, -10)},
			{UserID: "u2", Soreness: 1, CreatedAt: now.AddDate(0, 0, -1)},
		},
	}
	snap.Sets = append(snap.Sets, sessions("u1", "bench", 100, 8, []float64{5, 5, 5}, []int{1, 3, 5})...)
	snap.Sets = append(snap.Sets, sessions("u1", "squat", 140, 5, []float64{9.5, 9.5, 7}, []int{1, 3, 5})...)
	snap.Sets = append(snap.Sets, sessions("u1", "row", 60, 10, []float64{7.5, 7.5, 7.5}, []int{1, 3, 5})...)
	snap.Sets = append(snap.Sets, sessions("u1", "curl", 15, 12, []float64{5, 5}, []int{1, 3})...)
	return snap
}

func newEngine(store Store, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(zerolog.Nop()), WithClock(func() time.Time { return now })}, opts...)
	return NewEngine(store, opts...)
}

func TestRecalibrateUserPlans_AppliesAdjustments(t *testing.T) {
	store := memory.NewFromSnapshot(fixture())
	summary, err := newEngine(store).RecalibrateUserPlans(context.Background(), "u1", false)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2, "row is balanced, curl has too few sets")
	bench, squat := summary.Results[0], summary.Results[1]

	assert.Equal(t, "te-bench", bench.TemplateExerciseID)
	assert.Equal(t, "t1", bench.TemplateID)
	assert.Equal(t, models.ActionIncreaseLoad, bench.Action)
	assert.Equal(t, 100.0, bench.OldValue)
	assert.Equal(t, 105.0, bench.NewValue)
	assert.Equal(t, 0.9, bench.Confidence)
	assert.Contains(t, bench.Reason, "3 sessions in a row")
	assert.True(t, bench.Applied)

	assert.Equal(t, models.ActionDeload, squat.Action)
	assert.Equal(t, 140.0, squat.OldValue, "no stored target, newest top set is used")
	assert.Equal(t, 126.0, squat.NewValue)
	assert.Equal(t, 0.8, squat.Confidence)
	assert.True(t, squat.Applied)

	assert.Equal(t, map[string]float64{AllMuscles: -10}, summary.VolumeChanges)
	assert.Contains(t, summary.VolumeNote, "4.5")
	assert.Equal(t, 3, summary.TotalChanges)
	assert.False(t, summary.DryRun)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, now, summary.Timestamp)

	exercises, err := store.ListTemplateExercises(context.Background(), "t1")
	require.NoError(t, err)
	byID := map[string]models.TemplateExercise{}
	for _, te := range exercises {
		byID[te.ID] = te
	}
	assert.Equal(t, 105.0, *byID["te-bench"].TargetWeight)
	assert.Equal(t, 126.0, *byID["te-squat"].TargetWeight)
	assert.Equal(t, 60.0, *byID["te-row"].TargetWeight)

	old, err := store.ListTemplateExercises(context.Background(), "t-old")
	require.NoError(t, err)
	assert.Equal(t, 80.0, *old[0].TargetWeight, "inactive templates are left alone")
}

func TestRecalibrateUserPlans_DryRun(t *testing.T) {
	store := memory.NewFromSnapshot(fixture())
	summary, err := newEngine(store).RecalibrateUserPlans(context.Background(), "u1", true)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	for _, r := range summary.Results {
		assert.False(t, r.Applied)
	}
	assert.True(t, summary.DryRun)

	exercises, err := store.ListTemplateExercises(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, *exercises[0].TargetWeight)
	assert.Nil(t, exercises[1].TargetWeight)
}

func TestRecalibrateUserPlans_NoTemplates(t *testing.T) {
	summary, err := newEngine(memory.New()).RecalibrateUserPlans(context.Background(), "nobody", false)
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
	assert.NotNil(t, summary.Results)
	assert.Empty(t, summary.VolumeChanges)
	assert.Equal(t, 0, summary.TotalChanges)
}

func TestRecalibrateUserPlans_Validation(t *testing.T) {
	_, err := newEngine(memory.New()).RecalibrateUserPlans(context.Background(), "", false)
	assert.True(t, apperrors.IsValidation(err))
}

func TestRecalibrateUserPlans_VolumeAdvice(t *testing.T) {
	tests := []struct {
		name     string
		soreness []int
		want     map[string]float64
	}{
		{"no checkins", nil, map[string]float64{}},
		{"neutral", []int{3, 3, 4}, map[string]float64{}},
		{"sore", []int{4, 4}, map[string]float64{AllMuscles: -10}},
		{"fresh", []int{1, 2, 3}, map[string]float64{AllMuscles: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := memory.Snapshot{}
			for i, s := range tt.soreness {
				snap.Readiness = append(snap.Readiness, models.ReadinessCheckin{UserID: "u1", Soreness: s, CreatedAt: now.Add(-time.Duration(i+1) * time.Hour)})
			}
			summary, err := newEngine(memory.NewFromSnapshot(snap)).RecalibrateUserPlans(context.Background(), "u1", true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, summary.VolumeChanges)
			assert.Equal(t, len(tt.want), summary.TotalChanges)
		})
	}
}

func TestRecalibrateUserPlans_NearestLoadable(t *testing.T) {
	snap := fixture()
	snap.TemplateExercises = append(snap.TemplateExercises,
		models.TemplateExercise{ID: "te-db", TemplateID: "t1", ExerciseID: "db-press", OrderIndex: 5, TargetReps: 10, TargetWeight: weight(30)})
	snap.Sets = append(snap.Sets, sessions("u1", "db-press", 30, 10, []float64{5, 5, 5}, []int{1, 3, 5})...)

	e := newEngine(memory.NewFromSnapshot(snap), WithEquipment(fixedCaps(equipment.DefaultCapabilities())))
	summary, err := e.RecalibrateUserPlans(context.Background(), "u1", true)
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)
	db := summary.Results[2]
	assert.Equal(t, "db-press", db.ExerciseID)
	assert.Equal(t, 31.5, db.NewValue)
	assert.Contains(t, db.Reason, "(nearest loadable: 32 kg)")
}

type fixedCaps models.EquipmentCapabilities

func (c fixedCaps) Capabilities(context.Context, string) models.EquipmentCapabilities {
	return models.EquipmentCapabilities(c)
}

// faultyStore ломает отдельные операции поверх memory.Store
type faultyStore struct {
	*memory.Store
	templatesErr error
	updateErr    error
}

func (s *faultyStore) ListActiveTemplates(ctx context.Context, userID string) ([]models.WorkoutTemplate, error) {
	if s.templatesErr != nil {
		return nil, s.templatesErr
	}
	return s.Store.ListActiveTemplates(ctx, userID)
}

func (s *faultyStore) UpdateTargetWeight(ctx context.Context, id string, w float64) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.UpdateTargetWeight(ctx, id, w)
}

func TestRecalibrateUserPlans_TemplateReadFailureAborts(t *testing.T) {
	store := &faultyStore{Store: memory.NewFromSnapshot(fixture()), templatesErr: errors.New("connection reset")}
	summary, err := newEngine(store).RecalibrateUserPlans(context.Background(), "u1", false)
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, apperrors.KindBackingStore, apperrors.KindOf(err))
}

func TestRecalibrateUserPlans_ApplyFailureIsSummarised(t *testing.T) {
	store := &faultyStore{Store: memory.NewFromSnapshot(fixture()), updateErr: errors.New("read-only transaction")}
	summary, err := newEngine(store).RecalibrateUserPlans(context.Background(), "u1", false)
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, apperrors.KindBackingStore, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "2 adjustment(s) not applied")

	require.Len(t, summary.Results, 2)
	for _, r := range summary.Results {
		assert.False(t, r.Applied)
	}
}

func TestGroupSessions(t *testing.T) {
	sets := []models.RatedSet{
		{Weight: 100, Reps: 5, RPE: 8, CompletedAt: day(3)},
		{Weight: 105, Reps: 3, RPE: 9, CompletedAt: day(1)},
		{Weight: 100, Reps: 5, RPE: 7, CompletedAt: day(1).Add(-time.Hour)},
		{Weight: 90, Reps: 8, RPE: 6, CompletedAt: day(3).Add(time.Minute)},
	}
	got := GroupSessions(sets)
	require.Len(t, got, 2)

	assert.True(t, got[0].Date.After(got[1].Date))
	assert.Len(t, got[0].Sets, 2)
	assert.Equal(t, 8.0, got[0].AvgRPE)
	assert.Equal(t, 2.0, got[0].AvgRIR)
	assert.Equal(t, 105.0, got[0].TopSet)
	assert.Equal(t, 105.0*3+100*5, got[0].Volume)
	assert.Equal(t, 7.0, got[1].AvgRPE)
}

func TestComputeMetrics(t *testing.T) {
	var sets []models.RatedSet
	add := func(d int, w float64, rpe float64) {
		for k := 0; k < 2; k++ {
			sets = append(sets, models.RatedSet{Weight: w, Reps: 8, RPE: rpe, CompletedAt: day(d).Add(time.Duration(k) * time.Minute)})
		}
	}
	add(1, 100, 8)
	add(3, 100, 7)
	add(5, 95, 6)
	add(7, 90, 9)

	m, err := ComputeMetrics(sets, 10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, m.AvgRIR)
	assert.Equal(t, []float64{8, 7, 6}, m.LastThreeRPE)
	assert.Equal(t, 0, m.ConsecutiveOvershoots)
	assert.Equal(t, 0, m.ConsecutiveUndershoots)
	assert.Equal(t, 0.8, m.AchievedRepsVsRange)
	assert.Equal(t, 11.1, m.VolumeProgress)
	assert.Equal(t, 100.0, m.LatestTopSet)
	assert.InDelta(t, 133.3, m.EstimatedOneRepMax, 0.01)
	assert.Equal(t, 4, m.SessionCount)
	assert.Equal(t, 8, m.SetCount)
}

func TestComputeMetrics_InsufficientData(t *testing.T) {
	sets := []models.RatedSet{
		{Weight: 100, Reps: 5, RPE: 8, CompletedAt: day(1)},
		{Weight: 100, Reps: 5, RPE: 8, CompletedAt: day(2)},
		{Weight: 100, Reps: 5, RPE: 8, CompletedAt: day(3)},
		{Weight: 100, Reps: 5, RPE: 8, CompletedAt: day(4)},
		{Weight: 100, Reps: 5, CompletedAt: day(5)}, // без RPE не считается
	}
	_, err := ComputeMetrics(sets, 5)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestComputeMetrics_HistoryLimit(t *testing.T) {
	var sets []models.RatedSet
	for i := 0; i < 40; i++ {
		sets = append(sets, models.RatedSet{Weight: 50, Reps: 10, RPE: 5, CompletedAt: day(i)})
	}
	m, err := ComputeMetrics(sets, 0)
	require.NoError(t, err)
	assert.Equal(t, HistoryLimit, m.SetCount)
	assert.Equal(t, HistoryLimit, m.ConsecutiveOvershoots)
	assert.Zero(t, m.AchievedRepsVsRange)
}

func TestCountLeading(t *testing.T) {
	rir := func(v ...float64) []models.SessionPerformance {
		out := make([]models.SessionPerformance, len(v))
		for i, x := range v {
			out[i].AvgRIR = x
		}
		return out
	}
	tests := []struct {
		name        string
		sessions    []models.SessionPerformance
		overshoots  int
		undershoots int
	}{
		{"empty", nil, 0, 0},
		{"streak then break", rir(5, 4, 4, 2, 5), 3, 0},
		{"undershoot streak", rir(0.5, 1, 3, 0), 0, 2},
		{"balanced head", rir(2, 5, 5, 5), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overshoots, countLeading(tt.sessions, isOvershoot))
			assert.Equal(t, tt.undershoots, countLeading(tt.sessions, isUndershoot))
		})
	}
}

func TestDetermineAdjustment_Properties(t *testing.T) {
	weights := []float64{0.1, 1, 2.5, 7.3, 20, 22.5, 61, 100, 142.5, 300}

	for _, w := range weights {
		for n := 3; n <= 8; n++ {
			res := DetermineAdjustment(&models.PerformanceMetrics{ConsecutiveOvershoots: n, AvgRIR: 4.5}, w)
			require.NotNil(t, res)
			assert.Equal(t, models.ActionIncreaseLoad, res.Action)
			assert.Greater(t, res.NewValue, w, "weight %v overshoots %d", w, n)
			assert.LessOrEqual(t, res.NewValue/w-1, 0.05+1e-9, "weight %v overshoots %d", w, n)
			assert.LessOrEqual(t, res.Confidence, 0.9)
			assert.GreaterOrEqual(t, res.Confidence, ApplyConfidence)
		}
		for n := 2; n <= 5; n++ {
			res := DetermineAdjustment(&models.PerformanceMetrics{ConsecutiveUndershoots: n, AvgRIR: 0.5}, w)
			require.NotNil(t, res)
			assert.Equal(t, models.ActionDeload, res.Action)
			assert.Less(t, res.NewValue, w, "weight %v", w)
			assert.Equal(t, 0.8, res.Confidence)
		}
		for _, m := range []models.PerformanceMetrics{
			{AvgRIR: 2.5},
			{AvgRIR: 4, ConsecutiveOvershoots: 2},
			{AvgRIR: 1, ConsecutiveUndershoots: 1},
		} {
			assert.Nil(t, DetermineAdjustment(&m, w))
		}
	}
}

func TestDetermineAdjustment_OvershootWinsOverUndershoot(t *testing.T) {
	res := DetermineAdjustment(&models.PerformanceMetrics{ConsecutiveOvershoots: 3, ConsecutiveUndershoots: 2}, 100)
	require.NotNil(t, res)
	assert.Equal(t, models.ActionIncreaseLoad, res.Action)
}

func TestDetermineAdjustment_NoWeight(t *testing.T) {
	assert.Nil(t, DetermineAdjustment(&models.PerformanceMetrics{ConsecutiveOvershoots: 5}, 0))
	assert.Nil(t, DetermineAdjustment(nil, 100))
}

func TestDetermineAdjustment_Confidence(t *testing.T) {
	tests := []struct {
		overshoots int
		want       float64
		newValue   float64
	}{
		{3, 0.9, 105},
		{5, 0.9, 105},
	}
	for _, tt := range tests {
		res := DetermineAdjustment(&models.PerformanceMetrics{ConsecutiveOvershoots: tt.overshoots}, 100)
		require.NotNil(t, res)
		assert.Equal(t, tt.want, res.Confidence)
		assert.Equal(t, tt.newValue, res.NewValue)
	}
}
