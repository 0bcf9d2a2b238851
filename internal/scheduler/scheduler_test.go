package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gymcoach/internal/models"
	"gymcoach/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeEngine запоминает вызовы и падает на failFor
type fakeEngine struct {
	mu      sync.Mutex
	calls   []string
	dryRuns []bool
	failFor string
}

func (f *fakeEngine) RecalibrateUserPlans(_ context.Context, userID string, dryRun bool) (*models.RecalibrationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	f.dryRuns = append(f.dryRuns, dryRun)
	if userID == f.failFor {
		return nil, errors.New("store unavailable")
	}
	return &models.RecalibrationSummary{UserID: userID, TotalChanges: 2}, nil
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type listerFunc func(ctx context.Context) ([]string, error)

func (f listerFunc) ListUsersWithActiveTemplates(ctx context.Context) ([]string, error) { return f(ctx) }

func usersStore() *memory.Store {
	return memory.NewFromSnapshot(memory.Snapshot{
		Templates: []models.WorkoutTemplate{
			{ID: "t1", UserID: "u1", IsActive: true},
			{ID: "t2", UserID: "u2", IsActive: true},
			{ID: "t3", UserID: "u3", IsActive: false},
			{ID: "t4", UserID: "u1", IsActive: true},
		},
	})
}

func TestRunOnce(t *testing.T) {
	engine := &fakeEngine{failFor: "u2"}
	s, err := New(usersStore(), engine, "", WithLogger(zerolog.Nop()), WithDryRun(true))
	require.NoError(t, err)

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2"}, engine.calls)
	assert.Equal(t, []bool{true, true}, engine.dryRuns)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 2, report.Changes)
	assert.Equal(t, []string{"u2"}, report.Failed)
}

func TestRunOnce_ListFailure(t *testing.T) {
	engine := &fakeEngine{}
	lister := listerFunc(func(context.Context) ([]string, error) { return nil, errors.New("db down") })
	s, err := New(lister, engine, DefaultSpec, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, engine.callCount())
}

func TestRunOnce_Cancelled(t *testing.T) {
	engine := &fakeEngine{}
	s, err := New(usersStore(), engine, DefaultSpec, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, engine.callCount())
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(usersStore(), &fakeEngine{}, "every night please", WithLogger(zerolog.Nop()))
	assert.Error(t, err)
}

func TestScheduler_FiresAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := &fakeEngine{}
	s, err := New(usersStore(), engine, "* * * * * *", WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	s.Start()
	s.Start() // повторный запуск ничего не делает
	require.Eventually(t, func() bool { return engine.callCount() >= 2 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
	s.Stop()

	after := engine.callCount()
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, engine.callCount(), "no runs after Stop")
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	engine := &fakeEngine{}
	s, err := New(usersStore(), engine, "* * * * * *", WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return engine.callCount() >= 1 }, 5*time.Second, 50*time.Millisecond)
	s.Stop()

	// второй запуск работает на новом контексте
	before := engine.callCount()
	s.Start()
	require.Eventually(t, func() bool { return engine.callCount() > before }, 5*time.Second, 50*time.Millisecond)
	s.Stop()
}
