package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymcoach/internal/repository/memory"
)

const seed = `
muscle_groups:
  - {id: chest, slug: chest, name: Chest, region: chest}
exercises:
  - {id: bench, slug: bench-press, name: Bench Press, primary_muscle_id: chest, secondary_muscle_group_ids: [triceps], equipment: {id: barbell, slug: barbell}, is_public: true, popularity_rank: 1}
  - {id: db-bench, slug: dumbbell-bench-press, name: Dumbbell Bench Press, primary_muscle_id: chest, secondary_muscle_group_ids: [triceps], equipment: {id: dumbbell, slug: dumbbell}, is_public: true, popularity_rank: 2}
templates:
  - {id: t1, user_id: u1, name: Push, is_active: true}
template_exercises:
  - {id: te1, template_id: t1, exercise_id: bench, order_index: 1, default_sets: 4, target_reps: 8, target_weight: 80}
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_LEVEL", "")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestWarmupCommand(t *testing.T) {
	out, err := run(t, "--driver", "memory", "--seed", writeSeed(t),
		"warmup", "--user", "u1", "--exercise", "bench", "--weight", "100")
	require.NoError(t, err)

	var plan struct {
		Sets []struct {
			Weight float64 `json:"weight"`
		} `json:"sets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.Len(t, plan.Sets, 3)
	assert.Equal(t, 40.0, plan.Sets[0].Weight)
}

func TestFeedbackCommand(t *testing.T) {
	out, err := run(t, "--driver", "memory", "--seed", writeSeed(t),
		"feedback", "--user", "u1", "--exercise", "bench", "--weight", "100", "--rating", "too_much")
	require.NoError(t, err)
	assert.Contains(t, out, `"preferred_set_count": 2`)

	_, err = run(t, "--driver", "memory", "feedback", "--user", "u1", "--exercise", "bench", "--weight", "100", "--rating", "meh")
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	xlsx := filepath.Join(t.TempDir(), "plan.xlsx")
	out, err := run(t, "--driver", "memory", "--seed", writeSeed(t),
		"generate", "--user", "u1", "--goal", "strength", "--level", "beginner", "--days", "3", "--xlsx", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, `"exercises"`)
	assert.FileExists(t, xlsx)

	_, err = run(t, "--driver", "memory", "generate", "--user", "u1", "--goal", "cardio", "--level", "beginner")
	assert.ErrorContains(t, err, "unknown goal")
}

func TestSubstitutesCommand(t *testing.T) {
	out, err := run(t, "--driver", "memory", "--seed", writeSeed(t), "substitutes", "bench")
	require.NoError(t, err)
	assert.Contains(t, out, `"exercise_id": "db-bench"`)

	_, err = run(t, "--driver", "memory", "substitutes")
	assert.Error(t, err)
}

func TestPreferAndDump_SQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "state.db")
	seedPath := writeSeed(t)

	_, err := run(t, "--driver", "sqlite", "--sqlite", db, "--seed", seedPath,
		"prefer", "--user", "u1", "--template", "t1", "--original", "bench", "--preferred", "db-bench")
	require.NoError(t, err)

	out := filepath.Join(dir, "dump")
	_, err = run(t, "--driver", "sqlite", "--sqlite", db, "dump", "-o", out)
	require.NoError(t, err)

	snap, err := memory.LoadSnapshot(out + ".yaml")
	require.NoError(t, err)
	require.Len(t, snap.TemplateExercises, 1)
	assert.Equal(t, "db-bench", snap.TemplateExercises[0].ExerciseID)
	require.Len(t, snap.Substitutions, 1)
	assert.Equal(t, "bench", snap.Substitutions[0].OriginalExerciseID)
}

func TestRecalibrateCommand(t *testing.T) {
	seedPath := writeSeed(t)

	out, err := run(t, "--driver", "memory", "--seed", seedPath, "recalibrate", "--user", "u1", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"dry_run": true`)

	out, err = run(t, "--driver", "memory", "--seed", seedPath, "recalibrate", "--all", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"users": 1`)

	_, err = run(t, "--driver", "memory", "recalibrate", "--all", "--user", "u1")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = run(t, "--driver", "memory", "recalibrate")
	assert.ErrorContains(t, err, "required")
}

func TestUnknownDriver(t *testing.T) {
	_, err := run(t, "--driver", "mongo", "warmup")
	assert.Error(t, err)
}
