package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymcoach/internal/models"
)

func TestGetSexBiasConfig_NeutralKeysIdentical(t *testing.T) {
	other := GetSexBiasConfig(models.SexOther)
	pnts := GetSexBiasConfig(models.SexPreferNotToSay)
	assert.Equal(t, other, pnts)

	unknown := GetSexBiasConfig(models.Sex("robot"))
	assert.Equal(t, other, unknown, "unknown sex falls back to neutral")

	for _, sex := range []models.Sex{models.SexMale, models.SexFemale, models.SexOther} {
		cfg := GetSexBiasConfig(sex)
		assert.Len(t, cfg.VolumeBias, 8, "%s: 8 regions", sex)
		assert.Len(t, cfg.ProgressionBias, 4, "%s: 4 progression kinds", sex)
		for goal, rr := range cfg.RepRanges {
			assert.LessOrEqual(t, rr[0], rr[1], "%s/%s rep range", sex, goal)
		}
	}
}

func TestApplyVolumeBias(t *testing.T) {
	tests := []struct {
		name   string
		base   int
		region models.BodyRegion
		sex    models.Sex
		want   int
	}{
		{"female glutes", 12, models.RegionGlutes, models.SexFemale, 15}, // 12 × 1.25
		{"male chest", 10, models.RegionChest, models.SexMale, 11},       // 10 × 1.1
		{"neutral legs", 17, models.RegionLegs, models.SexOther, 17},
		{"unknown region", 9, models.BodyRegion("tail"), models.SexMale, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyVolumeBias(tt.base, tt.region, tt.sex))
		})
	}
}

func TestApplyProgressionBias(t *testing.T) {
	assert.InDelta(t, 2.25, ApplyProgressionBias(2.5, models.ProgressionStrength, models.SexFemale), 1e-9)
	assert.InDelta(t, 2.5, ApplyProgressionBias(2.5, models.ProgressionStrength, models.SexMale), 1e-9)
}

func TestGetRepRangeAndRest(t *testing.T) {
	rr, ok := GetRepRange(models.GoalHypertrophy, models.SexFemale)
	require.True(t, ok)
	assert.Equal(t, models.RepRange{10, 15}, rr)

	_, ok = GetRepRange(models.GoalPowerlifting, models.SexMale)
	assert.False(t, ok, "powerlifting has no sex-specific range")

	rest, ok := GetRestTime(models.KindCompound, models.SexMale)
	require.True(t, ok)
	assert.Equal(t, 180, rest)
}

func TestClassifyMovement(t *testing.T) {
	tests := []struct {
		slug  string
		want  models.MovementType
		chain models.KineticChain
	}{
		{"bench-press", models.MovementPush, models.ChainOpen},
		{"Bench-Press", models.MovementPush, models.ChainOpen},
		{"close-grip-bench-press", models.MovementPush, models.ChainOpen}, // ключ внутри slug
		{"pull-up", models.MovementPull, models.ChainClosed},
		{"lunge-with-twist", models.MovementLunge, models.ChainClosed}, // первый токен
		{"romanian-deadlift", models.MovementHinge, models.ChainClosed},
		{"landmine-press", models.MovementPush, ""}, // только по ключевому слову
		{"single-arm-row", models.MovementPull, ""},  // ключевое слово row
		{"hip-abduction-machine", models.MovementHinge, models.ChainClosed},
		// префикс снаряда + канонический ключ
		{"dumbbell-romanian-deadlift", models.MovementHinge, models.ChainClosed},
		{"barbell-hip-thrust", models.MovementHinge, models.ChainClosed},
		{"dumbbell-lunge", models.MovementLunge, models.ChainClosed},
		{"barbell-back-squat", models.MovementSquat, models.ChainClosed},
		{"cable-row", models.MovementPull, ""},
		{"dumbbell-fly", models.MovementPush, models.ChainOpen},
		{"cable-lat-pulldown", models.MovementPull, models.ChainOpen},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got := ClassifyMovement(tt.slug)
			require.NotNil(t, got)
			if tt.want != "" {
				assert.Equal(t, tt.want, got.Primary)
			}
			if tt.chain != "" {
				assert.Equal(t, tt.chain, got.Chain)
			}
		})
	}
}

func TestClassifyMovement_Unknown(t *testing.T) {
	assert.Nil(t, ClassifyMovement(""))
	assert.Nil(t, ClassifyMovement("calf-raise"))
	assert.Nil(t, ClassifyMovement("jumping-jack"))
}

func TestClassifyMovement_LongestKeyWins(t *testing.T) {
	got := ClassifyMovement("dumbbell-romanian-deadlift")
	require.NotNil(t, got)
	assert.Equal(t, models.ContractionEccentric, got.Contraction, "romanian-deadlift, not deadlift")

	got = ClassifyMovement("paused-front-squat")
	require.NotNil(t, got)
	assert.Equal(t, models.MovementSquat, got.Primary)
}

func TestClassifyMovement_Deterministic(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Equal(t, ClassifyMovement("landmine-press"), ClassifyMovement("landmine-press"))
	}
}

func TestAdjustWarmup(t *testing.T) {
	tests := []struct {
		name     string
		sets     int
		adj      float64
		feedback models.WarmupFeedback
		wantSets int
		wantAdj  float64
	}{
		{"not enough", 3, 0, models.FeedbackNotEnough, 4, 0.05},
		{"not enough at cap", 6, 0.2, models.FeedbackNotEnough, 6, 0.2},
		{"too much", 3, 0, models.FeedbackTooMuch, 2, -0.05},
		{"too much at floor", 2, -0.2, models.FeedbackTooMuch, 2, -0.2},
		{"excellent keeps", 4, 0.1, models.FeedbackExcellent, 4, 0.1},
		{"accumulates cleanly", 3, 0.15, models.FeedbackNotEnough, 4, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSets, gotAdj := AdjustWarmup(tt.sets, tt.adj, tt.feedback)
			assert.Equal(t, tt.wantSets, gotSets)
			assert.InDelta(t, tt.wantAdj, gotAdj, 1e-9)
		})
	}
}

func TestRoundToIncrement(t *testing.T) {
	tests := []struct {
		name      string
		weight    float64
		increment float64
		want      float64
	}{
		{"55 at 2.5", 100 * 0.55, 2.5, 55},
		{"71.3 at 2.5", 71.3, 2.5, 72.5},
		{"104 at 0.25", 104.0, 0.25, 104},
		{"94.5 at 0.25", 105 * 0.9, 0.25, 94.5},
		{"no increment", 7.3, 0, 7.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundToIncrement(tt.weight, tt.increment), 1e-9)
		})
	}
}

func TestLargestBelow(t *testing.T) {
	assert.Equal(t, 2.5, LargestBelow(5, 2.5))
	assert.Equal(t, 5.0, LargestBelow(6, 2.5))
	assert.Equal(t, 0.0, LargestBelow(2.5, 2.5))
	assert.Equal(t, 0.0, LargestBelow(0, 2.5))
}

func TestRIRFromRPE(t *testing.T) {
	assert.Equal(t, 2.0, RIRFromRPE(8))
	assert.Equal(t, 0.0, RIRFromRPE(10.5))
}
