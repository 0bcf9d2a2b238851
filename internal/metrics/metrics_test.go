package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymcoach/internal/apperrors"
)

// counterValue ищет значение счётчика по меткам
func counterValue(t *testing.T, r *Recorder, engine, outcome string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "gymcoach_engine_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["engine"] == engine && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{apperrors.Validation("op", "bad"), "validation"},
		{apperrors.NotFound("exercise", "x"), "not_found"},
		{apperrors.Conflict("warmup preferences", "u/x"), "conflict"},
		{apperrors.BackingStore("op", errors.New("down")), "backing_store"},
		{errors.New("plain"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err))
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := New()
	started := time.Now().Add(-50 * time.Millisecond)

	r.Observe(EngineWarmup, started, nil)
	r.Observe(EngineWarmup, started, nil)
	r.Observe(EngineWarmup, started, apperrors.Validation("op", "bad"))
	r.Observe(EngineGenerator, started, nil)

	assert.Equal(t, 2.0, counterValue(t, r, EngineWarmup, OutcomeOK))
	assert.Equal(t, 1.0, counterValue(t, r, EngineWarmup, "validation"))
	assert.Equal(t, 1.0, counterValue(t, r, EngineGenerator, OutcomeOK))
	assert.Zero(t, counterValue(t, r, EngineRecalibration, OutcomeOK))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Observe(EngineWarmup, time.Now(), nil) })
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.Observe(EngineSubstitution, time.Now(), nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `gymcoach_engine_requests_total{engine="substitution",outcome="ok"} 1`)
	assert.Contains(t, string(body), "gymcoach_engine_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
