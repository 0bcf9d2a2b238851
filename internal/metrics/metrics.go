// Package metrics - Prometheus-метрики вызовов движков.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gymcoach/internal/apperrors"
)

// Имена движков для метки engine
const (
	EngineSubstitution  = "substitution"
	EngineGenerator     = "generator"
	EngineWarmup        = "warmup"
	EngineRecalibration = "recalibration"
)

// OutcomeOK - метка успешного вызова
const OutcomeOK = "ok"

// Recorder хранит собственный реестр, чтобы тесты и несколько серверов не мешали друг другу
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New создаёт реестр с метриками движков и рантайма Go
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gymcoach_engine_requests_total",
			Help: "Engine invocations by outcome.",
		}, []string{"engine", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gymcoach_engine_duration_seconds",
			Help:    "Engine invocation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"engine"}),
	}
	r.registry.MustRegister(
		r.requests,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe учитывает вызов движка
func (r *Recorder) Observe(engine string, started time.Time, err error) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(engine, Outcome(err)).Inc()
	r.duration.WithLabelValues(engine).Observe(time.Since(started).Seconds())
}

// Handler отдаёт /metrics
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry - для тестов и дополнительных коллекторов
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Outcome - метка исхода по виду ошибки
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(apperrors.KindOf(err))
}
