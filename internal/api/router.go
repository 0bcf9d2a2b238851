// Package api - HTTP-интерфейс рекомендательного ядра.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gymcoach/internal/metrics"
	"gymcoach/internal/models"
	"gymcoach/internal/warmup"
)

// SubstitutionService - поиск и применение замен
type SubstitutionService interface {
	FindAlternatives(ctx context.Context, exerciseID string, caps models.EquipmentCapabilities, targetMuscles []string, constraints *models.SubstitutionConstraints) ([]models.ExerciseAlternative, error)
	ApplySubstitution(ctx context.Context, userID, templateID, originalID, preferredID string) (*models.SubstitutionPreference, error)
}

// GeneratorService - генерация шаблонов
type GeneratorService interface {
	GenerateTemplate(ctx context.Context, in models.TemplateGeneratorInputs) (*models.GeneratedTemplate, error)
	GenerateAndSave(ctx context.Context, in models.TemplateGeneratorInputs) (string, *models.GeneratedTemplate, error)
}

// WarmupService - планы разминки и отзывы
type WarmupService interface {
	GenerateWarmupPlan(ctx context.Context, req warmup.PlanRequest) (*models.WarmupPlan, error)
	UpdateWarmupFeedback(ctx context.Context, userID, exerciseID string, feedback models.WarmupFeedback, plan *models.WarmupPlan) (*models.UserWarmupPreferences, error)
}

// RecalibrationService - пересчёт нагрузок
type RecalibrationService interface {
	RecalibrateUserPlans(ctx context.Context, userID string, dryRun bool) (*models.RecalibrationSummary, error)
}

// CapabilityResolver - оборудование пользователя
type CapabilityResolver interface {
	Capabilities(ctx context.Context, userID string) models.EquipmentCapabilities
}

// Deps - зависимости роутера
type Deps struct {
	Substitution   SubstitutionService
	Generator      GeneratorService
	Warmup         WarmupService
	Recalibration  RecalibrationService
	Equipment      CapabilityResolver
	Metrics        *metrics.Recorder
	Logger         *zerolog.Logger // nil = глобальный log.Logger
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(deps Deps) http.Handler {
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}
	h := &Handler{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(chimw.Timeout(deps.RequestTimeout))
		}

		r.Get("/exercises/{exerciseID}/alternatives", h.FindAlternatives)

		r.Route("/templates", func(r chi.Router) {
			r.Post("/generate", h.GenerateTemplate)
			r.Post("/{templateID}/substitutions", h.ApplySubstitution)
		})

		r.Route("/warmups", func(r chi.Router) {
			r.Post("/plan", h.WarmupPlan)
			r.Post("/feedback", h.WarmupFeedback)
		})

		r.Post("/users/{userID}/recalibrate", h.Recalibrate)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gymcoach",
	})
}
