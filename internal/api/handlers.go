package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/equipment"
	"gymcoach/internal/metrics"
	"gymcoach/internal/models"
	"gymcoach/internal/warmup"
)

// maxBodyBytes - предел тела запроса
const maxBodyBytes = 1 << 20

// Handler - обработчики /api/v1
type Handler struct {
	deps   Deps
	logger zerolog.Logger
}

// SubstitutionRequest - тело POST /templates/{templateID}/substitutions
type SubstitutionRequest struct {
	UserID              string `json:"user_id"`
	OriginalExerciseID  string `json:"original_exercise_id"`
	PreferredExerciseID string `json:"preferred_exercise_id"`
}

// FeedbackRequest - тело POST /warmups/feedback
type FeedbackRequest struct {
	UserID     string                `json:"user_id"`
	ExerciseID string                `json:"exercise_id"`
	Feedback   models.WarmupFeedback `json:"feedback"`
	Plan       *models.WarmupPlan    `json:"plan"`
}

// FindAlternatives - GET /exercises/{exerciseID}/alternatives
func (h *Handler) FindAlternatives(w http.ResponseWriter, r *http.Request) {
	exerciseID := chi.URLParam(r, "exerciseID")
	q := r.URL.Query()

	userID := q.Get("user_id")
	caps := equipment.DefaultCapabilities()
	if userID != "" && h.deps.Equipment != nil {
		caps = h.deps.Equipment.Capabilities(r.Context(), userID)
	}
	constraints := &models.SubstitutionConstraints{
		AvoidInjuries:      splitList(q.Get("avoid")),
		PreferredEquipment: splitList(q.Get("equipment")),
		ExcludeExerciseIDs: splitList(q.Get("exclude")),
		UserID:             userID,
		TemplateID:         q.Get("template_id"),
	}

	started := time.Now()
	alternatives, err := h.deps.Substitution.FindAlternatives(r.Context(), exerciseID, caps, splitList(q.Get("target")), constraints)
	h.deps.Metrics.Observe(metrics.EngineSubstitution, started, err)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"exercise_id":  exerciseID,
		"alternatives": alternatives,
	})
}

// GenerateTemplate - POST /templates/generate?save=true
func (h *Handler) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	save, err := boolParam(r, "save")
	if err != nil {
		h.respondErr(w, err)
		return
	}
	var in models.TemplateGeneratorInputs
	if err := decodeJSON(r, &in); err != nil {
		h.respondErr(w, err)
		return
	}

	started := time.Now()
	if !save {
		tmpl, err := h.deps.Generator.GenerateTemplate(r.Context(), in)
		h.deps.Metrics.Observe(metrics.EngineGenerator, started, err)
		if err != nil {
			h.respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"template": tmpl})
		return
	}

	id, tmpl, err := h.deps.Generator.GenerateAndSave(r.Context(), in)
	h.deps.Metrics.Observe(metrics.EngineGenerator, started, err)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"template_id": id, "template": tmpl})
}

// ApplySubstitution - POST /templates/{templateID}/substitutions
func (h *Handler) ApplySubstitution(w http.ResponseWriter, r *http.Request) {
	var req SubstitutionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, err)
		return
	}
	started := time.Now()
	pref, err := h.deps.Substitution.ApplySubstitution(r.Context(), req.UserID, chi.URLParam(r, "templateID"), req.OriginalExerciseID, req.PreferredExerciseID)
	h.deps.Metrics.Observe(metrics.EngineSubstitution, started, err)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pref)
}

// WarmupPlan - POST /warmups/plan
func (h *Handler) WarmupPlan(w http.ResponseWriter, r *http.Request) {
	var req warmup.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, err)
		return
	}
	started := time.Now()
	plan, err := h.deps.Warmup.GenerateWarmupPlan(r.Context(), req)
	h.deps.Metrics.Observe(metrics.EngineWarmup, started, err)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// WarmupFeedback - POST /warmups/feedback
func (h *Handler) WarmupFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondErr(w, err)
		return
	}
	started := time.Now()
	prefs, err := h.deps.Warmup.UpdateWarmupFeedback(r.Context(), req.UserID, req.ExerciseID, req.Feedback, req.Plan)
	h.deps.Metrics.Observe(metrics.EngineWarmup, started, err)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// Recalibrate - POST /users/{userID}/recalibrate?dry_run=true
func (h *Handler) Recalibrate(w http.ResponseWriter, r *http.Request) {
	dryRun, err := boolParam(r, "dry_run")
	if err != nil {
		h.respondErr(w, err)
		return
	}
	started := time.Now()
	summary, err := h.deps.Recalibration.RecalibrateUserPlans(r.Context(), chi.URLParam(r, "userID"), dryRun)
	h.deps.Metrics.Observe(metrics.EngineRecalibration, started, err)
	switch {
	case err != nil && summary != nil:
		// часть изменений не записалась: отдаём сводку вместе с ошибкой
		h.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("recalibration finished with errors")
		respondJSON(w, statusFor(err), map[string]any{"error": err.Error(), "summary": summary})
	case err != nil:
		h.respondErr(w, err)
	default:
		respondJSON(w, http.StatusOK, summary)
	}
}

// statusFor сопоставляет вид ошибки с HTTP-статусом
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindInsufficientData:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error().Err(err).Msg("request failed")
	}
	respondError(w, status, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Validation("decode request", "invalid JSON body: %v", err)
	}
	return nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Validation("parse query", "%s must be true or false, got %q", name, raw)
	}
	return v, nil
}

// splitList разбирает "a,b,,c" в [a b c]
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
