package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
)

// InventoryRepository читает инвентарь зала
type InventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository создаёт репозиторий инвентаря
func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// GetUserGym возвращает зал пользователя по умолчанию
func (r *InventoryRepository) GetUserGym(ctx context.Context, userID string) (*models.UserGym, error) {
	g := &models.UserGym{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id::text, user_id::text, COALESCE(name, ''), COALESCE(has_cables, false),
		       COALESCE(cable_increment, 0), COALESCE(has_machines, false)
		FROM public.user_gyms
		WHERE user_id::text = $1
		ORDER BY is_default DESC NULLS LAST, created_at
		LIMIT 1`, userID).Scan(&g.ID, &g.UserID, &g.Name, &g.HasCables, &g.CableIncrement, &g.HasMachines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("gym", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get user gym: %w", err)
	}
	return g, nil
}

// ListGymBars возвращает грифы зала
func (r *InventoryRepository) ListGymBars(ctx context.Context, gymID string) ([]models.GymBar, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT weight, COALESCE(is_default, false)
		FROM public.user_gym_bars
		WHERE gym_id::text = $1`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list gym bars: %w", err)
	}
	defer rows.Close()

	var bars []models.GymBar
	for rows.Next() {
		var b models.GymBar
		if err := rows.Scan(&b.Weight, &b.IsDefault); err != nil {
			return nil, fmt.Errorf("scan gym bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// ListGymPlates возвращает веса блинов
func (r *InventoryRepository) ListGymPlates(ctx context.Context, gymID string) ([]float64, error) {
	return r.listWeights(ctx, "user_gym_plates", gymID)
}

// ListGymMiniweights возвращает веса микроблинов
func (r *InventoryRepository) ListGymMiniweights(ctx context.Context, gymID string) ([]float64, error) {
	return r.listWeights(ctx, "user_gym_miniweights", gymID)
}

// ListGymDumbbells возвращает веса гантелей
func (r *InventoryRepository) ListGymDumbbells(ctx context.Context, gymID string) ([]float64, error) {
	return r.listWeights(ctx, "user_gym_dumbbells", gymID)
}

// ListGymMachines возвращает тренажёры со стеками
func (r *InventoryRepository) ListGymMachines(ctx context.Context, gymID string) ([]models.GymMachine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT machine_key, COALESCE(stack_weights, '{}'), COALESCE(aux_weights, '{}'), COALESCE(increment, 0)
		FROM public.user_gym_machines
		WHERE gym_id::text = $1
		ORDER BY machine_key`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list gym machines: %w", err)
	}
	defer rows.Close()

	var machines []models.GymMachine
	for rows.Next() {
		var (
			m     models.GymMachine
			stack pq.Float64Array
			aux   pq.Float64Array
		)
		if err := rows.Scan(&m.Key, &stack, &aux, &m.Increment); err != nil {
			return nil, fmt.Errorf("scan gym machine: %w", err)
		}
		m.StackWeights = []float64(stack)
		m.AuxWeights = []float64(aux)
		machines = append(machines, m)
	}
	return machines, rows.Err()
}

// listWeights читает колонку weight из таблицы инвентаря.
// table подставляется только из констант выше.
func (r *InventoryRepository) listWeights(ctx context.Context, table, gymID string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT weight FROM public.`+table+` WHERE gym_id::text = $1`, gymID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var weights []float64
	for rows.Next() {
		var w float64
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
