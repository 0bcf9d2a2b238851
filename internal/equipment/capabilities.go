// Package equipment собирает EquipmentCapabilities из инвентаря зала
// и отвечает на вопрос, доступно ли оборудование упражнения.
package equipment

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gymcoach/internal/apperrors"
	"gymcoach/internal/models"
	"gymcoach/internal/repository"
)

// Resolver строит снимок оборудования пользователя
type Resolver struct {
	store  repository.InventoryStore
	logger zerolog.Logger
}

// Option настраивает Resolver
type Option func(*Resolver)

// WithLogger задаёт логгер
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver создаёт Resolver поверх хранилища инвентаря
func NewResolver(store repository.InventoryStore, opts ...Option) *Resolver {
	r := &Resolver{store: store, logger: log.Logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Capabilities возвращает нормализованный снимок оборудования.
// Нет зала или ошибка чтения - DefaultCapabilities().
func (r *Resolver) Capabilities(ctx context.Context, userID string) models.EquipmentCapabilities {
	gym, err := r.store.GetUserGym(ctx, userID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			r.logger.Warn().Err(err).Str("user_id", userID).Msg("gym lookup failed, using default equipment")
		}
		return DefaultCapabilities()
	}

	inv := models.GymInventory{Gym: *gym}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inv.Bars, err = r.store.ListGymBars(gctx, gym.ID)
		return err
	})
	g.Go(func() (err error) {
		inv.Plates, err = r.store.ListGymPlates(gctx, gym.ID)
		return err
	})
	g.Go(func() (err error) {
		inv.Miniweights, err = r.store.ListGymMiniweights(gctx, gym.ID)
		return err
	})
	g.Go(func() (err error) {
		inv.Dumbbells, err = r.store.ListGymDumbbells(gctx, gym.ID)
		return err
	})
	g.Go(func() (err error) {
		inv.Machines, err = r.store.ListGymMachines(gctx, gym.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn().Err(err).Str("user_id", userID).Str("gym_id", gym.ID).Msg("inventory fetch failed, using default equipment")
		return DefaultCapabilities()
	}
	return FromInventory(inv)
}

// FromInventory переводит строки инвентаря в EquipmentCapabilities
func FromInventory(inv models.GymInventory) models.EquipmentCapabilities {
	var caps models.EquipmentCapabilities

	barWeights := make([]float64, 0, len(inv.Bars))
	for _, b := range inv.Bars {
		barWeights = append(barWeights, b.Weight)
		if b.IsDefault && caps.Bars.DefaultWeight == 0 {
			caps.Bars.DefaultWeight = b.Weight
		}
	}
	caps.Bars.Weights = normalize(barWeights)
	caps.Bars.Available = len(caps.Bars.Weights) > 0
	if caps.Bars.Available && caps.Bars.DefaultWeight == 0 {
		caps.Bars.DefaultWeight = caps.Bars.Weights[len(caps.Bars.Weights)-1]
	}

	caps.Plates.Weights = normalize(inv.Plates)
	caps.Plates.Miniweights = normalize(inv.Miniweights)
	caps.Plates.Available = len(caps.Plates.Weights) > 0

	caps.Dumbbells.Weights = normalize(inv.Dumbbells)
	caps.Dumbbells.Available = len(caps.Dumbbells.Weights) > 0
	caps.Dumbbells.Increment = smallestStep(caps.Dumbbells.Weights)

	caps.Machines.Available = inv.Gym.HasMachines || len(inv.Machines) > 0
	if len(inv.Machines) > 0 {
		caps.Machines.Stacks = make(map[string]models.MachineStack, len(inv.Machines))
		for _, m := range inv.Machines {
			caps.Machines.Stacks[m.Key] = models.MachineStack{
				StackWeights: normalize(m.StackWeights),
				AuxWeights:   normalize(m.AuxWeights),
				Increment:    m.Increment,
			}
		}
	}

	caps.Cables.Available = inv.Gym.HasCables
	caps.Cables.Increment = inv.Gym.CableIncrement
	if caps.Cables.Available && caps.Cables.Increment <= 0 {
		caps.Cables.Increment = 2.5
	}
	return caps
}

// DefaultCapabilities - типичный коммерческий зал
func DefaultCapabilities() models.EquipmentCapabilities {
	dumbbells := make([]float64, 0, 25)
	for w := 2.0; w <= 50; w += 2 {
		dumbbells = append(dumbbells, w)
	}
	return models.EquipmentCapabilities{
		Bars: models.BarCapability{Available: true, Weights: []float64{15, 20}, DefaultWeight: 20},
		Plates: models.PlateCapability{
			Available:   true,
			Weights:     []float64{1.25, 2.5, 5, 10, 15, 20, 25},
			Miniweights: []float64{0.5},
		},
		Dumbbells: models.DumbbellCapability{Available: true, Weights: dumbbells, Increment: 2},
		Machines:  models.MachineCapability{Available: true},
		Cables:    models.CableCapability{Available: true, Increment: 2.5},
	}
}

// normalize убирает дубли и сортирует по возрастанию
func normalize(weights []float64) []float64 {
	if len(weights) == 0 {
		return nil
	}
	out := append([]float64(nil), weights...)
	sort.Float64s(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func smallestStep(sorted []float64) float64 {
	step := 0.0
	for i := 1; i < len(sorted); i++ {
		d := sorted[i] - sorted[i-1]
		if step == 0 || d < step {
			step = d
		}
	}
	return step
}

// Kind - тип оборудования по slug
type Kind int

const (
	KindUnknown Kind = iota
	KindBodyweight
	KindBarbell
	KindDumbbell
	KindMachine
	KindCable
)

// Classify определяет тип оборудования по ключевым словам slug
func Classify(slug string) Kind {
	s := strings.ToLower(strings.TrimSpace(slug))
	switch {
	case s == "" || strings.Contains(s, "bodyweight") || strings.Contains(s, "body-weight") || s == "none":
		return KindBodyweight
	case strings.Contains(s, "barbell") || strings.Contains(s, "bar"):
		return KindBarbell
	case strings.Contains(s, "dumbbell"):
		return KindDumbbell
	case strings.Contains(s, "machine") || strings.Contains(s, "smith"):
		return KindMachine
	case strings.Contains(s, "cable"):
		return KindCable
	}
	return KindUnknown
}

// IsEquipmentAvailable - можно ли выполнить упражнение с таким оборудованием.
// Собственный вес и неизвестные slug считаются доступными.
func IsEquipmentAvailable(caps models.EquipmentCapabilities, slug string) bool {
	switch Classify(slug) {
	case KindBarbell:
		return caps.Bars.Available
	case KindDumbbell:
		return caps.Dumbbells.Available
	case KindMachine:
		return caps.Machines.Available
	case KindCable:
		return caps.Cables.Available
	}
	return true
}

// NearestLoadable возвращает ближайший к target вес, который реально собрать
// на оборудовании slug. Если оборудование не описано, возвращает target.
func NearestLoadable(caps models.EquipmentCapabilities, slug string, target float64) float64 {
	switch Classify(slug) {
	case KindBarbell:
		if !caps.Bars.Available {
			return target
		}
		bar := caps.Bars.DefaultWeight
		step := 0.0
		if len(caps.Plates.Weights) > 0 {
			step = 2 * caps.Plates.Weights[0]
		}
		if len(caps.Plates.Miniweights) > 0 && 2*caps.Plates.Miniweights[0] < step {
			step = 2 * caps.Plates.Miniweights[0]
		}
		if target <= bar || step == 0 {
			return bar
		}
		return bar + math.Round((target-bar)/step)*step
	case KindDumbbell:
		return nearest(caps.Dumbbells.Weights, target)
	case KindMachine:
		if stack, ok := caps.Machines.Stacks[slug]; ok && len(stack.StackWeights) > 0 {
			return nearest(stack.StackWeights, target)
		}
	case KindCable:
		if caps.Cables.Increment > 0 {
			return math.Round(target/caps.Cables.Increment) * caps.Cables.Increment
		}
	}
	return target
}

func nearest(sorted []float64, target float64) float64 {
	if len(sorted) == 0 {
		return target
	}
	i := sort.SearchFloat64s(sorted, target)
	switch {
	case i == 0:
		return sorted[0]
	case i == len(sorted):
		return sorted[len(sorted)-1]
	}
	if target-sorted[i-1] <= sorted[i]-target {
		return sorted[i-1]
	}
	return sorted[i]
}
