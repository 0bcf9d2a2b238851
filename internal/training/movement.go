package training

import (
	"strings"

	"gymcoach/internal/models"
)

type patternEntry struct {
	slug    string
	pattern models.MovementPattern
}

func mp(primary models.MovementType, plane models.MovementPlane, chain models.KineticChain, c models.ContractionType) models.MovementPattern {
	return models.MovementPattern{Primary: primary, Plane: plane, Chain: chain, Contraction: c}
}

// movementPatterns - канонические slug'и. Порядок важен для нечёткого поиска.
var movementPatterns = []patternEntry{
	// Жимы
	{"bench-press", mp(models.MovementPush, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"incline-bench-press", mp(models.MovementPush, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"dumbbell-press", mp(models.MovementPush, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"overhead-press", mp(models.MovementPush, models.PlaneFrontal, models.ChainOpen, models.ContractionConcentric)},
	{"shoulder-press", mp(models.MovementPush, models.PlaneFrontal, models.ChainOpen, models.ContractionConcentric)},
	{"push-up", mp(models.MovementPush, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"dip", mp(models.MovementPush, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"chest-fly", mp(models.MovementPush, models.PlaneTransverse, models.ChainOpen, models.ContractionConcentric)},
	{"fly", mp(models.MovementPush, models.PlaneTransverse, models.ChainOpen, models.ContractionConcentric)},
	{"triceps-extension", mp(models.MovementPush, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},

	// Тяги
	{"pull-up", mp(models.MovementPull, models.PlaneFrontal, models.ChainClosed, models.ContractionConcentric)},
	{"chin-up", mp(models.MovementPull, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"lat-pulldown", mp(models.MovementPull, models.PlaneFrontal, models.ChainOpen, models.ContractionConcentric)},
	{"barbell-row", mp(models.MovementPull, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"dumbbell-row", mp(models.MovementPull, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"seated-cable-row", mp(models.MovementPull, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},
	{"face-pull", mp(models.MovementPull, models.PlaneTransverse, models.ChainOpen, models.ContractionConcentric)},
	{"biceps-curl", mp(models.MovementPull, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},

	// Приседания
	{"squat", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"back-squat", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"front-squat", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"goblet-squat", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"hack-squat", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"leg-press", mp(models.MovementSquat, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"leg-extension", mp(models.MovementSquat, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},

	// Наклоны
	{"deadlift", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"romanian-deadlift", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionEccentric)},
	{"hip-thrust", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"glute-bridge", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"good-morning", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionEccentric)},
	{"kettlebell-swing", mp(models.MovementHinge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"leg-curl", mp(models.MovementHinge, models.PlaneSagittal, models.ChainOpen, models.ContractionConcentric)},

	// Выпады
	{"lunge", mp(models.MovementLunge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"walking-lunge", mp(models.MovementLunge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"bulgarian-split-squat", mp(models.MovementLunge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},
	{"step-up", mp(models.MovementLunge, models.PlaneSagittal, models.ChainClosed, models.ContractionConcentric)},

	// Прочее
	{"farmers-walk", mp(models.MovementCarry, models.PlaneSagittal, models.ChainClosed, models.ContractionIsometric)},
	{"russian-twist", mp(models.MovementRotation, models.PlaneTransverse, models.ChainOpen, models.ContractionConcentric)},
	{"cable-woodchop", mp(models.MovementRotation, models.PlaneTransverse, models.ChainOpen, models.ContractionConcentric)},
	{"plank", mp(models.MovementStatic, models.PlaneSagittal, models.ChainClosed, models.ContractionIsometric)},
}

// movementKeywords - последний шанс: ключевое слово в slug -> паттерн
var movementKeywords = []struct {
	keyword string
	primary models.MovementType
}{
	{"press", models.MovementPush},
	{"push", models.MovementPush},
	{"pull", models.MovementPull},
	{"row", models.MovementPull},
	{"squat", models.MovementSquat},
	{"deadlift", models.MovementHinge},
	{"hip", models.MovementHinge},
	{"lunge", models.MovementLunge},
	{"step", models.MovementLunge},
}

// equipmentPrefixes - первые токены, которые называют снаряд, а не движение
var equipmentPrefixes = map[string]bool{
	"barbell":    true,
	"dumbbell":   true,
	"cable":      true,
	"kettlebell": true,
	"machine":    true,
	"smith":      true,
	"band":       true,
	"ez":         true,
}

var patternIndex = func() map[string]models.MovementPattern {
	idx := make(map[string]models.MovementPattern, len(movementPatterns))
	for _, e := range movementPatterns {
		idx[e.slug] = e.pattern
	}
	return idx
}()

// ClassifyMovement определяет паттерн движения по slug упражнения.
// Возвращает nil, если ничего не подошло.
func ClassifyMovement(slug string) *models.MovementPattern {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil
	}

	// 1. Точное совпадение
	if p, ok := patternIndex[slug]; ok {
		return &p
	}

	// 2. Самый длинный ключ, входящий в slug: dumbbell-romanian-deadlift -> romanian-deadlift
	var best *patternEntry
	for i := range movementPatterns {
		e := &movementPatterns[i]
		if strings.Contains(slug, e.slug) && (best == nil || len(e.slug) > len(best.slug)) {
			best = e
		}
	}
	if best != nil {
		p := best.pattern
		return &p
	}

	// 3. Совпадает первый токен. Префикс оборудования движение не определяет.
	if first := firstToken(slug); !equipmentPrefixes[first] {
		for _, e := range movementPatterns {
			if firstToken(e.slug) == first {
				p := e.pattern
				return &p
			}
		}
	}

	// 4. Ключевые слова
	for _, kw := range movementKeywords {
		if strings.Contains(slug, kw.keyword) {
			return &models.MovementPattern{Primary: kw.primary}
		}
	}
	return nil
}

func firstToken(slug string) string {
	if i := strings.IndexByte(slug, '-'); i >= 0 {
		return slug[:i]
	}
	return slug
}
