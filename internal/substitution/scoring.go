package substitution

import (
	"fmt"

	"gymcoach/internal/equipment"
	"gymcoach/internal/models"
	"gymcoach/internal/training"
)

// Веса правил подбора
const (
	scorePrimaryMuscle      = 40
	scoreTargetMuscle       = 25
	scorePerSecondary       = 7
	maxSecondaryScore       = 20
	scoreSamePattern        = 25
	scoreSameChain          = 12
	scoreSameEquipment      = 15
	scoreCompatibleEquip    = 8
	scoreAvailableEquipment = 5
	scorePriorityMuscle     = 8

	// MinComputedScore - ниже этого рассчитанные кандидаты отбрасываются
	MinComputedScore = 50
)

// equipmentCompatibility - взаимозаменяемое оборудование (проверяется в обе стороны)
var equipmentCompatibility = map[string][]string{
	"barbell":       {"smith-machine", "safety-bar", "trap-bar", "ez-bar"},
	"dumbbell":      {"kettlebell", "cable"},
	"cable":         {"resistance-band", "machine"},
	"machine":       {"smith-machine"},
	"smith-machine": {"machine"},
	"bodyweight":    {"resistance-band", "assisted-machine"},
}

func compatibleEquipment(a, b string) bool {
	for _, s := range equipmentCompatibility[a] {
		if s == b {
			return true
		}
	}
	for _, s := range equipmentCompatibility[b] {
		if s == a {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// scoreCandidate считает совпадение кандидата с исходным упражнением.
// Причины добавляются в порядке срабатывания правил. Итог в [0,100].
func scoreCandidate(original, candidate *models.ExerciseDescriptor, caps models.EquipmentCapabilities, targetMuscles []string) (int, []string) {
	score := 0
	var reasons []string

	switch {
	case candidate.PrimaryMuscleID != "" && candidate.PrimaryMuscleID == original.PrimaryMuscleID:
		score += scorePrimaryMuscle
		reasons = append(reasons, "Same primary muscle")
	case contains(targetMuscles, candidate.PrimaryMuscleID):
		score += scoreTargetMuscle
		reasons = append(reasons, "Targets requested muscle")
	}

	shared := 0
	for _, id := range candidate.SecondaryMuscleGroupIDs {
		if contains(original.SecondaryMuscleGroupIDs, id) {
			shared++
		}
	}
	if shared > 0 {
		bonus := shared * scorePerSecondary
		if bonus > maxSecondaryScore {
			bonus = maxSecondaryScore
		}
		score += bonus
		reasons = append(reasons, fmt.Sprintf("Shares %d secondary muscle group(s)", shared))
	}

	op := training.ClassifyMovement(original.Slug)
	cp := training.ClassifyMovement(candidate.Slug)
	if op != nil && cp != nil {
		switch {
		case op.Primary == cp.Primary:
			score += scoreSamePattern
			reasons = append(reasons, fmt.Sprintf("Same movement pattern (%s)", cp.Primary))
		case op.Chain != "" && op.Chain == cp.Chain:
			score += scoreSameChain
			reasons = append(reasons, fmt.Sprintf("Same kinetic chain (%s)", cp.Chain))
		}
	}

	origEq, candEq := original.EquipmentSlug(), candidate.EquipmentSlug()
	switch {
	case candEq != "" && candEq == origEq:
		score += scoreSameEquipment
		reasons = append(reasons, "Same equipment")
	case compatibleEquipment(origEq, candEq):
		score += scoreCompatibleEquip
		reasons = append(reasons, "Compatible equipment")
	}

	switch kind := equipment.Classify(candEq); {
	case kind == equipment.KindBarbell && caps.Bars.Available,
		kind == equipment.KindCable && caps.Cables.Available,
		kind == equipment.KindMachine && caps.Machines.Available:
		score += scoreAvailableEquipment
		reasons = append(reasons, "Equipment available")
	}

	if contains(targetMuscles, candidate.PrimaryMuscleSlug) {
		score += scorePriorityMuscle
		reasons = append(reasons, "Priority muscle")
	}

	return clampScore(score), reasons
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// passesFilters - фильтр доступности оборудования и ограничений пользователя
func passesFilters(e *models.ExerciseDescriptor, caps models.EquipmentCapabilities, c models.SubstitutionConstraints) bool {
	if !equipment.IsEquipmentAvailable(caps, e.EquipmentSlug()) {
		return false
	}
	if contains(c.ExcludeExerciseIDs, e.ID) {
		return false
	}
	if contains(c.AvoidInjuries, e.BodyPartID) {
		return false
	}
	if len(c.PreferredEquipment) > 0 && !contains(c.PreferredEquipment, e.EquipmentSlug()) {
		return false
	}
	return true
}
