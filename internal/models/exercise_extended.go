package models

// ===============================================
// ПАТТЕРНЫ ДВИЖЕНИЯ ДЛЯ ПОДБОРА ЗАМЕН
// ===============================================

// MovementType - основной паттерн движения
type MovementType string

const (
	MovementPush     MovementType = "push"     // Толкающие (жим, отжимания)
	MovementPull     MovementType = "pull"     // Тянущие (тяга, подтягивания)
	MovementSquat    MovementType = "squat"    // Приседания
	MovementHinge    MovementType = "hinge"    // Наклон/разгибание (RDL, тяга)
	MovementLunge    MovementType = "lunge"    // Выпады
	MovementCarry    MovementType = "carry"    // Переноски
	MovementRotation MovementType = "rotation" // Ротация (скручивания)
	MovementStatic   MovementType = "static"   // Статика (планка)
)

// MovementPlane - плоскость движения
type MovementPlane string

const (
	PlaneSagittal   MovementPlane = "sagittal"   // Сагиттальная (вперёд-назад)
	PlaneFrontal    MovementPlane = "frontal"    // Фронтальная (в стороны)
	PlaneTransverse MovementPlane = "transverse" // Поперечная (вращение)
)

// KineticChain - тип кинематической цепи
type KineticChain string

const (
	ChainOpen   KineticChain = "open"   // Дистальный сегмент свободен (жим лёжа, разгибания)
	ChainClosed KineticChain = "closed" // Дистальный сегмент зафиксирован (приседания, отжимания)
)

// ContractionType - преобладающий режим работы мышц
type ContractionType string

const (
	ContractionConcentric ContractionType = "concentric"
	ContractionEccentric  ContractionType = "eccentric"
	ContractionIsometric  ContractionType = "isometric"
)

// MovementPattern - частичная классификация движения. Пустые поля = неизвестно.
type MovementPattern struct {
	Primary     MovementType    `json:"primary"`
	Plane       MovementPlane   `json:"plane,omitempty"`
	Chain       KineticChain    `json:"chain,omitempty"`
	Contraction ContractionType `json:"contraction,omitempty"`
}
