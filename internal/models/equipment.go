package models

// ===============================================
// ДОСТУПНОЕ ОБОРУДОВАНИЕ
// ===============================================

// BarCapability - грифы
type BarCapability struct {
	Available     bool      `json:"available"`
	Weights       []float64 `json:"weights"`
	DefaultWeight float64   `json:"default_weight"`
}

// PlateCapability - блины и микроблины
type PlateCapability struct {
	Available   bool      `json:"available"`
	Weights     []float64 `json:"weights"`
	Miniweights []float64 `json:"miniweights"`
}

// DumbbellCapability - гантели
type DumbbellCapability struct {
	Available bool      `json:"available"`
	Weights   []float64 `json:"weights"`
	Increment float64   `json:"increment"`
}

// MachineStack - стек конкретного тренажёра
type MachineStack struct {
	StackWeights []float64 `json:"stack_weights"`
	AuxWeights   []float64 `json:"aux_weights"`
	Increment    float64   `json:"increment"`
}

// MachineCapability - тренажёры
type MachineCapability struct {
	Available bool                    `json:"available"`
	Stacks    map[string]MachineStack `json:"stacks"`
}

// CableCapability - блоки/кроссовер
type CableCapability struct {
	Available bool    `json:"available"`
	Increment float64 `json:"increment"`
}

// EquipmentCapabilities - нормализованный снимок оборудования пользователя.
// Списки весов без дублей и по возрастанию. Ядро снимок не изменяет.
type EquipmentCapabilities struct {
	Bars      BarCapability      `json:"bars"`
	Plates    PlateCapability    `json:"plates"`
	Dumbbells DumbbellCapability `json:"dumbbells"`
	Machines  MachineCapability  `json:"machines"`
	Cables    CableCapability    `json:"cables"`
}

// UserGym - зал пользователя (строка user_gyms)
type UserGym struct {
	ID             string  `json:"id" yaml:"id"`
	UserID         string  `json:"user_id" yaml:"user_id"`
	Name           string  `json:"name" yaml:"name"`
	HasCables      bool    `json:"has_cables" yaml:"has_cables"`
	CableIncrement float64 `json:"cable_increment" yaml:"cable_increment"`
	HasMachines    bool    `json:"has_machines" yaml:"has_machines"`
}

// GymBar - гриф в зале
type GymBar struct {
	Weight    float64 `json:"weight" yaml:"weight"`
	IsDefault bool    `json:"is_default" yaml:"is_default"`
}

// GymMachine - тренажёр в зале
type GymMachine struct {
	Key          string    `json:"key" yaml:"key"`
	StackWeights []float64 `json:"stack_weights" yaml:"stack_weights"`
	AuxWeights   []float64 `json:"aux_weights" yaml:"aux_weights"`
	Increment    float64   `json:"increment" yaml:"increment"`
}

// GymInventory - сырые строки инвентаря зала
type GymInventory struct {
	Gym         UserGym      `json:"gym" yaml:"gym"`
	Bars        []GymBar     `json:"bars" yaml:"bars"`
	Plates      []float64    `json:"plates" yaml:"plates"`
	Miniweights []float64    `json:"miniweights" yaml:"miniweights"`
	Dumbbells   []float64    `json:"dumbbells" yaml:"dumbbells"`
	Machines    []GymMachine `json:"machines" yaml:"machines"`
}
