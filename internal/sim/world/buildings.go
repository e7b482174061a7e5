package world

import "fmt"

type BuildingType string

const (
	BuildingResidential BuildingType = "residential"
	BuildingCommercial  BuildingType = "commercial"
	BuildingIndustrial  BuildingType = "industrial"
	BuildingSkyscraper  BuildingType = "skyscraper"
)

var buildingTypes = [...]BuildingType{
	BuildingResidential,
	BuildingCommercial,
	BuildingIndustrial,
	BuildingSkyscraper,
}

// dimension ranges per type: width, height, depth (min..max).
var buildingDims = map[BuildingType][3][2]float64{
	BuildingResidential: {{8, 16}, {8, 20}, {8, 16}},
	BuildingCommercial:  {{12, 27}, {12, 30}, {12, 27}},
	BuildingIndustrial:  {{15, 35}, {10, 25}, {15, 35}},
	BuildingSkyscraper:  {{10, 22}, {25, 60}, {10, 22}},
}

const (
	buildingMaxHealth = 100.0
	targetProb        = 0.10
	launcherProb      = 0.15
	buildingDensity   = 5e-5
)

// BuildingConfig is the deterministic spawn record produced by chunk
// generation; live Building state is attached on install.
type BuildingConfig struct {
	Position Vec3         `json:"position"` // y = terrain elevation
	Type     BuildingType `json:"type"`
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Depth    float64      `json:"depth"`
	Target   bool         `json:"target"`
	Launcher bool         `json:"launcher"`
}

type Building struct {
	ID       string
	Position Vec3
	Type     BuildingType
	Width    float64
	Height   float64
	Depth    float64

	Health     float64
	IsTarget   bool
	IsLauncher bool
	Destroyed  bool

	onDestroyed func(*Building)
}

func newBuilding(num uint64, cfg BuildingConfig) *Building {
	return &Building{
		ID:         fmt.Sprintf("B%d", num),
		Position:   cfg.Position,
		Type:       cfg.Type,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Depth:      cfg.Depth,
		Health:     buildingMaxHealth,
		IsTarget:   cfg.Target,
		IsLauncher: cfg.Launcher,
	}
}

// RooftopPosition is the launch origin for defense missiles.
func (b *Building) RooftopPosition() Vec3 {
	return Vec3{b.Position.X, b.Position.Y + b.Height, b.Position.Z}
}

// TakeDamage subtracts d from health, clamped at zero. Crossing zero marks
// the building destroyed and fires the destruction callback exactly once.
// Returns true when this call destroyed the building.
func (b *Building) TakeDamage(d float64, isBomb bool) bool {
	if b.Destroyed || d <= 0 {
		return false
	}
	_ = isBomb // reserved for presenters (impact effect selection)
	b.Health -= d
	if b.Health > 0 {
		return false
	}
	b.Health = 0
	b.Destroyed = true
	if b.onDestroyed != nil {
		b.onDestroyed(b)
	}
	return true
}
