package agent

import "github.com/mkarlsen/driftmind/internal/world"

// Vitals are the agent's internal scalars. Energy, happiness, and focus
// live in [0,100]; knowledge and social need only have a floor at zero.
// Mutated only by the action executor.
type Vitals struct {
	Energy     float64 `json:"energy"`
	Happiness  float64 `json:"happiness"`
	Focus      float64 `json:"focus"`
	Knowledge  float64 `json:"knowledge"`
	SocialNeed float64 `json:"social_need"`
}

// NewVitals returns the starting vitals.
func NewVitals() Vitals {
	return Vitals{
		Energy:     100,
		Happiness:  50,
		Focus:      50,
		Knowledge:  0,
		SocialNeed: 20,
	}
}

// Clamp enforces the vital bounds.
func (v *Vitals) Clamp() {
	v.Energy = clamp(v.Energy, 0, 100)
	v.Happiness = clamp(v.Happiness, 0, 100)
	v.Focus = clamp(v.Focus, 0, 100)
	if v.Knowledge < 0 {
		v.Knowledge = 0
	}
	if v.SocialNeed < 0 {
		v.SocialNeed = 0
	}
}

// Depleted reports the terminal condition: the agent has run out of energy.
func (v Vitals) Depleted() bool {
	return v.Energy <= 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Inventory counts held resources, indexed by world.ResourceType.
type Inventory [world.NumResources]int

// Count returns the held quantity of a resource.
func (inv Inventory) Count(r world.ResourceType) int {
	return inv[r]
}

// IsEmpty reports whether nothing is held.
func (inv Inventory) IsEmpty() bool {
	for _, n := range inv {
		if n != 0 {
			return false
		}
	}
	return true
}

// State is the mutable agent record owned by the orchestrator.
// Only the executor mutates vitals, position, and inventory.
type State struct {
	Position        world.Coord
	Vitals          Vitals
	Inventory       Inventory
	CellsDiscovered int

	LastRest       int
	LastStudy      int
	LastReflection int
}

// NewState places a fresh agent at the origin.
func NewState() *State {
	return &State{
		Position:        world.Coord{X: 0, Y: 0},
		Vitals:          NewVitals(),
		CellsDiscovered: 1,
	}
}

// Snapshot is the per-cycle read-only view of agent and world state
// handed to every decision component. No component holds it across
// cycles.
type Snapshot struct {
	Cycle           int
	Vitals          Vitals
	Position        world.Coord
	Terrain         world.TerrainType
	Weather         world.Weather
	HazardLevel     int
	NearbyResources int
	ResourcesHere   int
	CellsDiscovered int
	TotalCells      int
	Inventory       Inventory
	Motivations     MotivationVector
	Traits          Traits
}

// ExplorationRatio is the share of the grid the agent has uncovered.
func (s Snapshot) ExplorationRatio() float64 {
	if s.TotalCells == 0 {
		return 0
	}
	return float64(s.CellsDiscovered) / float64(s.TotalCells)
}
