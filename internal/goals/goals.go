package goals

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

// Status is a goal's lifecycle state. Transitions only move forward:
// active goals become completed, failed, or abandoned, never the
// reverse.
type Status uint8

const (
	StatusActive Status = iota
	StatusCompleted
	StatusFailed
	StatusAbandoned
)

var statusNames = [...]string{"active", "completed", "failed", "abandoned"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Type classifies what a goal measures.
type Type uint8

const (
	TypeExplore Type = iota
	TypeCollect
	TypeKnowledge
	TypeEnergy
	TypeHappiness
)

var typeNames = [...]string{"explore", "collect", "knowledge", "energy", "happiness"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// RouteKind tells the planner what kind of cell, if any, serves this
// goal.
type RouteKind uint8

const (
	RouteNone RouteKind = iota
	RouteUnexplored
	RouteResource
)

// Goal is a long-lived objective with a creation-time baseline.
// Counting goals (explore, collect, knowledge) measure progress as a
// delta from that baseline; level goals (energy, happiness) measure
// the absolute vital.
type Goal struct {
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	Type         Type    `json:"type"`
	Target       float64 `json:"target"`
	Progress     float64 `json:"progress"`
	Priority     float64 `json:"priority"`
	Status       Status  `json:"status"`
	CreatedCycle int     `json:"created_cycle"`
	ClosedCycle  int     `json:"closed_cycle"`

	Routing        RouteKind          `json:"routing"`
	TargetResource world.ResourceType `json:"target_resource"`
	SafeOnly       bool               `json:"safe_only"`

	BaselineCells     int     `json:"baseline_cells"`
	BaselineCollected int     `json:"baseline_collected"`
	BaselineKnowledge float64 `json:"baseline_knowledge"`
}

const (
	creationInterval = 8
	maxActive        = 3
	timeoutCycles    = 25

	completedHistoryLimit = 20
	failedHistoryLimit    = 10

	exploreTileTarget = 5
)

// Manager owns the goal lists; nothing else mutates them.
type Manager struct {
	active       []*Goal
	completed    []*Goal
	failed       []*Goal
	lastCreation int
}

// NewManager returns an empty goal manager.
func NewManager() *Manager {
	return &Manager{}
}

// ShouldCreate reports whether a new creation round is due.
func (m *Manager) ShouldCreate(cycle int) bool {
	return len(m.active) < maxActive && cycle-m.lastCreation >= creationInterval
}

// Create builds candidate goals from the snapshot, keeps the highest
// priority ones that fit in the free slots, and returns those
// instantiated.
func (m *Manager) Create(snap agent.Snapshot, cycle int) []*Goal {
	m.lastCreation = cycle

	var candidates []*Goal

	if snap.Motivations.Get(agent.Exploration) > 0.45 && snap.CellsDiscovered < snap.TotalCells {
		candidates = append(candidates, &Goal{
			Description:   fmt.Sprintf("Discover %d new areas", exploreTileTarget),
			Type:          TypeExplore,
			Target:        exploreTileTarget,
			Priority:      0.6,
			Routing:       RouteUnexplored,
			SafeOnly:      true,
			BaselineCells: snap.CellsDiscovered,
		})
	}
	if snap.Motivations.Get(agent.Curiosity) > 0.3 && snap.Inventory[world.ResourceRelic] < 3 {
		candidates = append(candidates, &Goal{
			Description:       "Recover 2 ancient relics",
			Type:              TypeCollect,
			Target:            2,
			Priority:          0.7,
			Routing:           RouteResource,
			TargetResource:    world.ResourceRelic,
			BaselineCollected: snap.Inventory[world.ResourceRelic],
		})
	}
	if snap.Motivations.Get(agent.Learning) > 0.4 && snap.Inventory[world.ResourceBook] < 5 {
		candidates = append(candidates, &Goal{
			Description:       "Gather 3 books",
			Type:              TypeCollect,
			Target:            3,
			Priority:          0.6,
			Routing:           RouteResource,
			TargetResource:    world.ResourceBook,
			BaselineCollected: snap.Inventory[world.ResourceBook],
		})
	}
	if snap.Motivations.Get(agent.Learning) > 0.55 && snap.Vitals.Knowledge < 100 {
		gap := 100 - snap.Vitals.Knowledge
		target := gap * 0.25
		if target < 5 {
			target = 5
		}
		candidates = append(candidates, &Goal{
			Description:       fmt.Sprintf("Deepen knowledge by %.0f", target),
			Type:              TypeKnowledge,
			Target:            target,
			Priority:          0.65,
			BaselineKnowledge: snap.Vitals.Knowledge,
		})
	}
	if snap.Vitals.Energy < 70 {
		priority := 0.6
		if snap.Vitals.Energy < 30 {
			priority = 0.9
		}
		candidates = append(candidates, &Goal{
			Description: "Restore energy to 80",
			Type:        TypeEnergy,
			Target:      80,
			Priority:    priority,
		})
	}
	if snap.Vitals.Happiness < 60 {
		candidates = append(candidates, &Goal{
			Description: "Lift spirits to 70",
			Type:        TypeHappiness,
			Target:      70,
			Priority:    0.5,
		})
	}

	// Highest priority first; stable so earlier candidates win ties.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Priority > candidates[j-1].Priority; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	slots := maxActive - len(m.active)
	var created []*Goal
	for _, g := range candidates {
		if slots == 0 {
			break
		}
		if m.hasActiveType(g.Type, g.TargetResource) {
			continue
		}
		g.ID = uuid.NewString()
		g.Status = StatusActive
		g.CreatedCycle = cycle
		m.active = append(m.active, g)
		created = append(created, g)
		slots--
	}
	return created
}

func (m *Manager) hasActiveType(t Type, res world.ResourceType) bool {
	for _, g := range m.active {
		if g.Type == t && (t != TypeCollect || g.TargetResource == res) {
			return true
		}
	}
	return false
}

// UpdateProgress recomputes every active goal's progress from the
// snapshot.
func (m *Manager) UpdateProgress(snap agent.Snapshot) {
	for _, g := range m.active {
		switch g.Type {
		case TypeExplore:
			g.Progress = float64(snap.CellsDiscovered - g.BaselineCells)
		case TypeCollect:
			g.Progress = float64(snap.Inventory[g.TargetResource] - g.BaselineCollected)
		case TypeKnowledge:
			g.Progress = snap.Vitals.Knowledge - g.BaselineKnowledge
		case TypeEnergy:
			g.Progress = snap.Vitals.Energy
		case TypeHappiness:
			g.Progress = snap.Vitals.Happiness
		}
	}
}

// Evaluate completes goals that reached their target, fails goals
// past the timeout, and returns both sets plus this cycle's summed
// completion bonus.
func (m *Manager) Evaluate(cycle int) (completed, failed []*Goal, bonus float64) {
	kept := m.active[:0]
	for _, g := range m.active {
		switch {
		case g.Progress >= g.Target:
			g.Status = StatusCompleted
			g.ClosedCycle = cycle
			bonus += completionBonus(g, cycle)
			completed = append(completed, g)
			m.completed = appendBounded(m.completed, g, completedHistoryLimit)
		case cycle-g.CreatedCycle > timeoutCycles:
			g.Status = StatusFailed
			g.ClosedCycle = cycle
			failed = append(failed, g)
			m.failed = appendBounded(m.failed, g, failedHistoryLimit)
		default:
			kept = append(kept, g)
		}
	}
	m.active = kept
	return completed, failed, bonus
}

// completionBonus scales with priority and shrinks the longer the
// goal took, with a floor at half value.
func completionBonus(g *Goal, cycle int) float64 {
	speed := 1 - float64(cycle-g.CreatedCycle)/50
	if speed < 0.5 {
		speed = 0.5
	}
	return 5 * g.Priority * speed
}

func appendBounded(list []*Goal, g *Goal, limit int) []*Goal {
	list = append(list, g)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

// ActiveGoal returns the highest-priority active goal, or nil.
func (m *Manager) ActiveGoal() *Goal {
	var best *Goal
	for _, g := range m.active {
		if best == nil || g.Priority > best.Priority {
			best = g
		}
	}
	return best
}

// Active returns a copy of the active list.
func (m *Manager) Active() []*Goal {
	out := make([]*Goal, len(m.active))
	copy(out, m.active)
	return out
}

// Stats summarizes lifecycle counts for status output.
type Stats struct {
	Active    int
	Completed int
	Failed    int
}

func (m *Manager) Stats() Stats {
	return Stats{Active: len(m.active), Completed: len(m.completed), Failed: len(m.failed)}
}

// Export captures all goal lists for persistence.
type Export struct {
	Active       []Goal `json:"active"`
	Completed    []Goal `json:"completed"`
	Failed       []Goal `json:"failed"`
	LastCreation int    `json:"last_creation"`
}

func (m *Manager) Export() Export {
	return Export{
		Active:       deref(m.active),
		Completed:    deref(m.completed),
		Failed:       deref(m.failed),
		LastCreation: m.lastCreation,
	}
}

// Restore replaces the manager's state with a prior export.
func (m *Manager) Restore(exp Export) {
	m.active = ref(exp.Active)
	m.completed = ref(exp.Completed)
	m.failed = ref(exp.Failed)
	m.lastCreation = exp.LastCreation
}

func deref(gs []*Goal) []Goal {
	out := make([]Goal, len(gs))
	for i, g := range gs {
		out[i] = *g
	}
	return out
}

func ref(gs []Goal) []*Goal {
	out := make([]*Goal, len(gs))
	for i := range gs {
		g := gs[i]
		out[i] = &g
	}
	return out
}
