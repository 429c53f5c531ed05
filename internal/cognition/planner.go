package cognition

import (
	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/goals"
	"github.com/mkarlsen/driftmind/internal/world"
)

// Subgoal is the planner's strategic stance for the current cycle.
type Subgoal uint8

const (
	SubgoalMaintain Subgoal = iota
	SubgoalEscapeDanger
	SubgoalRecoverEnergy
	SubgoalRelocate
	SubgoalFindNewCell
	SubgoalStudy
)

var subgoalNames = [...]string{
	"maintain_status", "escape_danger", "recover_energy",
	"relocate", "find_new_cell", "study",
}

func (s Subgoal) String() string {
	if int(s) < len(subgoalNames) {
		return subgoalNames[s]
	}
	return "unknown"
}

// RoutePlan is a BFS result, consumed once by the caller.
type RoutePlan struct {
	FirstStep world.Direction
	Path      []world.Coord
	Distance  int
}

// PlanKind tells the arbitration loop what the planner produced.
type PlanKind uint8

const (
	PlanNone PlanKind = iota
	PlanRoute
	PlanAction
)

// PlannerOutput is the planner's contribution to one cycle.
type PlannerOutput struct {
	Kind    PlanKind
	Step    world.Direction
	Plan    *RoutePlan
	Action  agent.Action
	Subgoal Subgoal
	Reason  string
}

const (
	plannerEnergyFloor      = 35.0
	plannerRelocateEnergy   = 50.0
	plannerExplorationDrive = 0.20
	plannerLearningDrive    = 0.20
)

// GlobalPlanner owns strategic routing and subgoal selection.
type GlobalPlanner struct {
	grid *world.Grid
}

// NewGlobalPlanner binds the planner to the world grid.
func NewGlobalPlanner(grid *world.Grid) *GlobalPlanner {
	return &GlobalPlanner{grid: grid}
}

// Route runs a breadth-first search from start over the 4-connected
// grid, expanding neighbors in the fixed north, south, west, east
// order. It returns the shortest path to the first cell (other than
// start) satisfying isTarget, or nil when no such cell is reachable.
// With avoidDanger set, hazardous cells are never entered.
func (p *GlobalPlanner) Route(start world.Coord, isTarget func(*world.Cell) bool, avoidDanger bool) *RoutePlan {
	if p.grid.At(start) == nil {
		return nil
	}

	parent := map[world.Coord]world.Coord{start: start}
	queue := []world.Coord{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		cell := p.grid.At(cur)
		if cur != start && isTarget(cell) {
			return p.buildPlan(start, cur, parent)
		}

		for _, d := range world.Directions {
			next := cur.Step(d)
			nextCell := p.grid.At(next)
			if nextCell == nil {
				continue
			}
			if _, seen := parent[next]; seen {
				continue
			}
			if avoidDanger && nextCell.Dangerous() {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}

func (p *GlobalPlanner) buildPlan(start, goal world.Coord, parent map[world.Coord]world.Coord) *RoutePlan {
	path := []world.Coord{goal}
	for cur := goal; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	// Reverse into start→goal order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	first := path[1]
	var step world.Direction
	for _, d := range world.Directions {
		if start.Step(d) == first {
			step = d
			break
		}
	}
	return &RoutePlan{FirstStep: step, Path: path, Distance: len(path) - 1}
}

// stances lists every applicable strategic stance in priority order:
// danger escape, energy recovery, terrain relocation, exploration,
// learning. The list always ends with SubgoalMaintain.
func (p *GlobalPlanner) stances(snap agent.Snapshot) []Subgoal {
	var out []Subgoal
	if snap.Terrain.Dangerous() {
		out = append(out, SubgoalEscapeDanger)
	}
	if snap.Vitals.Energy < plannerEnergyFloor {
		out = append(out, SubgoalRecoverEnergy)
	}
	if p.drainingTerrain(snap) {
		out = append(out, SubgoalRelocate)
	}
	if snap.Motivations.Get(agent.Exploration) > plannerExplorationDrive {
		out = append(out, SubgoalFindNewCell)
	}
	if snap.Motivations.Get(agent.Learning) > plannerLearningDrive {
		out = append(out, SubgoalStudy)
	}
	return append(out, SubgoalMaintain)
}

// ProposeSubgoal is a fixed decision list evaluated top to bottom.
func (p *GlobalPlanner) ProposeSubgoal(snap agent.Snapshot) Subgoal {
	return p.stances(snap)[0]
}

// Decide produces the planner's strategic suggestion for this cycle.
// It resolves the stances from ProposeSubgoal in order, so the spec
// decision list and the dispatch share one definition; only danger
// escape outranks routing toward an active goal.
func (p *GlobalPlanner) Decide(snap agent.Snapshot, active *goals.Goal) PlannerOutput {
	stances := p.stances(snap)

	if stances[0] == SubgoalEscapeDanger {
		if plan := p.SafeExit(snap.Position); plan != nil {
			return PlannerOutput{
				Kind: PlanRoute, Step: plan.FirstStep, Plan: plan,
				Subgoal: SubgoalEscapeDanger,
				Reason:  "escaping hazardous terrain",
			}
		}
		return PlannerOutput{Kind: PlanAction, Action: agent.ActionRest, Subgoal: SubgoalEscapeDanger, Reason: "no safe exit; conserving energy"}
	}

	if active != nil && active.Routing != goals.RouteNone {
		if plan := p.routeForGoal(snap.Position, active); plan != nil {
			return PlannerOutput{
				Kind: PlanRoute, Step: plan.FirstStep, Plan: plan,
				Subgoal: SubgoalFindNewCell,
				Reason:  "routing toward goal: " + active.Description,
			}
		}
	}

	for _, sg := range stances {
		if out, ok := p.pursue(sg, snap); ok {
			return out
		}
	}
	return PlannerOutput{Kind: PlanNone, Subgoal: SubgoalMaintain}
}

// pursue turns a stance into a concrete output. It reports false when
// the grid offers no route for this stance, letting the caller degrade
// to the next one.
func (p *GlobalPlanner) pursue(sg Subgoal, snap agent.Snapshot) (PlannerOutput, bool) {
	switch sg {
	case SubgoalRecoverEnergy:
		return PlannerOutput{Kind: PlanAction, Action: agent.ActionRest, Subgoal: sg, Reason: "energy reserves need recovery"}, true

	case SubgoalRelocate:
		comfy := func(c *world.Cell) bool { return c.Terrain.Effects().Energy >= -1 }
		if plan := p.Route(snap.Position, comfy, true); plan != nil {
			return PlannerOutput{
				Kind: PlanRoute, Step: plan.FirstStep, Plan: plan,
				Subgoal: sg,
				Reason:  "relocating to gentler terrain",
			}, true
		}
		return PlannerOutput{}, false

	case SubgoalFindNewCell:
		undiscovered := func(c *world.Cell) bool { return !c.Discovered }
		if plan := p.Route(snap.Position, undiscovered, true); plan != nil {
			return PlannerOutput{
				Kind: PlanRoute, Step: plan.FirstStep, Plan: plan,
				Subgoal: sg,
				Reason:  "heading for unexplored ground",
			}, true
		}
		return PlannerOutput{Kind: PlanAction, Action: agent.ActionExplore, Subgoal: sg, Reason: "nothing reachable unexplored; surveying here"}, true

	case SubgoalStudy:
		return PlannerOutput{Kind: PlanAction, Action: agent.ActionStudy, Subgoal: sg, Reason: "time to study"}, true

	default:
		return PlannerOutput{Kind: PlanNone, Subgoal: SubgoalMaintain}, true
	}
}

// SafeExit routes to the nearest non-hazardous cell, entering hazard
// along the way only if unavoidable.
func (p *GlobalPlanner) SafeExit(from world.Coord) *RoutePlan {
	safe := func(c *world.Cell) bool { return !c.Dangerous() }
	if plan := p.Route(from, safe, true); plan != nil {
		return plan
	}
	return p.Route(from, safe, false)
}

func (p *GlobalPlanner) routeForGoal(from world.Coord, g *goals.Goal) *RoutePlan {
	var isTarget func(*world.Cell) bool
	switch g.Routing {
	case goals.RouteUnexplored:
		isTarget = func(c *world.Cell) bool { return !c.Discovered }
	case goals.RouteResource:
		isTarget = func(c *world.Cell) bool {
			for _, r := range c.Resources {
				if r == g.TargetResource {
					return true
				}
			}
			return false
		}
	default:
		return nil
	}
	return p.Route(from, isTarget, g.SafeOnly)
}

func (p *GlobalPlanner) drainingTerrain(snap agent.Snapshot) bool {
	return snap.Terrain.Effects().Energy <= -3 && snap.Vitals.Energy < plannerRelocateEnergy
}
