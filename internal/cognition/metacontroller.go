package cognition

import (
	"fmt"
	"math/rand"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

// Decision is the meta-controller's final verdict for a cycle. Reason
// is observability only; nothing downstream branches on it.
type Decision struct {
	Action     agent.Action
	Reason     string
	Overridden bool
}

const (
	loopWindow           = 4
	criticalEnergy       = 15.0
	patternVetoEnergy    = 40.0
	restMotivationFloor  = 0.45
	defaultPatternWindow = 5
)

// MetaController applies safety and sanity overrides to the single
// action proposed by the upstream pipeline. Branches run in strict
// priority order; the first that fires wins.
type MetaController struct {
	planner *GlobalPlanner
	model   *SelfModel
	rng     *rand.Rand

	// PatternWindow bounds how far back pattern-informed overrides
	// look into the detected-pattern list.
	PatternWindow int

	recentProposals []agent.Action
	recentPositions []world.Coord
}

// NewMetaController wires the controller to the planner (for escape
// routing) and the self-model (for pattern vetoes).
func NewMetaController(planner *GlobalPlanner, model *SelfModel, rng *rand.Rand) *MetaController {
	return &MetaController{
		planner:       planner,
		model:         model,
		rng:           rng,
		PatternWindow: defaultPatternWindow,
	}
}

// Arbitrate returns the final action for this cycle.
func (mc *MetaController) Arbitrate(snap agent.Snapshot, proposed agent.Action, plan PlannerOutput) Decision {
	mc.trackProposal(proposed)
	mc.trackPosition(snap.Position)

	// 1. Loop-breaking. Skipped when energy is critical: branch 2
	// must win then, whatever the loop looks like.
	if snap.Vitals.Energy >= criticalEnergy && mc.proposalLoop() {
		return mc.breakLoop(snap)
	}

	// 2. Critical fatigue.
	if snap.Vitals.Energy < criticalEnergy {
		return Decision{Action: agent.ActionRest, Reason: "Critical fatigue override", Overridden: proposed != agent.ActionRest}
	}

	// 3. Terrain safety.
	if d, ok := mc.terrainOverride(snap, proposed); ok {
		return d
	}

	// 4. Pattern-informed veto.
	if mc.patternVeto(snap, proposed) {
		return Decision{Action: agent.ActionRest, Reason: "Recent patterns warn against exertion", Overridden: true}
	}

	// 5. Motivation override.
	if snap.Motivations.Get(agent.Rest) > restMotivationFloor && proposed != agent.ActionRest {
		return Decision{Action: agent.ActionRest, Reason: "The need for rest dominates", Overridden: true}
	}

	// 6. Planner compliance.
	if d, ok := mc.plannerCompliance(snap, proposed, plan); ok {
		return d
	}

	// 7. Accept.
	return Decision{Action: proposed, Reason: "Proposal accepted"}
}

func (mc *MetaController) trackProposal(a agent.Action) {
	mc.recentProposals = append(mc.recentProposals, a)
	if len(mc.recentProposals) > loopWindow {
		mc.recentProposals = mc.recentProposals[len(mc.recentProposals)-loopWindow:]
	}
}

func (mc *MetaController) trackPosition(c world.Coord) {
	mc.recentPositions = append(mc.recentPositions, c)
	if len(mc.recentPositions) > 4 {
		mc.recentPositions = mc.recentPositions[len(mc.recentPositions)-4:]
	}
}

func (mc *MetaController) proposalLoop() bool {
	if len(mc.recentProposals) < loopWindow {
		return false
	}
	first := mc.recentProposals[0]
	for _, a := range mc.recentProposals[1:] {
		if a != first {
			return false
		}
	}
	return true
}

// breakLoop escalates through escape move, random move, eating, and
// finally rest.
func (mc *MetaController) breakLoop(snap agent.Snapshot) Decision {
	mc.recentProposals = nil

	if plan := mc.planner.SafeExit(snap.Position); plan != nil {
		return Decision{
			Action:     agent.MoveAction(plan.FirstStep),
			Reason:     "Breaking action loop with an escape move",
			Overridden: true,
		}
	}
	if dirs := mc.validMoves(snap.Position); len(dirs) > 0 {
		d := dirs[mc.rng.Intn(len(dirs))]
		return Decision{Action: agent.MoveAction(d), Reason: "Breaking action loop with a random move", Overridden: true}
	}
	if snap.Inventory[world.ResourceFood] > 0 {
		return Decision{Action: agent.ActionEat, Reason: "Breaking action loop by eating", Overridden: true}
	}
	return Decision{Action: agent.ActionRest, Reason: "Breaking action loop by resting", Overridden: true}
}

func (mc *MetaController) validMoves(from world.Coord) []world.Direction {
	var out []world.Direction
	for _, d := range world.Directions {
		if mc.planner.grid.At(from.Step(d)) != nil {
			out = append(out, d)
		}
	}
	return out
}

func (mc *MetaController) terrainOverride(snap agent.Snapshot, proposed agent.Action) (Decision, bool) {
	if !snap.Terrain.Dangerous() {
		return Decision{}, false
	}

	// Oscillating between two hazardous cells counts as being stuck.
	if mc.hazardOscillation() {
		return mc.escapeDecision(snap, "Oscillating between hazards; forcing escape"), true
	}

	if proposed == agent.ActionRest {
		return mc.escapeDecision(snap, fmt.Sprintf("Resting on %s is unsafe; moving out", snap.Terrain)), true
	}

	if dir, ok := proposed.MoveDirection(); ok {
		dest := mc.planner.grid.At(snap.Position.Step(dir))
		if dest != nil && dest.Dangerous() {
			return mc.escapeDecision(snap, "Refusing to step deeper into hazard"), true
		}
	}
	return Decision{}, false
}

func (mc *MetaController) hazardOscillation() bool {
	p := mc.recentPositions
	if len(p) < 4 {
		return false
	}
	if p[3] != p[1] || p[2] != p[0] || p[3] == p[2] {
		return false
	}
	a := mc.planner.grid.At(p[3])
	b := mc.planner.grid.At(p[2])
	return a != nil && b != nil && a.Dangerous() && b.Dangerous()
}

func (mc *MetaController) escapeDecision(snap agent.Snapshot, reason string) Decision {
	if plan := mc.planner.SafeExit(snap.Position); plan != nil {
		return Decision{Action: agent.MoveAction(plan.FirstStep), Reason: reason, Overridden: true}
	}
	return Decision{Action: agent.ActionRest, Reason: reason + " (no exit found)", Overridden: true}
}

func (mc *MetaController) patternVeto(snap agent.Snapshot, proposed agent.Action) bool {
	if snap.Vitals.Energy >= patternVetoEnergy {
		return false
	}
	if !proposed.IsMove() && !proposed.HighCost() {
		return false
	}
	return mc.model.HasRecentPattern(mc.PatternWindow, PatternTerrainAvoidance, PatternFatigueAccumulation)
}

func (mc *MetaController) plannerCompliance(snap agent.Snapshot, proposed agent.Action, plan PlannerOutput) (Decision, bool) {
	switch plan.Kind {
	case PlanRoute:
		step := agent.MoveAction(plan.Step)
		dest := mc.planner.grid.At(snap.Position.Step(plan.Step))
		if dest != nil && dest.Dangerous() {
			return mc.escapeDecision(snap, "Planner route leads into hazard; rerouting"), true
		}
		if proposed != step {
			return Decision{Action: step, Reason: "Following planner route: " + plan.Reason, Overridden: true}, true
		}
		return Decision{Action: step, Reason: "Following planner route: " + plan.Reason}, true
	case PlanAction:
		if plan.Action == agent.ActionRest && proposed != agent.ActionRest {
			return Decision{Action: agent.ActionRest, Reason: "Planner calls for rest: " + plan.Reason, Overridden: true}, true
		}
	}
	return Decision{}, false
}
