// Package sim wires the world, the agent, and the cognitive layers
// into the per-cycle decision loop.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/cognition"
	"github.com/mkarlsen/driftmind/internal/config"
	"github.com/mkarlsen/driftmind/internal/goals"
	"github.com/mkarlsen/driftmind/internal/learning"
	"github.com/mkarlsen/driftmind/internal/persistence"
	"github.com/mkarlsen/driftmind/internal/world"
)

// CycleReport summarizes one completed cycle for the caller.
type CycleReport struct {
	Cycle    int
	Action   agent.Action
	Reason   string
	Message  string
	Reward   float64
	Terminal bool
}

// Loop runs the single-agent simulation. One cycle runs to completion
// before the next begins; nothing here is concurrent.
type Loop struct {
	cfg config.Config
	log *slog.Logger
	rng *rand.Rand

	env         *world.Environment
	state       *agent.State
	motivations agent.MotivationVector
	personality *agent.Personality
	executor    *agent.Executor

	values      *learning.ValueStore
	model       *cognition.SelfModel
	intentions  *cognition.IntentionEngine
	planner     *cognition.GlobalPlanner
	meta        *cognition.MetaController
	metaLearner *cognition.MetaLearner
	goalMgr     *goals.Manager

	db *persistence.DB

	cycle         int
	lastAction    agent.Action
	learnedTopics map[string]int
}

// New assembles a simulation from the config, restoring prior memory
// from the database when one is given. Any load fault is downgraded
// to a fresh start.
func New(cfg config.Config, log *slog.Logger, db *persistence.DB) *Loop {
	rng := rand.New(rand.NewSource(cfg.Seed))

	l := &Loop{
		cfg:           cfg,
		log:           log,
		rng:           rng,
		state:         agent.NewState(),
		motivations:   agent.NewMotivationVector(),
		personality:   agent.NewPersonality(),
		values:        learning.NewValueStore(rng),
		model:         cognition.NewSelfModel(),
		intentions:    cognition.NewIntentionEngine(nil),
		goalMgr:       goals.NewManager(),
		db:            db,
		lastAction:    agent.ActionRest,
		learnedTopics: make(map[string]int),
	}

	l.values.SetAlpha(cfg.Learning.Alpha)
	l.values.SetEpsilon(cfg.Learning.Epsilon)
	l.values.SetGamma(cfg.Learning.Gamma)

	grid := l.restoreOrGenerate()
	l.env = world.NewEnvironment(grid, rng)
	l.executor = agent.NewExecutor(l.env, rng)
	l.planner = cognition.NewGlobalPlanner(grid)
	l.meta = cognition.NewMetaController(l.planner, l.model, rng)
	l.meta.PatternWindow = cfg.Agent.PatternWindow
	l.metaLearner = cognition.NewMetaLearner(l.values)

	return l
}

func (l *Loop) restoreOrGenerate() *world.Grid {
	gen := world.GenConfig{
		Width:          l.cfg.World.Width,
		Height:         l.cfg.World.Height,
		Seed:           l.cfg.Seed,
		ResourceChance: l.cfg.World.ResourceChance,
	}
	if l.db == nil {
		return world.Generate(gen)
	}

	grid, err := l.loadMemory()
	if err != nil {
		l.log.Warn("no prior memory, starting fresh", "reason", err)
		return world.Generate(gen)
	}
	l.log.Info("restored prior memory",
		"cycle", l.cycle,
		"cells_discovered", l.state.CellsDiscovered,
		"knowledge", l.state.Vitals.Knowledge)
	return grid
}

// loadMemory restores every persisted component; the first fault
// aborts the whole restore so state never loads half-mixed.
func (l *Loop) loadMemory() (*world.Grid, error) {
	widthStr, err := l.db.GetMeta("width")
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	heightStr, err := l.db.GetMeta("height")
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	width, _ := strconv.Atoi(widthStr)
	height, _ := strconv.Atoi(heightStr)
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("bad stored dimensions %dx%d", width, height)
	}

	cells, err := l.db.LoadCells()
	if err != nil {
		return nil, err
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("expected %d cells, found %d", width*height, len(cells))
	}

	st, err := l.db.LoadAgentState()
	if err != nil {
		return nil, err
	}
	values, err := l.db.LoadValues()
	if err != nil {
		return nil, err
	}
	modelExp, err := l.db.LoadSelfModel()
	if err != nil {
		return nil, err
	}
	goalsExp, err := l.db.LoadGoals()
	if err != nil {
		return nil, err
	}
	p, err := l.db.LoadPersonality()
	if err != nil {
		return nil, err
	}
	if cycleStr, err := l.db.GetMeta("cycle"); err == nil {
		l.cycle, _ = strconv.Atoi(cycleStr)
	}

	l.state = st
	l.values.Restore(values)
	l.model.Restore(modelExp)
	l.goalMgr.Restore(goalsExp)
	l.personality = p
	return world.Restore(width, height, cells), nil
}

// Run executes cycles until the budget is spent, the context is
// cancelled, or the agent's energy is depleted. A final save always
// runs on the way out.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.save(); err != nil {
			l.log.Error("final save failed", "error", err)
		}
	}()

	for i := 0; i < l.cfg.Cycles; i++ {
		select {
		case <-ctx.Done():
			l.log.Info("interrupted, saving and shutting down", "cycle", l.cycle)
			return ctx.Err()
		default:
		}

		report := l.RunCycle()
		if report.Terminal {
			l.log.Warn("energy fully depleted, simulation over", "cycle", report.Cycle)
			break
		}

		if l.cycle%10 == 0 {
			l.logStatus()
		}
	}

	l.logFinalSummary()
	return nil
}

// RunCycle performs one full perceive→decide→act→learn cycle.
func (l *Loop) RunCycle() CycleReport {
	// 1. The world moves.
	l.env.AdvanceTime()
	l.cycle++
	for _, ev := range l.env.State().Events {
		l.log.Debug("world event", "cycle", l.cycle, "event", ev)
	}

	// 2. Perceive: the perception step owns discovery and visit counts.
	cell := l.env.Grid.At(l.state.Position)
	if !cell.Discovered {
		cell.Discovered = true
		l.state.CellsDiscovered++
	}
	cell.VisitCount++
	novelty := l.model.Visit(l.state.Position)

	// 3. Update drives, then take the cycle's read-only snapshot.
	snap := l.snapshot()
	agent.UpdateDrives(&l.motivations, agent.DriveInputs{
		Vitals:           snap.Vitals,
		Weather:          l.env.Weather,
		ExplorationRatio: snap.ExplorationRatio(),
		NearbyResources:  snap.NearbyResources,
		Cycle:            l.cycle,
		LastStudy:        l.state.LastStudy,
		LastReflection:   l.state.LastReflection,
	}, l.personality.Traits)
	snap.Motivations = l.motivations

	// 4. Tactical intention.
	in := cognition.RuleInput{Snap: snap, Novelty: novelty}
	intent := l.intentions.Evaluate(in)
	suggestion := l.intentions.SuggestAction(intent, in)

	// 5. Long-lived goals.
	if l.goalMgr.ShouldCreate(l.cycle) {
		for _, g := range l.goalMgr.Create(snap, l.cycle) {
			l.log.Info("new goal", "cycle", l.cycle, "goal", g.Description, "priority", g.Priority)
		}
	}

	// 6. Strategic plan.
	plan := l.planner.Decide(snap, l.goalMgr.ActiveGoal())

	// 7. Learned choice.
	rlCtx := learning.ContextFor(snap)
	rlChoice := l.values.Choose(rlCtx, agent.AllActions(), l.decisionBias(snap))

	// 8. Compose the proposal: planner beats intention beats RL.
	proposed := l.composeProposal(rlChoice, suggestion, plan, snap)

	// 9. Final arbitration.
	decision := l.meta.Arbitrate(snap, proposed, plan)
	if decision.Overridden {
		l.log.Debug("override", "cycle", l.cycle, "proposed", proposed, "final", decision.Action, "reason", decision.Reason)
	}

	// 10. Execute.
	result, spatialBonus := l.executor.Execute(l.state, l.personality.Traits, decision.Action, l.cycle)
	if result.Success && result.Category != "" {
		l.learnedTopics[result.Category]++
	}
	if decision.Action == agent.ActionReflect && result.Success {
		l.runReflection()
		l.personality.CyclesSinceActivity = 0
	} else {
		l.personality.CyclesSinceActivity++
		// Long stretches without introspection erode the drifted traits.
		if l.personality.CyclesSinceActivity > 100 {
			l.personality.DecayTowardNeutral(0.002)
		}
	}

	// 11. Goal progress and completion bonus.
	post := l.snapshot()
	post.Motivations = l.motivations
	l.goalMgr.UpdateProgress(post)
	completed, failed, goalBonus := l.goalMgr.Evaluate(l.cycle)
	for _, g := range completed {
		l.log.Info("goal completed", "cycle", l.cycle, "goal", g.Description)
	}
	for _, g := range failed {
		l.log.Info("goal failed", "cycle", l.cycle, "goal", g.Description)
	}

	// 12. Learn: extrinsic reward, intrinsic shaping, table update.
	reward := l.values.Reward(result.Effects, l.state.Vitals, spatialBonus, goalBonus)
	reward += l.intrinsicReward(decision.Action, snap, novelty)
	l.values.Update(rlCtx, decision.Action, reward)
	l.values.Record(reward)

	l.model.Record(cognition.StateSnap{
		Cycle:     l.cycle,
		Energy:    l.state.Vitals.Energy,
		Happiness: l.state.Vitals.Happiness,
		Focus:     l.state.Vitals.Focus,
		Knowledge: l.state.Vitals.Knowledge,
		Terrain:   snap.Terrain,
		Action:    decision.Action,
		Reward:    reward,
		Dominant:  l.motivations.Dominant(),
	})
	if l.cycle%5 == 0 {
		for _, p := range l.model.Analyze(l.personality.Traits) {
			l.log.Info("pattern detected", "cycle", l.cycle, "type", p.Type, "detail", p.Description)
		}
	}
	l.metaLearner.Adapt(l.cycle, l.model)

	l.lastAction = decision.Action
	l.env.ClearEvents()

	l.log.Info("cycle",
		"n", l.cycle,
		"action", decision.Action,
		"reason", decision.Reason,
		"reward", fmt.Sprintf("%.2f", reward),
		"energy", fmt.Sprintf("%.0f", l.state.Vitals.Energy),
		"pos", fmt.Sprintf("(%d,%d)", l.state.Position.X, l.state.Position.Y),
		"msg", result.Message,
	)

	if l.db != nil && l.cycle%l.cfg.Persistence.SaveInterval == 0 {
		if err := l.save(); err != nil {
			l.log.Error("periodic save failed", "cycle", l.cycle, "error", err)
		}
	}

	return CycleReport{
		Cycle:    l.cycle,
		Action:   decision.Action,
		Reason:   decision.Reason,
		Message:  result.Message,
		Reward:   reward,
		Terminal: l.state.Vitals.Depleted(),
	}
}

// snapshot builds the read-only view every component receives this
// cycle. Vitals are copied; nothing downstream can mutate them.
func (l *Loop) snapshot() agent.Snapshot {
	cell := l.env.Grid.At(l.state.Position)

	nearby := 0
	for _, n := range l.env.Grid.Neighbors(l.state.Position.X, l.state.Position.Y) {
		nearby += len(n.Resources)
	}

	return agent.Snapshot{
		Cycle:           l.cycle,
		Vitals:          l.state.Vitals,
		Position:        l.state.Position,
		Terrain:         cell.Terrain,
		Weather:         l.env.Weather,
		HazardLevel:     l.env.HazardLevel(),
		NearbyResources: nearby,
		ResourcesHere:   len(cell.Resources),
		CellsDiscovered: l.state.CellsDiscovered,
		TotalCells:      l.env.Grid.CellCount(),
		Inventory:       l.state.Inventory,
		Motivations:     l.motivations,
		Traits:          l.personality.Traits,
	}
}

// decisionBias layers experience-driven nudges on top of the learned
// table scores before the greedy argmax.
func (l *Loop) decisionBias(snap agent.Snapshot) func(agent.Action) float64 {
	repetition := l.model.RepetitionIndex()
	fatigue := l.model.FatigueScore()
	envSensitivity := l.model.EnvSensitivity()

	return func(a agent.Action) float64 {
		bias := 0.0

		// Studying while drained rarely pays.
		if a == agent.ActionStudy && snap.Vitals.Energy < 40 {
			bias -= 2.0
		}
		// Discourage grinding the same action.
		if a == l.lastAction && repetition > 0.3 {
			bias -= 1.5 * repetition
		}
		// Prefer steps onto fresh ground.
		if dir, ok := a.MoveDirection(); ok {
			if dest := l.env.Grid.At(snap.Position.Step(dir)); dest != nil && !dest.Discovered {
				bias += 1.0
			}
		}
		// Lean into observed positive patterns.
		bias += l.model.PatternAlignmentBonus(a, snap.Terrain, snap.Vitals.Energy)

		if fatigue > 0.5 && a.HighCost() {
			bias -= fatigue
		}
		if envSensitivity > 0.7 && snap.HazardLevel > 0 && a.IsMove() {
			bias -= 1.0
		}
		return bias
	}
}

// composeProposal merges the upstream voices in priority order:
// planner route, planner action, intention suggestion, RL choice.
func (l *Loop) composeProposal(rlChoice agent.Action, sug cognition.Suggestion, plan cognition.PlannerOutput, snap agent.Snapshot) agent.Action {
	switch plan.Kind {
	case cognition.PlanRoute:
		return agent.MoveAction(plan.Step)
	case cognition.PlanAction:
		return plan.Action
	}

	switch sug.Kind {
	case cognition.SuggestAction:
		return sug.Action
	case cognition.SuggestRouteUnexplored:
		undiscovered := func(c *world.Cell) bool { return !c.Discovered }
		if route := l.planner.Route(snap.Position, undiscovered, true); route != nil {
			return agent.MoveAction(route.FirstStep)
		}
		return agent.ActionExplore
	case cognition.SuggestRouteSafety:
		if route := l.planner.SafeExit(snap.Position); route != nil {
			return agent.MoveAction(route.FirstStep)
		}
		return agent.ActionRest
	}

	return rlChoice
}

// intrinsicReward shapes learning toward curiosity and
// self-knowledge, independent of vital deltas. Repetition and known
// bad terrain must erode the learned values themselves, not just the
// choice-time bias, or a looping agent keeps reinforcing the loop.
func (l *Loop) intrinsicReward(a agent.Action, snap agent.Snapshot, novelty float64) float64 {
	intrinsic := 0.3 * novelty
	intrinsic += l.model.PatternAlignmentBonus(a, snap.Terrain, snap.Vitals.Energy)
	intrinsic -= 0.7 * l.model.RepetitionIndex()
	if l.model.AvoidsTerrain(snap.Terrain) {
		intrinsic -= 0.3
	}
	return intrinsic
}

func (l *Loop) runReflection() {
	r := cognition.Reflect(l.cycle, l.model, l.values, l.personality, l.goalMgr.Stats(), l.motivations.Dominant())
	l.log.Info("reflection",
		"cycle", l.cycle,
		"trend", r.Trend,
		"archetype", r.Archetype,
		"narrative", r.Narrative,
	)
	for trait, change := range r.Mutations {
		l.log.Info("personality drift", "cycle", l.cycle, "trait", trait, "change", change)
	}
}

// save persists every stateful component. Intentions are transient
// per-process and deliberately not saved.
func (l *Loop) save() error {
	if l.db == nil {
		return nil
	}

	if err := l.db.SaveValues(l.values.Export()); err != nil {
		return fmt.Errorf("save values: %w", err)
	}
	if err := l.db.SaveSelfModel(l.model.Export()); err != nil {
		return fmt.Errorf("save self model: %w", err)
	}
	if err := l.db.SaveGoals(l.goalMgr.Export()); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	if err := l.db.SavePersonality(l.personality); err != nil {
		return err
	}
	if err := l.db.SaveCells(l.env.Grid.Export()); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	if err := l.db.SaveAgentState(l.state); err != nil {
		return err
	}
	for key, value := range map[string]string{
		"cycle":  strconv.Itoa(l.cycle),
		"width":  strconv.Itoa(l.env.Grid.Width),
		"height": strconv.Itoa(l.env.Grid.Height),
	} {
		if err := l.db.SaveMeta(key, value); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}
	return nil
}
