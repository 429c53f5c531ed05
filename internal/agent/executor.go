package agent

import (
	"fmt"
	"math/rand"

	"github.com/mkarlsen/driftmind/internal/world"
)

// Executor applies a chosen action to the agent's state. It is the only
// component that mutates vitals, position, and inventory. Every action
// is a total function: failures are reported in the Result, never as
// errors.
type Executor struct {
	env *world.Environment
	rng *rand.Rand
}

// NewExecutor creates an executor bound to the environment.
func NewExecutor(env *world.Environment, rng *rand.Rand) *Executor {
	return &Executor{env: env, rng: rng}
}

// Execute performs the action and returns the outcome plus any spatial
// reward bonus (discovery, rare finds) for the learning layer.
func (e *Executor) Execute(st *State, traits Traits, a Action, cycle int) (Result, float64) {
	cell := e.env.Grid.At(st.Position)

	var (
		res   Result
		bonus float64
	)

	switch {
	case a.IsMove():
		res, bonus = e.executeMove(st, a, cell)
	case a == ActionExplore:
		res, bonus = e.executeExplore(st, cell)
	case a == ActionCollect:
		res, bonus = e.executeCollect(st, cell)
	case a == ActionEat:
		res = e.executeEat(st)
	case a == ActionRest:
		res = e.executeRest(st, cell, cycle)
	case a == ActionStudy:
		res = e.executeStudy(st, cycle)
	case a == ActionReflect:
		res = e.executeReflect(st, traits, cycle)
	case a == ActionSocialize:
		res = e.executeSocialize(st, traits)
	case a == ActionObserve:
		res = e.executeObserve(st, cell)
	case a == ActionExercise:
		res = e.executeExercise(st)
	default:
		res = Result{Action: a, Success: false, Message: "nothing happened"}
	}

	st.Vitals.Clamp()
	return res, bonus
}

func (e *Executor) apply(st *State, eff Effects) {
	st.Vitals.Energy += eff.Energy
	st.Vitals.Happiness += eff.Happiness
	st.Vitals.Focus += eff.Focus
	st.Vitals.Knowledge += eff.Knowledge
}

func (e *Executor) executeMove(st *State, a Action, cell *world.Cell) (Result, float64) {
	if st.Vitals.Energy < 10 {
		return Result{Action: a, Message: "Too exhausted to move"}, 0
	}

	dir, _ := a.MoveDirection()
	next := st.Position.Step(dir)
	target := e.env.Grid.At(next)
	if target == nil {
		return Result{Action: a, Message: fmt.Sprintf("Cannot move %s - blocked by world boundary", dir)}, 0
	}

	terrainCost := -cell.Terrain.Effects().Energy
	hazardCost := float64(e.env.HazardLevel()) * 2
	eff := Effects{
		Energy: -(terrainCost + hazardCost),
		Focus:  cell.Terrain.Effects().Focus,
	}

	// Discovery itself is flipped by the perception step on arrival;
	// the executor only prices the step.
	bonus := 0.0
	if !target.Discovered {
		bonus = 5.0
		eff.Happiness = 10
	} else {
		eff.Happiness = 2
	}

	st.Position = next
	e.apply(st, eff)

	msg := fmt.Sprintf("Traveled %s to (%d, %d). %s", dir, next.X, next.Y, cell.Terrain.Effects().Description)
	return Result{Action: a, Success: true, Effects: eff, Message: msg}, bonus
}

func (e *Executor) executeExplore(st *State, cell *world.Cell) (Result, float64) {
	if st.Vitals.Energy < 10 {
		return Result{Action: ActionExplore, Message: "Too tired to explore thoroughly"}, 0
	}

	eff := Effects{Energy: -8, Happiness: 8, Focus: 5}
	bonus := 0.0
	msg := fmt.Sprintf("Explored the %s. The landscape is fascinating.", cell.Terrain)

	if len(cell.Resources) > 0 {
		found := cell.Resources[e.rng.Intn(len(cell.Resources))]
		eff.Knowledge = 3
		bonus = 2.0
		msg = fmt.Sprintf("Explored the %s and noticed a %s nearby", cell.Terrain, found)
	}

	e.apply(st, eff)
	return Result{Action: ActionExplore, Success: true, Effects: eff, Message: msg}, bonus
}

func (e *Executor) executeCollect(st *State, cell *world.Cell) (Result, float64) {
	if st.Vitals.Energy < 5 {
		return Result{Action: ActionCollect, Message: "Too tired to gather resources"}, 0
	}
	if len(cell.Resources) == 0 {
		eff := Effects{Energy: -2}
		e.apply(st, eff)
		return Result{Action: ActionCollect, Effects: eff, Message: "No resources to collect here"}, 0
	}

	resource := cell.Resources[e.rng.Intn(len(cell.Resources))]
	cell.Collect(resource)
	st.Inventory[resource]++

	var (
		eff   Effects
		bonus float64
		msg   string
	)
	switch resource {
	case world.ResourceFood:
		eff = Effects{Energy: 10, Happiness: 5}
		msg = "Collected food. Consumed for energy restoration."
	case world.ResourceBook:
		eff = Effects{Energy: -5, Knowledge: 8, Focus: 10}
		bonus = 4.0
		msg = "Collected a book. Gained valuable knowledge."
	default:
		eff = Effects{Energy: -5, Happiness: 12, Knowledge: 5}
		bonus = 6.0
		msg = "Collected an ancient relic. A magnificent discovery."
	}

	e.apply(st, eff)
	return Result{Action: ActionCollect, Success: true, Effects: eff, Message: msg}, bonus
}

func (e *Executor) executeEat(st *State) Result {
	if st.Inventory[world.ResourceFood] == 0 {
		return Result{Action: ActionEat, Message: "No food in the pack"}
	}
	st.Inventory[world.ResourceFood]--
	eff := Effects{Energy: 15, Happiness: 3}
	e.apply(st, eff)
	return Result{Action: ActionEat, Success: true, Effects: eff, Message: "Ate a meal from the pack"}
}

func (e *Executor) executeRest(st *State, cell *world.Cell, cycle int) Result {
	energyGain := 15 + float64(e.rng.Intn(11))
	focusGain := 10 + float64(e.rng.Intn(6))

	suffix := ""
	if cell.Terrain == world.TerrainRiver {
		energyGain += 5
		suffix = " The sound of water is soothing."
	}

	st.LastRest = cycle
	eff := Effects{Energy: energyGain, Focus: focusGain}
	e.apply(st, eff)

	msg := fmt.Sprintf("Rested peacefully (+%.0f energy, +%.0f focus).%s", energyGain, focusGain, suffix)
	return Result{Action: ActionRest, Success: true, Effects: eff, Message: msg}
}

func (e *Executor) executeStudy(st *State, cycle int) Result {
	if st.Vitals.Energy < 8 {
		return Result{Action: ActionStudy, Message: "Too tired to concentrate on studying"}
	}

	effectiveness := clamp(st.Vitals.Focus/100, 0, 1)
	gain := float64(int(10*effectiveness)) + float64(e.rng.Intn(6))
	category, topic := e.env.RandomTopic()

	st.LastStudy = cycle
	eff := Effects{Knowledge: gain, Energy: -8, Focus: -5}
	e.apply(st, eff)

	msg := fmt.Sprintf("Studied %s: %s. Gained %.0f knowledge.", category, topic, gain)
	return Result{Action: ActionStudy, Success: true, Effects: eff, Message: msg, Category: category}
}

func (e *Executor) executeReflect(st *State, traits Traits, cycle int) Result {
	if st.Vitals.Energy < 5 {
		return Result{Action: ActionReflect, Message: "Too tired for deep reflection"}
	}

	p := Personality{Traits: traits}
	happiness := p.OptimismRecovery(10)

	st.LastReflection = cycle
	eff := Effects{Focus: 15, Happiness: happiness, Energy: -5}
	e.apply(st, eff)

	return Result{Action: ActionReflect, Success: true, Effects: eff, Message: "Reflected deeply on the journey so far"}
}

func (e *Executor) executeSocialize(st *State, traits Traits) Result {
	if st.Vitals.Energy < 6 {
		return Result{Action: ActionSocialize, Message: "Too tired to socialize"}
	}

	happiness := 12 + float64(e.rng.Intn(9))
	knowledge := float64(e.rng.Intn(4))
	happiness += (traits.SocialAffinity - 0.5) * 10

	st.Vitals.SocialNeed = max(0, st.Vitals.SocialNeed-30)
	eff := Effects{Happiness: happiness, Knowledge: knowledge, Energy: -6}
	e.apply(st, eff)

	msg := fmt.Sprintf("Socialized with travelers. Gained %.0f happiness and %.0f knowledge.", happiness, knowledge)
	return Result{Action: ActionSocialize, Success: true, Effects: eff, Message: msg}
}

func (e *Executor) executeObserve(st *State, cell *world.Cell) Result {
	if st.Vitals.Energy < 3 {
		return Result{Action: ActionObserve, Message: "Too tired to observe carefully"}
	}

	eff := Effects{Focus: 8, Knowledge: 3, Energy: -3}
	e.apply(st, eff)

	var msg string
	switch cell.Terrain {
	case world.TerrainRuins:
		msg = "Observed ancient ruins. Noticed intricate architectural patterns."
	case world.TerrainForest:
		msg = "Observed the forest. Identified various plant species."
	default:
		msg = fmt.Sprintf("Observed the %s. Gained new insights.", cell.Terrain)
	}
	return Result{Action: ActionObserve, Success: true, Effects: eff, Message: msg}
}

func (e *Executor) executeExercise(st *State) Result {
	if st.Vitals.Energy < 15 {
		return Result{Action: ActionExercise, Message: "Too low on energy to exercise"}
	}
	eff := Effects{Happiness: 8, Focus: 5, Energy: -12}
	e.apply(st, eff)
	return Result{Action: ActionExercise, Success: true, Effects: eff, Message: "Exercised vigorously. Feeling refreshed and focused."}
}
