package cognition

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/driftmind/internal/agent"
	"github.com/mkarlsen/driftmind/internal/world"
)

func newController(g *world.Grid) *MetaController {
	return NewMetaController(NewGlobalPlanner(g), NewSelfModel(), rand.New(rand.NewSource(3)))
}

func snapOn(g *world.Grid, pos world.Coord, energy float64) agent.Snapshot {
	snap := agent.Snapshot{
		Vitals:   agent.NewVitals(),
		Position: pos,
		Terrain:  g.At(pos).Terrain,
	}
	snap.Vitals.Energy = energy
	return snap
}

func TestCriticalFatigueAlwaysRests(t *testing.T) {
	g := world.NewGrid(3, 3)
	mc := newController(g)
	snap := snapOn(g, world.Coord{X: 1, Y: 1}, 10)

	for _, proposed := range agent.AllActions() {
		d := mc.Arbitrate(snap, proposed, PlannerOutput{})
		assert.Equal(t, agent.ActionRest, d.Action, "proposal %s", proposed)
		assert.Equal(t, "Critical fatigue override", d.Reason)
	}
}

func TestHazardousTerrainRejectsRest(t *testing.T) {
	g := world.NewGrid(3, 1)
	g.Cell(0, 0).Terrain = world.TerrainRuins
	mc := newController(g)

	snap := snapOn(g, world.Coord{}, 50)
	d := mc.Arbitrate(snap, agent.ActionRest, PlannerOutput{})

	require.True(t, d.Action.IsMove())
	assert.Equal(t, agent.ActionMoveEast, d.Action)
	assert.True(t, d.Overridden)
}

func TestHazardousTerrainBlocksDeeperStep(t *testing.T) {
	g := world.NewGrid(3, 1)
	g.Cell(0, 0).Terrain = world.TerrainMountains
	g.Cell(1, 0).Terrain = world.TerrainMountains
	mc := newController(g)

	snap := snapOn(g, world.Coord{X: 1, Y: 0}, 60)
	d := mc.Arbitrate(snap, agent.ActionMoveWest, PlannerOutput{})

	assert.Equal(t, agent.ActionMoveEast, d.Action)
	assert.True(t, d.Overridden)
}

func TestLoopBreaking(t *testing.T) {
	g := world.NewGrid(3, 3)
	mc := newController(g)
	snap := snapOn(g, world.Coord{X: 1, Y: 1}, 80)

	for i := 0; i < 3; i++ {
		d := mc.Arbitrate(snap, agent.ActionObserve, PlannerOutput{})
		assert.Equal(t, agent.ActionObserve, d.Action)
	}

	d := mc.Arbitrate(snap, agent.ActionObserve, PlannerOutput{})
	assert.NotEqual(t, agent.ActionObserve, d.Action)
	assert.True(t, d.Overridden)

	// The proposal window resets after a break.
	d = mc.Arbitrate(snap, agent.ActionObserve, PlannerOutput{})
	assert.Equal(t, agent.ActionObserve, d.Action)
}

func TestPatternVetoForcesRest(t *testing.T) {
	g := world.NewGrid(3, 3)
	mc := newController(g)
	mc.model.Restore(SelfModelExport{
		Patterns: []Pattern{{
			Type:      PatternFatigueAccumulation,
			Condition: "energy<40 sustained",
		}},
		EnvSensitivity: 0.5,
	})

	snap := snapOn(g, world.Coord{X: 1, Y: 1}, 30)
	d := mc.Arbitrate(snap, agent.ActionExplore, PlannerOutput{})
	assert.Equal(t, agent.ActionRest, d.Action)
	assert.True(t, d.Overridden)

	// Above the energy threshold the veto does not apply.
	snap.Vitals.Energy = 60
	d = mc.Arbitrate(snap, agent.ActionExplore, PlannerOutput{})
	assert.Equal(t, agent.ActionExplore, d.Action)
}

func TestRestMotivationOverride(t *testing.T) {
	g := world.NewGrid(3, 3)
	mc := newController(g)

	snap := snapOn(g, world.Coord{X: 1, Y: 1}, 70)
	snap.Motivations[agent.Rest] = 0.5

	d := mc.Arbitrate(snap, agent.ActionStudy, PlannerOutput{})
	assert.Equal(t, agent.ActionRest, d.Action)
	assert.True(t, d.Overridden)
}

func TestPlannerComplianceAcceptsRouteStep(t *testing.T) {
	g := world.NewGrid(3, 3)
	mc := newController(g)

	snap := snapOn(g, world.Coord{X: 1, Y: 1}, 70)
	plan := PlannerOutput{Kind: PlanRoute, Step: world.East, Reason: "heading for unexplored ground"}

	d := mc.Arbitrate(snap, agent.ActionMoveEast, plan)
	assert.Equal(t, agent.ActionMoveEast, d.Action)
	assert.False(t, d.Overridden)
}

func TestPlannerRouteIntoHazardIsRerouted(t *testing.T) {
	g := world.NewGrid(3, 1)
	g.Cell(2, 0).Terrain = world.TerrainMountains
	mc := newController(g)

	snap := snapOn(g, world.Coord{X: 1, Y: 0}, 70)
	plan := PlannerOutput{Kind: PlanRoute, Step: world.East, Reason: "routing"}

	d := mc.Arbitrate(snap, agent.ActionMoveEast, plan)
	assert.NotEqual(t, agent.ActionMoveEast, d.Action)
	assert.True(t, d.Overridden)
}
