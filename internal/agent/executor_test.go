package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/driftmind/internal/world"
)

func testExecutor(t *testing.T) (*Executor, *world.Environment) {
	t.Helper()
	grid := world.NewGrid(3, 3)
	env := world.NewEnvironment(grid, rand.New(rand.NewSource(7)))
	return NewExecutor(env, rand.New(rand.NewSource(7))), env
}

func TestMoveUpdatesPositionAndPricesCost(t *testing.T) {
	ex, env := testExecutor(t)
	st := NewState()

	res, bonus := ex.Execute(st, NeutralTraits(), ActionMoveEast, 1)
	require.True(t, res.Success)

	assert.Equal(t, world.Coord{X: 1, Y: 0}, st.Position)
	// Plains cost 1 energy, no ambient hazard at the start.
	assert.InDelta(t, 99, st.Vitals.Energy, 1e-9)
	// Stepping onto fresh ground pays the discovery bonus...
	assert.InDelta(t, 5.0, bonus, 1e-9)
	assert.InDelta(t, 10, res.Effects.Happiness, 1e-9)
	// ...but the cell itself stays undiscovered until perception runs.
	assert.False(t, env.Grid.At(st.Position).Discovered)
}

func TestMoveOntoKnownGround(t *testing.T) {
	ex, env := testExecutor(t)
	st := NewState()
	env.Grid.Cell(1, 0).Discovered = true

	res, bonus := ex.Execute(st, NeutralTraits(), ActionMoveEast, 1)
	require.True(t, res.Success)
	assert.Zero(t, bonus)
	assert.InDelta(t, 2, res.Effects.Happiness, 1e-9)
}

func TestMoveBlockedByBoundary(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()

	res, bonus := ex.Execute(st, NeutralTraits(), ActionMoveNorth, 1)
	assert.False(t, res.Success)
	assert.Zero(t, bonus)
	assert.Equal(t, world.Coord{}, st.Position)
	assert.InDelta(t, 100, st.Vitals.Energy, 1e-9)
}

func TestMoveTooExhausted(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Energy = 9

	res, _ := ex.Execute(st, NeutralTraits(), ActionMoveEast, 1)
	assert.False(t, res.Success)
	assert.Equal(t, world.Coord{}, st.Position)
}

func TestCollectBook(t *testing.T) {
	ex, env := testExecutor(t)
	st := NewState()
	env.Grid.Cell(0, 0).AddResource(world.ResourceBook)

	res, bonus := ex.Execute(st, NeutralTraits(), ActionCollect, 1)
	require.True(t, res.Success)

	assert.Equal(t, 1, st.Inventory.Count(world.ResourceBook))
	assert.Empty(t, env.Grid.Cell(0, 0).Resources)
	assert.InDelta(t, 8, st.Vitals.Knowledge, 1e-9)
	assert.InDelta(t, 4.0, bonus, 1e-9)
}

func TestCollectFromEmptyCell(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()

	res, bonus := ex.Execute(st, NeutralTraits(), ActionCollect, 1)
	assert.False(t, res.Success)
	assert.Zero(t, bonus)
	assert.InDelta(t, 98, st.Vitals.Energy, 1e-9)
	assert.True(t, st.Inventory.IsEmpty())
}

func TestEatConsumesPackedFood(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Energy = 40
	st.Inventory[world.ResourceFood] = 2

	res, _ := ex.Execute(st, NeutralTraits(), ActionEat, 1)
	require.True(t, res.Success)
	assert.Equal(t, 1, st.Inventory.Count(world.ResourceFood))
	assert.InDelta(t, 55, st.Vitals.Energy, 1e-9)

	st.Inventory[world.ResourceFood] = 0
	res, _ = ex.Execute(st, NeutralTraits(), ActionEat, 2)
	assert.False(t, res.Success)
}

func TestRestRestoresWithinBounds(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Energy = 50
	st.Vitals.Focus = 30

	res, _ := ex.Execute(st, NeutralTraits(), ActionRest, 9)
	require.True(t, res.Success)

	assert.GreaterOrEqual(t, st.Vitals.Energy, 65.0)
	assert.LessOrEqual(t, st.Vitals.Energy, 75.0)
	assert.GreaterOrEqual(t, st.Vitals.Focus, 40.0)
	assert.LessOrEqual(t, st.Vitals.Focus, 45.0)
	assert.Equal(t, 9, st.LastRest)
}

func TestRestByRiverIsDeeper(t *testing.T) {
	ex, env := testExecutor(t)
	st := NewState()
	st.Vitals.Energy = 50
	env.Grid.Cell(0, 0).Terrain = world.TerrainRiver

	res, _ := ex.Execute(st, NeutralTraits(), ActionRest, 1)
	require.True(t, res.Success)
	assert.GreaterOrEqual(t, st.Vitals.Energy, 70.0)
}

func TestStudyScalesWithFocus(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Focus = 50

	res, _ := ex.Execute(st, NeutralTraits(), ActionStudy, 4)
	require.True(t, res.Success)

	assert.GreaterOrEqual(t, st.Vitals.Knowledge, 5.0)
	assert.LessOrEqual(t, st.Vitals.Knowledge, 10.0)
	assert.NotEmpty(t, res.Category)
	assert.Equal(t, 4, st.LastStudy)

	st.Vitals.Energy = 7
	res, _ = ex.Execute(st, NeutralTraits(), ActionStudy, 5)
	assert.False(t, res.Success)
}

func TestReflectHonorsOutlook(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	traits := NeutralTraits()
	traits.Optimism = 0.9

	res, _ := ex.Execute(st, traits, ActionReflect, 3)
	require.True(t, res.Success)
	assert.InDelta(t, 12, res.Effects.Happiness, 1e-9)
	assert.Equal(t, 3, st.LastReflection)
}

func TestSocializeDischargesNeed(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.SocialNeed = 50

	res, _ := ex.Execute(st, NeutralTraits(), ActionSocialize, 1)
	require.True(t, res.Success)
	assert.InDelta(t, 20, st.Vitals.SocialNeed, 1e-9)
}

func TestExerciseGate(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Energy = 14

	res, _ := ex.Execute(st, NeutralTraits(), ActionExercise, 1)
	assert.False(t, res.Success)

	st.Vitals.Energy = 20
	res, _ = ex.Execute(st, NeutralTraits(), ActionExercise, 2)
	require.True(t, res.Success)
	assert.InDelta(t, 8, st.Vitals.Energy, 1e-9)
}

func TestVitalsAlwaysClamped(t *testing.T) {
	ex, _ := testExecutor(t)
	st := NewState()
	st.Vitals.Happiness = 98

	res, _ := ex.Execute(st, NeutralTraits(), ActionMoveEast, 1)
	require.True(t, res.Success)
	assert.InDelta(t, 100, st.Vitals.Happiness, 1e-9)
}

func TestMoveActionRoundTrip(t *testing.T) {
	for _, d := range world.Directions {
		a := MoveAction(d)
		require.True(t, a.IsMove())
		got, ok := a.MoveDirection()
		require.True(t, ok)
		assert.Equal(t, d, got)
	}

	_, ok := ActionRest.MoveDirection()
	assert.False(t, ok)
}

func TestParseActionNames(t *testing.T) {
	for _, a := range AllActions() {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}

	_, err := ParseAction("teleport")
	assert.Error(t, err)
}

func TestHighCostActions(t *testing.T) {
	assert.True(t, ActionExplore.HighCost())
	assert.True(t, ActionExercise.HighCost())
	assert.True(t, ActionMoveWest.HighCost())
	assert.False(t, ActionRest.HighCost())
	assert.False(t, ActionStudy.HighCost())
}
