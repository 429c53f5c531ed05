package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig(42)

	a := Generate(cfg)
	b := Generate(cfg)

	require.Equal(t, a.Width, b.Width)
	require.Equal(t, a.Height, b.Height)
	assert.Equal(t, a.Export(), b.Export())
}

func TestGenerateStartCellDiscovered(t *testing.T) {
	g := Generate(DefaultGenConfig(7))

	assert.True(t, g.Cell(0, 0).Discovered)
	assert.Equal(t, 1, g.DiscoveredCount())
	assert.Equal(t, 25, g.CellCount())
}

func TestGridExportRestore(t *testing.T) {
	g := NewGrid(4, 3)
	g.Cell(2, 1).Terrain = TerrainMountains
	g.Cell(2, 1).Discovered = true
	g.Cell(2, 1).VisitCount = 3
	g.Cell(0, 2).AddResource(ResourceRelic)

	restored := Restore(4, 3, g.Export())

	require.Equal(t, 4, restored.Width)
	require.Equal(t, 3, restored.Height)
	assert.Equal(t, TerrainMountains, restored.Cell(2, 1).Terrain)
	assert.Equal(t, 3, restored.Cell(2, 1).VisitCount)
	assert.Equal(t, []ResourceType{ResourceRelic}, restored.Cell(0, 2).Resources)
	assert.Equal(t, g.Export(), restored.Export())
}

func TestNeighborsClippedAtEdges(t *testing.T) {
	g := NewGrid(3, 3)

	corner := g.Neighbors(0, 0)
	require.Len(t, corner, 2)
	assert.Contains(t, corner, South)
	assert.Contains(t, corner, East)

	center := g.Neighbors(1, 1)
	assert.Len(t, center, 4)
}

func TestCoordStep(t *testing.T) {
	c := Coord{X: 2, Y: 2}

	assert.Equal(t, Coord{X: 2, Y: 1}, c.Step(North))
	assert.Equal(t, Coord{X: 2, Y: 3}, c.Step(South))
	assert.Equal(t, Coord{X: 1, Y: 2}, c.Step(West))
	assert.Equal(t, Coord{X: 3, Y: 2}, c.Step(East))
}

func TestCellCollect(t *testing.T) {
	c := &Cell{}
	c.AddResource(ResourceFood)
	c.AddResource(ResourceBook)

	assert.True(t, c.Collect(ResourceFood))
	assert.False(t, c.Collect(ResourceFood))
	assert.Equal(t, []ResourceType{ResourceBook}, c.Resources)
}

func TestDangerousTerrain(t *testing.T) {
	assert.True(t, TerrainMountains.Dangerous())
	assert.True(t, TerrainRuins.Dangerous())
	assert.False(t, TerrainPlains.Dangerous())
	assert.False(t, TerrainForest.Dangerous())
	assert.False(t, TerrainRiver.Dangerous())
}

func TestParseRoundTrips(t *testing.T) {
	for i := 0; i < NumTerrains; i++ {
		tt := TerrainType(i)
		parsed, err := ParseTerrain(tt.String())
		require.NoError(t, err)
		assert.Equal(t, tt, parsed)
	}
	_, err := ParseTerrain("swamp")
	assert.Error(t, err)

	for i := 0; i < NumResources; i++ {
		r := ResourceType(i)
		parsed, err := ParseResource(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
	_, err = ParseResource("gold")
	assert.Error(t, err)
}

func TestHazardLevel(t *testing.T) {
	env := NewEnvironment(NewGrid(2, 2), rand.New(rand.NewSource(1)))

	assert.Equal(t, 0, env.HazardLevel())

	env.Weather = WeatherRainy
	assert.Equal(t, 1, env.HazardLevel())

	env.Weather = WeatherStormy
	env.Time = Night
	assert.Equal(t, 5, env.HazardLevel())
}

func TestAdvanceTimeShiftsTimeOfDay(t *testing.T) {
	env := NewEnvironment(NewGrid(2, 2), rand.New(rand.NewSource(1)))
	require.Equal(t, Morning, env.Time)

	for i := 0; i < 5; i++ {
		env.AdvanceTime()
	}
	assert.Equal(t, Afternoon, env.Time)
	assert.Equal(t, 5, env.Cycle)

	for i := 0; i < 15; i++ {
		env.AdvanceTime()
	}
	assert.Equal(t, Morning, env.Time)
}

func TestEventsAccumulateAndClear(t *testing.T) {
	env := NewEnvironment(NewGrid(2, 2), rand.New(rand.NewSource(3)))

	for i := 0; i < 100; i++ {
		env.AdvanceTime()
	}
	assert.NotEmpty(t, env.State().Events)

	env.ClearEvents()
	assert.Empty(t, env.State().Events)
}

func TestRandomTopicFromCatalog(t *testing.T) {
	env := NewEnvironment(NewGrid(2, 2), rand.New(rand.NewSource(1)))

	category, topic := env.RandomTopic()
	assert.NotEmpty(t, category)
	assert.NotEmpty(t, topic)
}
