// Package world provides the grid world: terrain, resources, weather,
// and the environment clock the agent perceives.
package world

import "fmt"

// TerrainType classifies a grid cell.
type TerrainType uint8

const (
	TerrainForest TerrainType = iota
	TerrainRuins
	TerrainPlains
	TerrainMountains
	TerrainRiver
)

// NumTerrains is the total number of terrain types.
const NumTerrains = 5

var terrainNames = [NumTerrains]string{"forest", "ruins", "plains", "mountains", "river"}

func (t TerrainType) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "unknown"
}

// ParseTerrain converts a stored terrain name back to its type.
func ParseTerrain(s string) (TerrainType, error) {
	for i, name := range terrainNames {
		if name == s {
			return TerrainType(i), nil
		}
	}
	return TerrainPlains, fmt.Errorf("unknown terrain %q", s)
}

// Dangerous reports whether the terrain is hazardous to stand on.
// Mountains and ruins drain the agent and trigger safety overrides.
func (t TerrainType) Dangerous() bool {
	return t == TerrainMountains || t == TerrainRuins
}

// TerrainEffects describes how a terrain modifies movement and focus.
type TerrainEffects struct {
	Energy      float64
	Focus       float64
	Description string
}

var terrainEffects = [NumTerrains]TerrainEffects{
	TerrainForest:    {Energy: -3, Focus: 2, Description: "Dense trees slow movement but sharpen focus"},
	TerrainRuins:     {Energy: -5, Focus: 5, Description: "Ancient ruins are exhausting but intellectually stimulating"},
	TerrainPlains:    {Energy: -1, Focus: 0, Description: "Open plains are easy to traverse"},
	TerrainMountains: {Energy: -8, Focus: -3, Description: "Steep mountains drain energy and concentration"},
	TerrainRiver:     {Energy: -2, Focus: 3, Description: "Flowing water is refreshing and calming"},
}

// Effects returns the movement/focus modifiers for the terrain.
func (t TerrainType) Effects() TerrainEffects {
	if int(t) < len(terrainEffects) {
		return terrainEffects[t]
	}
	return TerrainEffects{Description: "Neutral terrain"}
}

// ResourceType enumerates collectable resources.
type ResourceType uint8

const (
	ResourceFood ResourceType = iota
	ResourceBook
	ResourceRelic
)

// NumResources is the total number of resource types.
const NumResources = 3

var resourceNames = [NumResources]string{"food", "book", "relic"}

func (r ResourceType) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// ParseResource converts a stored resource name back to its type.
func ParseResource(s string) (ResourceType, error) {
	for i, name := range resourceNames {
		if name == s {
			return ResourceType(i), nil
		}
	}
	return ResourceFood, fmt.Errorf("unknown resource %q", s)
}

// Weather affects hazard level and several motivation drives.
type Weather uint8

const (
	WeatherSunny Weather = iota
	WeatherCloudy
	WeatherRainy
	WeatherStormy
)

var weatherNames = [4]string{"sunny", "cloudy", "rainy", "stormy"}

func (w Weather) String() string {
	if int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return "unknown"
}

// TimeOfDay cycles every few cycles and contributes to hazard at night.
type TimeOfDay uint8

const (
	Morning TimeOfDay = iota
	Afternoon
	Evening
	Night
)

var timeNames = [4]string{"morning", "afternoon", "evening", "night"}

func (t TimeOfDay) String() string {
	if int(t) < len(timeNames) {
		return timeNames[t]
	}
	return "unknown"
}

// Coord identifies a grid cell.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is a cardinal movement on the 4-connected grid.
type Direction uint8

const (
	North Direction = iota
	South
	West
	East
)

// Directions lists all directions in the fixed expansion order used by
// route search. The order is part of the determinism contract.
var Directions = [4]Direction{North, South, West, East}

var directionNames = [4]string{"north", "south", "west", "east"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// Offset returns the coordinate delta for the direction.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case West:
		return -1, 0
	default:
		return 1, 0
	}
}

// Step returns the coordinate one cell away in the direction.
func (c Coord) Step(d Direction) Coord {
	dx, dy := d.Offset()
	return Coord{X: c.X + dx, Y: c.Y + dy}
}
